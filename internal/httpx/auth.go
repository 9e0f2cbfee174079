package httpx

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HeaderUserID carries the authenticated customer id, set by the auth gateway
// in front of this service.
const HeaderUserID = "X-User-ID"

type ctxKey int

const userIDKey ctxKey = iota

// RequireCustomer rejects requests without a customer identity.
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing customer identity"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, uid)))
	})
}

func userID(ctx context.Context) string {
	uid, _ := ctx.Value(userIDKey).(string)
	return uid
}

// AdminOnly checks the bearer key against a bcrypt hash. With no hash
// configured every admin request is refused.
func AdminOnly(keyHash string) func(http.Handler) http.Handler {
	hash := []byte(keyHash)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := bearer(r)
			if !ok || len(hash) == 0 || bcrypt.CompareHashAndPassword(hash, []byte(key)) != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid admin key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	key := strings.TrimSpace(h[len(prefix):])
	return key, key != ""
}
