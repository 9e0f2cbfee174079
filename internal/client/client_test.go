package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/storefront-orders/internal/httpx"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

func serve(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestMyOrdersNotFoundIsEmpty(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u1", r.Header.Get(httpx.HeaderUserID))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"no orders found"}`))
	})

	list, err := New(srv.URL, WithUserID("u1")).MyOrders(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestUpdateStatusSendsAdminKey(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/admin/orders/o1/status", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		var req httpx.UpdateStatusReq
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "delivered", req.Status)
		_ = json.NewEncoder(w).Encode(httpx.OrderResp{OrderID: "o1", Status: "delivered"})
	})

	o, err := New(srv.URL, WithAdminKey("k")).UpdateStatus(context.Background(), "o1", orderstatus.ActionDelivered)
	require.NoError(t, err)
	assert.Equal(t, "delivered", o.Status)
}

func TestAdminOrdersQuery(t *testing.T) {
	srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "pending,confirmed", r.URL.Query().Get("status"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := New(srv.URL).AdminOrders(context.Background(), ListOptions{Status: []string{"pending", "confirmed"}, Limit: 20})
	require.NoError(t, err)
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		code int
		body string
		kind Kind
		msg  string
	}{
		{"server error", http.StatusInternalServerError, `{"error":"internal error"}`, KindServer, MsgServer},
		{"gateway timeout", http.StatusGatewayTimeout, ``, KindServer, MsgServer},
		{"business rule", http.StatusConflict, `{"error":"order abc cannot be cancelled: the cancellation window has passed"}`, KindRequest, "order abc cannot be cancelled: the cancellation window has passed"},
		{"4xx without message", http.StatusBadRequest, `oops`, KindRequest, MsgGeneric},
		{"not found on detail", http.StatusNotFound, `{"error":"order not found"}`, KindNotFound, "order not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.code)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := New(srv.URL).Order(context.Background(), "o1")
			require.Error(t, err)

			var ce *Error
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tc.kind, ce.Kind)
			assert.Equal(t, tc.code, ce.Status)
			assert.Equal(t, tc.msg, UserMessage(err))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Products(context.Background())
	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindNetwork, ce.Kind)
	assert.Equal(t, MsgNetwork, UserMessage(err))
}

func TestUserMessageOther(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, MsgGeneric, UserMessage(errors.New("boom")))
}
