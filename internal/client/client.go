package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/storefront-orders/internal/httpx"
	"github.com/ariefcatur/storefront-orders/internal/orders"
	"github.com/ariefcatur/storefront-orders/internal/orderstatus"
)

// Client talks to the storefront order API. Calls are never retried.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userID     string
	adminKey   string
}

type Option func(*Client)

// WithUserID sets the customer identity sent on customer routes.
func WithUserID(id string) Option { return func(c *Client) { c.userID = id } }

// WithAdminKey sets the bearer key for /admin routes.
func WithAdminKey(key string) Option { return func(c *Client) { c.adminKey = key } }

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ListOptions filters the admin order list.
type ListOptions struct {
	Status []string
	Limit  int
	Offset int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if len(o.Status) > 0 {
		q.Set("status", strings.Join(o.Status, ","))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) Products(ctx context.Context) ([]httpx.ProductResp, error) {
	var out []httpx.ProductResp
	err := c.do(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) Checkout(ctx context.Context, externalID string, items []orders.ItemInput) (httpx.CreateOrderResp, error) {
	var out httpx.CreateOrderResp
	err := c.do(ctx, http.MethodPost, "/orders", httpx.CreateOrderReq{ExternalID: externalID, Items: items}, &out)
	return out, err
}

func (c *Client) Order(ctx context.Context, id string) (httpx.OrderResp, error) {
	var out httpx.OrderResp
	err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &out)
	return out, err
}

// MyOrders lists the customer's orders. A 404 means there are none.
func (c *Client) MyOrders(ctx context.Context) ([]httpx.OrderResp, error) {
	var out []httpx.OrderResp
	if err := c.do(ctx, http.MethodGet, "/me/orders", nil, &out); err != nil {
		if IsNotFound(err) {
			return []httpx.OrderResp{}, nil
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) Cancel(ctx context.Context, id string) (httpx.OrderResp, error) {
	var out httpx.OrderResp
	err := c.do(ctx, http.MethodPost, "/orders/"+url.PathEscape(id)+"/cancel", nil, &out)
	return out, err
}

// AdminOrders lists orders for the admin board. A 404 reads as empty.
func (c *Client) AdminOrders(ctx context.Context, opts ListOptions) ([]httpx.OrderResp, error) {
	var out []httpx.OrderResp
	if err := c.do(ctx, http.MethodGet, "/admin/orders"+opts.query(), nil, &out); err != nil {
		if IsNotFound(err) {
			return []httpx.OrderResp{}, nil
		}
		return nil, err
	}
	return out, nil
}

func (c *Client) AdminOrder(ctx context.Context, id string) (httpx.OrderResp, error) {
	var out httpx.OrderResp
	err := c.do(ctx, http.MethodGet, "/admin/orders/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) UpdateStatus(ctx context.Context, id string, action orderstatus.Action) (httpx.OrderResp, error) {
	var out httpx.OrderResp
	err := c.do(ctx, http.MethodPatch, "/admin/orders/"+url.PathEscape(id)+"/status", httpx.UpdateStatusReq{Status: string(action)}, &out)
	return out, err
}

func (c *Client) RecordPayment(ctx context.Context, id, paymentStatus string) (httpx.OrderResp, error) {
	var out httpx.OrderResp
	err := c.do(ctx, http.MethodPost, "/admin/orders/"+url.PathEscape(id)+"/payment", httpx.RecordPaymentReq{PaymentStatus: paymentStatus}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set(httpx.HeaderUserID, c.userID)
	}
	if c.adminKey != "" && strings.HasPrefix(path, "/admin/") {
		req.Header.Set("Authorization", "Bearer "+c.adminKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Kind: KindNetwork, Err: err}
	}
	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, data)
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(code int, body []byte) *Error {
	e := &Error{Status: code}
	var eb struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &eb) == nil {
		e.Message = eb.Error
	}
	switch {
	case code >= 500:
		e.Kind = KindServer
	case code == http.StatusNotFound:
		e.Kind = KindNotFound
	default:
		e.Kind = KindRequest
	}
	e.Err = errors.New(http.StatusText(code))
	return e
}
