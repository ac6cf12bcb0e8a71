package orderapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"

	"github.com/adrian08041/cardapio/internal/order"
)

const maxBodyBytes = 1 << 20

// APIError carries the status code and message of a failed Order API
// call so callers can sort it into the error taxonomy.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order api: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("order api: %d", e.StatusCode)
}

// IsNotFound reports whether err is an Order API 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// IsAuth reports whether err is an Order API 401 or 403.
func IsAuth(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && (apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}

// CreateOrderRequest is the POST /orders payload defined by the Order
// API contract.
type CreateOrderRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	CustomerEmail string `json:"customerEmail,omitempty"`

	DeliveryAddress      string `json:"deliveryAddress,omitempty"`
	DeliveryComplement   string `json:"deliveryComplement,omitempty"`
	DeliveryNeighborhood string `json:"deliveryNeighborhood,omitempty"`

	OrderType     string   `json:"orderType"`
	PaymentMethod string   `json:"paymentMethod"`
	ChangeFor     *float64 `json:"changeFor,omitempty"`
	DeliveryFee   float64  `json:"deliveryFee"`

	CouponCode string  `json:"couponCode,omitempty"`
	Discount   float64 `json:"discount,omitempty"`

	Notes string `json:"notes,omitempty"`

	Items []CreateOrderItem `json:"items"`
}

type CreateOrderItem struct {
	ProductID string             `json:"productId"`
	Quantity  int                `json:"quantity"`
	Notes     string             `json:"notes,omitempty"`
	Addons    []CreateOrderAddon `json:"addons,omitempty"`
}

type CreateOrderAddon struct {
	AddonID  string `json:"addonId"`
	Quantity int    `json:"quantity"`
}

// Client is the typed boundary to the external Order API. Responses are
// decoded into wire DTOs and normalized before anything internal sees
// them; a 401 discards the session.
type Client struct {
	baseURL string
	httpc   *http.Client
	session *SessionStore
	logger  apt.Logger
}

func NewClient(baseURL string, session *SessionStore, logger apt.Logger) *Client {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		session: session,
		logger:  logger,
	}
}

// Create submits a new order. The API assigns the id and the initial
// pending status.
func (c *Client) Create(ctx context.Context, req CreateOrderRequest) (*order.Order, error) {
	req.OrderType = wireOrderType(req.OrderType)

	var wire orderWire
	if err := c.do(ctx, http.MethodPost, "/orders", req, &wire); err != nil {
		return nil, err
	}
	return normalizeOrder(&wire)
}

// Get fetches a single order, used by the tracking surface.
func (c *Client) Get(ctx context.Context, id string) (*order.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("missing order id")
	}
	var wire orderWire
	if err := c.do(ctx, http.MethodGet, "/orders/"+id, nil, &wire); err != nil {
		return nil, err
	}
	return normalizeOrder(&wire)
}

// List fetches the full order set.
func (c *Client) List(ctx context.Context) ([]*order.Order, error) {
	return c.list(ctx, "/orders")
}

// ListToday fetches the orders created today.
func (c *Client) ListToday(ctx context.Context) ([]*order.Order, error) {
	return c.list(ctx, "/orders/today")
}

func (c *Client) list(ctx context.Context, path string) ([]*order.Order, error) {
	var wires []orderWire
	if err := c.do(ctx, http.MethodGet, path, nil, &wires); err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(wires))
	for i := range wires {
		o, err := normalizeOrder(&wires[i])
		if err != nil {
			// One malformed order must not blank the whole board.
			c.logger.Error("skipping malformed order payload", "error", err)
			continue
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// Advance issues a status-advance action (prepare, ready, deliver)
// against the order and returns the server's view after the move.
func (c *Client) Advance(ctx context.Context, id, action string) (*order.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("missing order id")
	}
	switch action {
	case "confirm", "prepare", "ready", "deliver":
	default:
		return nil, fmt.Errorf("unsupported order action %q", action)
	}

	var wire orderWire
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%s/%s", id, action), nil, &wire); err != nil {
		return nil, err
	}
	return normalizeOrder(&wire)
}

// Cancel aborts the order with a reason.
func (c *Client) Cancel(ctx context.Context, id, reason string) (*order.Order, error) {
	if id == "" {
		return nil, fmt.Errorf("missing order id")
	}
	body := map[string]string{"reason": reason}

	var wire orderWire
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/orders/%s/cancel", id), body, &wire); err != nil {
		return nil, err
	}
	return normalizeOrder(&wire)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("cannot encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("cannot build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.session != nil {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("order api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Token expired or revoked; discard the session so surfaces can
		// escalate to a re-login prompt.
		if c.session != nil {
			c.session.Logout()
		}
		return &APIError{StatusCode: resp.StatusCode, Message: "session expired"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dest); err != nil {
		return fmt.Errorf("cannot decode order api response: %w", err)
	}
	return nil
}

func readErrorMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, maxBodyBytes)).Decode(&payload); err != nil {
		return ""
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}
