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
	"strings"
	"time"

	"MiniBakery/internal/bakery"
)

var (
	ErrNotFound     = errors.New("bakery: not found")
	ErrUnauthorized = errors.New("bakery: unauthorized")
	ErrBadStatus    = errors.New("bakery: bad status")
	ErrUnavailable  = errors.New("bakery: unavailable")
)

type Good = bakery.GoodView

type Stock struct {
	Type              string  `json:"type"`
	Price             float64 `json:"price"`
	QuantityRemaining int     `json:"quantity_remaining"`
	InventoryValue    float64 `json:"inventory_value"`
}

// Client talks to the bakery HTTP API. Token is sent as a bearer token
// when set; Login fills it in.
type Client struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func New(baseURL string) *Client {
	if u, err := url.Parse(baseURL); err == nil && u.Scheme != "" && u.Host != "" {
		baseURL = strings.TrimRight(baseURL, "/")
	}
	return &Client{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) error {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return err
	}
	c.Token = out.AccessToken
	return nil
}

func (c *Client) SetPrice(ctx context.Context, kind string, amount float64) (float64, error) {
	var out struct {
		Price float64 `json:"price"`
	}
	err := c.do(ctx, http.MethodPut, "/prices/"+url.PathEscape(kind), map[string]float64{"amount": amount}, &out)
	return out.Price, err
}

func (c *Client) AskPrice(ctx context.Context, kind string) (float64, error) {
	var out struct {
		Price float64 `json:"price"`
	}
	err := c.do(ctx, http.MethodGet, "/prices/"+url.PathEscape(kind), nil, &out)
	return out.Price, err
}

func (c *Client) Produce(ctx context.Context, kind string) (Good, error) {
	var g Good
	err := c.do(ctx, http.MethodPost, "/goods/"+url.PathEscape(kind), nil, &g)
	return g, err
}

func (c *Client) Stock(ctx context.Context, kind string) (Stock, error) {
	var s Stock
	err := c.do(ctx, http.MethodGet, "/goods/"+url.PathEscape(kind)+"/stock", nil, &s)
	return s, err
}

// RetrieveOldest returns ok=false when nothing of the type is available.
func (c *Client) RetrieveOldest(ctx context.Context, kind string) (Good, bool, error) {
	var g Good
	err := c.do(ctx, http.MethodGet, "/goods/"+url.PathEscape(kind)+"/oldest", nil, &g)
	if errors.Is(err, ErrNotFound) {
		return Good{}, false, nil
	}
	if err != nil {
		return Good{}, false, err
	}
	return g, true, nil
}

func (c *Client) PurchaseOne(ctx context.Context, kind string) (Good, error) {
	var g Good
	err := c.do(ctx, http.MethodPost, "/goods/"+url.PathEscape(kind)+"/purchase", nil, &g)
	return g, err
}

func (c *Client) PurchaseMany(ctx context.Context, kind string, quantity int) ([]Good, error) {
	var out []Good
	err := c.do(ctx, http.MethodPost, "/goods/"+url.PathEscape(kind)+"/purchase", map[string]int{"quantity": quantity}, &out)
	return out, err
}

func (c *Client) Consume(ctx context.Context, id string) (bool, error) {
	var out struct {
		Consumed bool `json:"consumed"`
	}
	err := c.do(ctx, http.MethodPost, "/items/"+url.PathEscape(id)+"/consume", nil, &out)
	return out.Consumed, err
}

func (c *Client) InspectRegister(ctx context.Context) (float64, error) {
	var out struct {
		Total float64 `json:"total"`
	}
	err := c.do(ctx, http.MethodGet, "/register", nil, &out)
	return out.Total, err
}

func (c *Client) Summary(ctx context.Context) (bakery.Summary, error) {
	var s bakery.Summary
	err := c.do(ctx, http.MethodGet, "/bakery", nil, &s)
	return s, err
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return statusError(resp.StatusCode, eb.Error)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// statusError maps API failures back onto the bakery error taxonomy.
func statusError(status int, msg string) error {
	switch {
	case status == http.StatusBadRequest && msg == bakery.ErrInvalidArgument.Error():
		return bakery.ErrInvalidArgument
	case status == http.StatusNotFound && msg == bakery.ErrUnknownGood.Error():
		return bakery.ErrUnknownGood
	case status == http.StatusConflict:
		return bakery.ErrInsufficientStock
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrUnauthorized
	default:
		return fmt.Errorf("%w: status=%d error=%q", ErrBadStatus, status, msg)
	}
}
