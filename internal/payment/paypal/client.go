// Package paypal talks to the PayPal v1 payments REST API.
package paypal

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
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenTimeout          = 10 * time.Second
	defaultExecuteTimeout = 30 * time.Second
)

var (
	ErrNoApprovalURL = errors.New("paypal: payment has no approval_url link")
	ErrNotApproved   = errors.New("paypal: payment not approved")
)

// APIError carries the gateway's error response.
type APIError struct {
	StatusCode int
	Name       string `json:"name"`
	Message    string `json:"message"`
	DebugID    string `json:"debug_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal: %d %s: %s (debug_id=%s)", e.StatusCode, e.Name, e.Message, e.DebugID)
}

type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	Currency       string
	ExecuteTimeout time.Duration
	HTTPClient     *http.Client
}

type Client struct {
	baseURL        string
	currency       string
	executeTimeout time.Duration
	http           *http.Client
	creds          *clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

func NewClient(cfg Config) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	exec := cfg.ExecuteTimeout
	if exec <= 0 {
		exec = defaultExecuteTimeout
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "USD"
	}
	return &Client{
		baseURL:        base,
		currency:       currency,
		executeTimeout: exec,
		http:           hc,
		creds: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     base + "/v1/oauth2/token",
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}
}

// accessToken reuses a cached token until it expires. Fetching a fresh one is
// bounded by its own timeout, independent of the caller's deadline.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token.AccessToken, nil
	}

	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()
	tok, err := c.creds.Token(context.WithValue(ctx, oauth2.HTTPClient, c.http))
	if err != nil {
		return "", fmt.Errorf("paypal: token: %w", err)
	}
	c.token = tok
	return tok.AccessToken, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("paypal: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paypal: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		if resp.StatusCode == http.StatusUnauthorized {
			c.mu.Lock()
			c.token = nil
			c.mu.Unlock()
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("paypal: decode response: %w", err)
	}
	return nil
}

type CreateRequest struct {
	Total       decimal.Decimal
	Description string
	ReturnURL   string
	CancelURL   string
}

type Payment struct {
	ID          string
	State       string
	ApprovalURL string
}

type link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type paymentResource struct {
	ID           string `json:"id"`
	State        string `json:"state"`
	Links        []link `json:"links"`
	Transactions []struct {
		Amount           amount `json:"amount"`
		RelatedResources []struct {
			Sale *struct {
				ID    string `json:"id"`
				State string `json:"state"`
			} `json:"sale"`
		} `json:"related_resources"`
	} `json:"transactions"`
}

// CreatePayment registers a sale and returns the URL the buyer must visit to
// approve it.
func (c *Client) CreatePayment(ctx context.Context, req CreateRequest) (*Payment, error) {
	body := map[string]any{
		"intent": "sale",
		"payer":  map[string]any{"payment_method": "paypal"},
		"redirect_urls": map[string]any{
			"return_url": req.ReturnURL,
			"cancel_url": req.CancelURL,
		},
		"transactions": []map[string]any{{
			"amount":      amount{Total: req.Total.StringFixed(2), Currency: c.currency},
			"description": req.Description,
		}},
	}

	var res paymentResource
	if err := c.do(ctx, http.MethodPost, "/v1/payments/payment", body, &res); err != nil {
		return nil, err
	}

	p := &Payment{ID: res.ID, State: res.State}
	for _, l := range res.Links {
		if l.Rel == "approval_url" {
			p.ApprovalURL = l.Href
		}
	}
	if p.ApprovalURL == "" {
		return nil, ErrNoApprovalURL
	}
	return p, nil
}

type Execution struct {
	PaymentID string
	State     string
	SaleID    string
}

// ExecutePayment captures an approved payment. The call is bounded by the
// configured execute timeout.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (*Execution, error) {
	ctx, cancel := context.WithTimeout(ctx, c.executeTimeout)
	defer cancel()

	var res paymentResource
	path := "/v1/payments/payment/" + url.PathEscape(paymentID) + "/execute"
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"payer_id": payerID}, &res); err != nil {
		return nil, err
	}
	if res.State != "approved" {
		return nil, fmt.Errorf("%w: state %q", ErrNotApproved, res.State)
	}

	ex := &Execution{PaymentID: res.ID, State: res.State}
	for _, tr := range res.Transactions {
		for _, rr := range tr.RelatedResources {
			if rr.Sale != nil && ex.SaleID == "" {
				ex.SaleID = rr.Sale.ID
			}
		}
	}
	return ex, nil
}
