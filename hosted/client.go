// Package hosted is the HTTP client of the hosted back-office service that
// owns charge records, invoices, accounts and collections.
package hosted

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/satheeshds/invoicing/billing"
	"github.com/satheeshds/invoicing/models"
)

const maxBodyBytes = 10 << 20

// APIError is a non-success answer from the hosted service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hosted service returned %d", e.Status)
	}
	return fmt.Sprintf("hosted service returned %d: %s", e.Status, e.Message)
}

// Client talks to the hosted service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a client for baseURL. apiKey is sent as a bearer token when set.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope is the common response body: {success, data, error}. The batch
// endpoint sometimes puts items at the top level instead of under data.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Items   json.RawMessage `json:"items"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	slog.Debug("hosted request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	if resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", billing.ErrMalformedResponse, method, path, decodeErr)
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Error}
	}
	return &env, nil
}

func decodeData[T any](env *envelope, what string) (T, error) {
	var out T
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return out, fmt.Errorf("%w: %s: missing data", billing.ErrMalformedResponse, what)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("%w: %s: %v", billing.ErrMalformedResponse, what, err)
	}
	return out, nil
}

// batchItems normalizes the two shapes of the batch endpoint,
// {data: {items: [...]}} and {items: [...]}, into one list.
func batchItems(env *envelope) ([]models.ChargeRecord, error) {
	var items []models.ChargeRecord
	if len(env.Data) > 0 && string(env.Data) != "null" {
		var nested struct {
			Items []models.ChargeRecord `json:"items"`
		}
		if err := json.Unmarshal(env.Data, &nested); err != nil {
			return nil, fmt.Errorf("%w: batch data: %v", billing.ErrMalformedResponse, err)
		}
		items = nested.Items
	}
	if items == nil && len(env.Items) > 0 {
		if err := json.Unmarshal(env.Items, &items); err != nil {
			return nil, fmt.Errorf("%w: batch items: %v", billing.ErrMalformedResponse, err)
		}
	}
	if items == nil {
		return nil, fmt.Errorf("%w: batch response has no items", billing.ErrMalformedResponse)
	}
	return items, nil
}

// Currency codes are upper-cased on the way in.
func normalizeCharges(records []models.ChargeRecord) []models.ChargeRecord {
	for i := range records {
		records[i].Currency = strings.ToUpper(records[i].Currency)
	}
	return records
}

// ListChargeRecords returns the persisted charges of a project.
func (c *Client) ListChargeRecords(ctx context.Context, projectID string) ([]models.ChargeRecord, error) {
	env, err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/billing-items", nil, nil)
	if err != nil {
		return nil, err
	}
	records, err := decodeData[[]models.ChargeRecord](env, "billing items")
	if err != nil {
		return nil, err
	}
	return normalizeCharges(records), nil
}

// ListQuotationItems returns the accepted quotation lines of a project.
func (c *Client) ListQuotationItems(ctx context.Context, projectID string) ([]models.QuotationItem, error) {
	env, err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/quotation-items", nil, nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeData[[]models.QuotationItem](env, "quotation items")
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Currency = strings.ToUpper(items[i].Currency)
	}
	return items, nil
}

type batchRequest struct {
	Items     []models.NewChargeRecord `json:"items"`
	ProjectID string                   `json:"project_id"`
}

// PromoteCharges persists charges in one batch and returns the created records.
func (c *Client) PromoteCharges(ctx context.Context, projectID string, items []models.NewChargeRecord) ([]models.ChargeRecord, error) {
	env, err := c.do(ctx, http.MethodPost, "/billing-items/batch", nil, batchRequest{Items: items, ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	records, err := batchItems(env)
	if err != nil {
		return nil, err
	}
	return normalizeCharges(records), nil
}

// CreateInvoice creates the invoice; the service posts the journal entry
// when a revenue account is present.
func (c *Client) CreateInvoice(ctx context.Context, req models.CreateInvoiceRequest) (models.CreateInvoiceResult, error) {
	env, err := c.do(ctx, http.MethodPost, "/invoices", nil, req)
	if err != nil {
		return models.CreateInvoiceResult{}, err
	}
	if env.Success == nil {
		return models.CreateInvoiceResult{}, fmt.Errorf("%w: invoice response has no success flag", billing.ErrMalformedResponse)
	}
	return decodeData[models.CreateInvoiceResult](env, "invoice")
}

// ListAccounts returns accounts of the given type, or all accounts when empty.
func (c *Client) ListAccounts(ctx context.Context, accountType string) ([]models.Account, error) {
	q := url.Values{}
	if accountType != "" {
		q.Set("type", accountType)
	}
	env, err := c.do(ctx, http.MethodGet, "/accounts", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.Account](env, "accounts")
}

// ErrNotFound is returned by single-record lookups on 404.
var ErrNotFound = errors.New("not found")

// GetInvoice returns a persisted invoice.
func (c *Client) GetInvoice(ctx context.Context, id string) (models.Invoice, error) {
	env, err := c.do(ctx, http.MethodGet, "/invoices/"+url.PathEscape(id), nil, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return models.Invoice{}, fmt.Errorf("invoice %s: %w", id, ErrNotFound)
		}
		return models.Invoice{}, err
	}
	return decodeData[models.Invoice](env, "invoice")
}

// ListInvoices returns the invoices of a project, or all when projectID is empty.
func (c *Client) ListInvoices(ctx context.Context, projectID string) ([]models.Invoice, error) {
	q := url.Values{}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	env, err := c.do(ctx, http.MethodGet, "/invoices", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.Invoice](env, "invoices")
}

// ListCollections returns payments filtered by invoice or project id.
func (c *Client) ListCollections(ctx context.Context, invoiceID, projectID string) ([]models.Collection, error) {
	q := url.Values{}
	if invoiceID != "" {
		q.Set("invoice_id", invoiceID)
	}
	if projectID != "" {
		q.Set("project_id", projectID)
	}
	env, err := c.do(ctx, http.MethodGet, "/collections", q, nil)
	if err != nil {
		return nil, err
	}
	return decodeData[[]models.Collection](env, "collections")
}
