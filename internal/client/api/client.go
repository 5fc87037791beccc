// Package api is the CLI's client for the back-office REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fabrica-p6f5/backoffice/internal/common"
	"github.com/sethvargo/go-retry"
)

const (
	apiPrefix      = "/api/v1"
	maxReadRetries = 3
	retryBase      = 200 * time.Millisecond
)

// TokenStore persists the session tokens between calls.
type TokenStore interface {
	Tokens(ctx context.Context) (access, refresh string, err error)
	SaveTokens(ctx context.Context, access, refresh string) error
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	backoff func() retry.Backoff
}

func New(baseURL string, timeout time.Duration, tokens TokenStore) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			// presigned document links are returned to the caller, not followed
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		tokens: tokens,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxReadRetries, retry.NewExponential(retryBase))
		},
	}
}

type request struct {
	method      string
	path        string
	contentType string
	body        []byte
	auth        bool
}

func jsonRequest(method, path string, in any, auth bool) (request, error) {
	r := request{method: method, path: path, auth: auth}
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return r, fmt.Errorf("encode request: %w", err)
		}
		r.body = b
		r.contentType = "application/json"
	}
	return r, nil
}

func (c *Client) send(ctx context.Context, r request, accessToken string) (*http.Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return nil, err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, "Bearer "+accessToken)
	}
	return c.http.Do(req)
}

// sendWithRetry retries reads on transport failures and gateway errors.
func (c *Client) sendWithRetry(ctx context.Context, r request, accessToken string) (*http.Response, error) {
	if r.method != http.MethodGet {
		return c.send(ctx, r, accessToken)
	}

	var resp *http.Response
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		res, err := c.send(ctx, r, accessToken)
		if err != nil {
			return retry.RetryableError(err)
		}
		switch res.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			res.Body.Close()
			return retry.RetryableError(fmt.Errorf("server returned %s", res.Status))
		}
		resp = res
		return nil
	})
	return resp, err
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	b, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(b, apiErr); err != nil || apiErr.Kind == "" {
		apiErr.Kind = strings.ToLower(strings.ReplaceAll(http.StatusText(resp.StatusCode), " ", "_"))
		apiErr.Message = strings.TrimSpace(string(b))
	}
	return apiErr
}

// do sends r and returns a successful response. An authenticated request
// that is rejected with 401 is retried once after rotating the tokens.
func (c *Client) do(ctx context.Context, r request) (*http.Response, error) {
	var access, refresh string
	if r.auth {
		var err error
		if access, refresh, err = c.tokens.Tokens(ctx); err != nil {
			return nil, err
		}
		if access == "" {
			return nil, fmt.Errorf("not logged in: %w", common.ErrorUnauthorized)
		}
	}

	resp, err := c.sendWithRetry(ctx, r, access)
	if err != nil {
		return nil, err
	}

	if r.auth && resp.StatusCode == http.StatusUnauthorized && refresh != "" {
		resp.Body.Close()
		pair, err := c.Refresh(ctx, refresh)
		if err != nil {
			return nil, err
		}
		if resp, err = c.sendWithRetry(ctx, r, pair.AccessToken); err != nil {
			return nil, err
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp, nil
}

func (c *Client) doJSON(ctx context.Context, r request, out any) error {
	resp, err := c.do(ctx, r)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, in, out any, auth bool) error {
	r, err := jsonRequest(method, path, in, auth)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, r, out)
}

func idPath(prefix string, id int64) string {
	return prefix + "/" + strconv.FormatInt(id, 10)
}

func withStatus(path, status string) string {
	if status == "" {
		return path
	}
	return path + "?" + url.Values{"status": {status}}.Encode()
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, username, password string) (*User, error) {
	var u User
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/register", credentials{username, password}, &u, false); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	var p TokenPair
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/login", credentials{username, password}, &p, false); err != nil {
		return nil, err
	}
	return &p, nil
}

// Refresh rotates the refresh token and stores the new pair.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var p TokenPair
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/auth/refresh", body, &p, false); err != nil {
		return nil, err
	}
	if err := c.tokens.SaveTokens(ctx, p.AccessToken, p.RefreshToken); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, http.MethodPost, apiPrefix+"/auth/logout", nil, nil, true)
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, http.MethodGet, apiPrefix+"/me", nil, &u, true); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) CreateInvoice(ctx context.Context, in DraftRequest) (*Invoice, error) {
	var inv Invoice
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/invoices", in, &inv, true); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) UpdateInvoice(ctx context.Context, id int64, in DraftRequest) (*Invoice, error) {
	var inv Invoice
	if err := c.call(ctx, http.MethodPut, idPath(apiPrefix+"/invoices", id), in, &inv, true); err != nil {
		return nil, err
	}
	return &inv, nil
}

// IssueInvoice issues the invoice. Only calls sharing a non-empty requestID
// are deduplicated by the server.
func (c *Client) IssueInvoice(ctx context.Context, id int64, requestID string) (*Invoice, error) {
	var body any
	if requestID != "" {
		body = map[string]string{"requestId": requestID}
	}
	var inv Invoice
	if err := c.call(ctx, http.MethodPost, idPath(apiPrefix+"/invoices", id)+"/issue", body, &inv, true); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	if err := c.call(ctx, http.MethodGet, idPath(apiPrefix+"/invoices", id), nil, &inv, true); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *Client) ListInvoices(ctx context.Context, status string) ([]Invoice, error) {
	var list []Invoice
	if err := c.call(ctx, http.MethodGet, withStatus(apiPrefix+"/invoices", status), nil, &list, true); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) InvoiceHistory(ctx context.Context, id int64) ([]HistoryEntry, error) {
	var list []HistoryEntry
	if err := c.call(ctx, http.MethodGet, idPath(apiPrefix+"/invoices", id)+"/history", nil, &list, true); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) ListShipments(ctx context.Context, status string) ([]Shipment, error) {
	var list []Shipment
	if err := c.call(ctx, http.MethodGet, withStatus(apiPrefix+"/shipments", status), nil, &list, true); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *Client) GetShipment(ctx context.Context, id int64) (*Shipment, error) {
	var s Shipment
	if err := c.call(ctx, http.MethodGet, idPath(apiPrefix+"/shipments", id), nil, &s, true); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateShipment(ctx context.Context, reference string) (*Shipment, error) {
	var s Shipment
	body := map[string]string{"reference": reference}
	if err := c.call(ctx, http.MethodPost, apiPrefix+"/shipments", body, &s, true); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*Document, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	r := request{
		method:      http.MethodPost,
		path:        apiPrefix + "/documents",
		contentType: w.FormDataContentType(),
		body:        buf.Bytes(),
		auth:        true,
	}
	var doc Document
	if err := c.doJSON(ctx, r, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DocumentURL returns the short-lived download link of a document.
func (c *Client) DocumentURL(ctx context.Context, id int64) (string, error) {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: idPath(apiPrefix+"/documents", id), auth: true})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", errors.New("server did not return a document link")
	}
	return loc, nil
}
