// Zammad REST client.
//
// Authentication uses the HTTP token scheme ("Token token=..."). Two HTTP
// clients back the operations: a short-timeout one for plain JSON calls and
// a long-timeout one for attachment transfer, whose base64 bodies can be
// orders of magnitude larger. A token bucket throttles all outbound calls
// so a chatty webhook burst cannot hammer the helpdesk.
package zammad

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-helpdesk-bridge/internal/config"
)

// Client issues authenticated requests against one Zammad instance.
// It is safe for concurrent use.
type Client struct {
	baseURL        string
	token          string
	emailDomain    string
	defaultGroup   string
	attachmentURLs []string

	api      *http.Client // JSON calls, short timeout
	transfer *http.Client // attachment upload/download, long timeout
	limiter  *rate.Limiter
	log      zerolog.Logger
}

// New constructs a Client from configuration.
func New(cfg config.ZammadConfig, log zerolog.Logger) *Client {
	limit := rate.Limit(cfg.RateRPS)
	if cfg.RateRPS <= 0 {
		limit = rate.Inf
	}
	urls := cfg.AttachmentURLTemplates
	if len(urls) == 0 {
		urls = config.DefaultAttachmentURLTemplates
	}
	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		token:          cfg.Token,
		emailDomain:    cfg.CustomerEmailDomain,
		defaultGroup:   cfg.Group,
		attachmentURLs: urls,
		api:            &http.Client{Timeout: cfg.APITimeout},
		transfer:       &http.Client{Timeout: cfg.AttachmentTimeout},
		limiter:        rate.NewLimiter(limit, cfg.RateBurst),
		log:            log,
	}
}

// do performs one authenticated call and decodes a JSON response into out
// (when out is non-nil). Non-2xx responses come back as *APIError.
func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
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
		return err
	}
	req.Header.Set("Authorization", "Token token="+c.token)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &APIError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// CustomerRef identifies the remote customer a new ticket belongs to.
// Login is the synthetic account name; first/last name seed account
// creation when the account does not exist yet.
type CustomerRef struct {
	Login     string
	FirstName string
	LastName  string
	Phone     string
}

// FindOrCreateUser resolves ref.Login to an existing Zammad account or
// creates one with the Customer role. It returns the login usable as the
// ticket customer field.
func (c *Client) FindOrCreateUser(ctx context.Context, ref CustomerRef) (string, error) {
	var found []struct {
		ID    int    `json:"id"`
		Login string `json:"login"`
	}
	q := url.QueryEscape("login:" + ref.Login)
	if err := c.do(ctx, c.api, http.MethodGet, "/api/v1/users/search?query="+q, nil, &found); err != nil {
		return "", err
	}
	if len(found) > 0 {
		return ref.Login, nil
	}

	payload := map[string]any{
		"login":     ref.Login,
		"firstname": ref.FirstName,
		"lastname":  ref.LastName,
		"email":     ref.Login + "@" + c.emailDomain,
		"roles":     []string{"Customer"},
		"active":    true,
	}
	if ref.Phone != "" {
		payload["phone"] = ref.Phone
	}
	if err := c.do(ctx, c.api, http.MethodPost, "/api/v1/users", payload, nil); err != nil {
		return "", err
	}
	c.log.Info().Str("login", ref.Login).Msg("created zammad customer account")
	return ref.Login, nil
}

// TicketRequest describes a ticket to create. Group falls back to the
// client default when empty. When Customer is nil the ticket is filed
// under the configured token identity's default sender.
type TicketRequest struct {
	Title    string
	Body     string
	Group    string
	Customer *CustomerRef
}

// CreateTicket creates a ticket with an initial public note article.
func (c *Client) CreateTicket(ctx context.Context, req TicketRequest) (*Ticket, error) {
	group := req.Group
	if group == "" {
		group = c.defaultGroup
	}

	payload := map[string]any{
		"title": req.Title,
		"group": group,
		"article": map[string]any{
			"subject":  req.Title,
			"body":     req.Body,
			"type":     "note",
			"internal": false,
		},
	}
	if req.Customer != nil {
		login, err := c.FindOrCreateUser(ctx, *req.Customer)
		if err != nil {
			return nil, err
		}
		payload["customer"] = login
	}

	var t Ticket
	if err := c.do(ctx, c.api, http.MethodPost, "/api/v1/tickets", payload, &t); err != nil {
		return nil, err
	}
	c.log.Info().Int("ticket_id", t.ID).Str("number", t.Number).Msg("created zammad ticket")
	return &t, nil
}

// GetTicket reads a ticket. A remote 404 maps to ErrTicketNotFound, the
// distinguished "record no longer exists" outcome.
func (c *Client) GetTicket(ctx context.Context, id int) (*TicketDetails, error) {
	var t TicketDetails
	err := c.do(ctx, c.api, http.MethodGet, fmt.Sprintf("/api/v1/tickets/%d", id), nil, &t)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &t, nil
}

// CloseTicket sets the ticket state to closed and records who asked for it
// in an internal audit note. A remote 404 maps to ErrTicketNotFound so
// callers can treat an already-deleted ticket as closed.
func (c *Client) CloseTicket(ctx context.Context, id int, actorName string) error {
	payload := map[string]any{
		"state": "closed",
		"article": map[string]any{
			"body":     fmt.Sprintf("Ticket closed on request of %s via Telegram.", actorName),
			"type":     "note",
			"internal": true,
		},
	}
	err := c.do(ctx, c.api, http.MethodPut, fmt.Sprintf("/api/v1/tickets/%d", id), payload, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return ErrTicketNotFound
	}
	return err
}

// AddNote appends a public note article to an existing ticket.
func (c *Client) AddNote(ctx context.Context, id int, actorName, text string) error {
	payload := map[string]any{
		"ticket_id": id,
		"subject":   fmt.Sprintf("Message from %s", actorName),
		"body":      text,
		"type":      "note",
		"internal":  false,
		"sender":    "Customer",
	}
	return c.do(ctx, c.api, http.MethodPost, "/api/v1/ticket_articles", payload, nil)
}

// AddAttachment delivers file content as a base64 inline attachment on a
// ticket update. Direct multipart article creation proved unreliable
// against some deployments, so the larger inline body is the accepted
// trade-off.
func (c *Client) AddAttachment(ctx context.Context, id int, actorName string, data []byte, filename, caption string) error {
	if caption == "" {
		caption = fmt.Sprintf("File %s from %s", filename, actorName)
	}
	mimeType := http.DetectContentType(data)
	payload := map[string]any{
		"article": map[string]any{
			"subject":  fmt.Sprintf("Attachment from %s", actorName),
			"body":     caption,
			"type":     "note",
			"internal": false,
			"attachments": []map[string]any{
				{
					"filename":  filename,
					"data":      base64.StdEncoding.EncodeToString(data),
					"mime-type": mimeType,
				},
			},
		},
	}
	return c.do(ctx, c.transfer, http.MethodPut, fmt.Sprintf("/api/v1/tickets/%d", id), payload, nil)
}

// ListAttachments returns attachment metadata of one article.
func (c *Client) ListAttachments(ctx context.Context, articleID int) ([]AttachmentMeta, error) {
	var article struct {
		Attachments []AttachmentMeta `json:"attachments"`
	}
	err := c.do(ctx, c.api, http.MethodGet, fmt.Sprintf("/api/v1/ticket_articles/%d", articleID), nil, &article)
	if err != nil {
		return nil, err
	}
	return article.Attachments, nil
}

// DownloadAttachment fetches attachment content, trying each configured
// URL shape in order. The first success wins; a failing candidate falls
// through silently to the next. When every candidate fails the result is
// ErrAttachmentUnavailable.
func (c *Client) DownloadAttachment(ctx context.Context, articleID, attachmentID int) ([]byte, error) {
	for _, tmpl := range c.attachmentURLs {
		path := strings.NewReplacer(
			"{article}", fmt.Sprint(articleID),
			"{attachment}", fmt.Sprint(attachmentID),
		).Replace(tmpl)

		data, err := c.fetchRaw(ctx, path)
		if err == nil {
			return data, nil
		}
		c.log.Debug().Str("path", path).Err(err).Msg("attachment candidate failed")
	}
	return nil, ErrAttachmentUnavailable
}

// fetchRaw performs an authenticated GET returning the raw body.
func (c *Client) fetchRaw(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Token token="+c.token)

	resp, err := c.transfer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: resp.Status}
	}
	return io.ReadAll(resp.Body)
}
