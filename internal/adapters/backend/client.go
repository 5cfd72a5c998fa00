package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pet-run-board/internal/domain/runboard"
	"pet-run-board/internal/platform/httpclient"
)

var (
	ErrNotConfigured = errors.New("backend client not configured")

	// ErrSchema: el backend respondió 2xx con una forma que no esperamos.
	ErrSchema = errors.New("backend response schema mismatch")
)

// Config del cliente del backend de asignaciones (BACKEND_URL, BACKEND_API_KEY).
type Config struct {
	BaseURL string
	APIKey  string

	// OperatorID se manda como X-Debug-User-ID (modo dev) cuando no hay token.
	OperatorID string
	Token      string

	Timeout time.Duration
}

// Client implementa runboard.Gateway y runboard.Roster sobre HTTP.
type Client struct {
	http    *httpclient.Client
	headers map[string]string
}

var (
	_ runboard.Gateway = (*Client)(nil)
	_ runboard.Roster  = (*Client)(nil)
)

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = runboard.DefaultGatewayTimeout
	}

	hc, err := httpclient.NewWithBaseURL(base, timeout)
	if err != nil {
		return nil, err
	}
	hc.Strict = true

	headers := map[string]string{}
	if k := strings.TrimSpace(cfg.APIKey); k != "" {
		headers["X-Api-Key"] = k
	}
	if t := strings.TrimSpace(cfg.Token); t != "" {
		headers["Authorization"] = "Bearer " + t
	} else if op := strings.TrimSpace(cfg.OperatorID); op != "" {
		headers["X-Debug-User-ID"] = op
	}

	return &Client{http: hc, headers: headers}, nil
}

func (c *Client) FetchForDate(ctx context.Context, date string) (runboard.BoardPayload, error) {
	var out boardWire
	if err := c.do(ctx, http.MethodGet, boardPath(date), nil, &out); err != nil {
		return runboard.BoardPayload{}, err
	}
	return out.toPayloadFor(date)
}

func (c *Client) AvailableSlots(ctx context.Context, runID, date string) ([]runboard.Window, error) {
	var out slotsWire
	if err := c.do(ctx, http.MethodGet, boardPath(date)+"/runs/"+url.PathEscape(runID)+"/slots", nil, &out); err != nil {
		return nil, err
	}
	return out.toWindows()
}

func (c *Client) SaveAll(ctx context.Context, date string, items []runboard.Assignment) (runboard.BoardPayload, error) {
	body := saveBoardBody{Assignments: make([]assignmentBody, 0, len(items))}
	for _, a := range items {
		body.Assignments = append(body.Assignments, toAssignmentBody(a))
	}

	var out boardWire
	if err := c.do(ctx, http.MethodPut, boardPath(date), body, &out); err != nil {
		return runboard.BoardPayload{}, err
	}
	return out.toPayloadFor(date)
}

func (c *Client) CreateAssignment(ctx context.Context, date string, a runboard.Assignment) (runboard.Assignment, error) {
	var out assignmentWire
	path := boardPath(date) + "/runs/" + url.PathEscape(a.RunID) + "/assignments"
	if err := c.do(ctx, http.MethodPost, path, toAssignmentBody(a), &out); err != nil {
		return runboard.Assignment{}, err
	}
	return out.toAssignment()
}

func (c *Client) DeleteAssignment(ctx context.Context, date, runID, ref string) error {
	path := boardPath(date) + "/runs/" + url.PathEscape(runID) + "/assignments/" + url.PathEscape(ref)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) CheckedIn(ctx context.Context, date string) ([]runboard.Pet, error) {
	var out rosterWire
	if err := c.do(ctx, http.MethodGet, "/roster/"+url.PathEscape(date), nil, &out); err != nil {
		return nil, err
	}
	return out.toPets()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	err := c.http.DoJSON(ctx, method, path, c.headers, in, out)
	if errors.Is(err, httpclient.ErrDecode) {
		return fmt.Errorf("%w: %v", ErrSchema, err)
	}
	return err
}

func boardPath(date string) string {
	return "/boards/" + url.PathEscape(date)
}
