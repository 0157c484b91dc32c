// Package probe is an HTTP client for the field soil probe. The probe runs
// a small web server on its own access point and serves start/stop controls
// plus an index of finished logs.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/soillog/soillog-go/internal/ingest"
)

// DefaultBaseURL is the probe's address on its own access point.
const DefaultBaseURL = "http://192.168.4.1"

// DefaultTimeout bounds every request to the probe.
const DefaultTimeout = 5 * time.Second

// Status is the coarse connection state surfaced to the user.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// CommandResult is the probe's response to a start/stop command. The stop
// endpoint sometimes answers in plain text; that is wrapped into a success
// envelope with the raw body preserved.
type CommandResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// Client is an HTTP client for a probe at a fixed base URL.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a probe client with the default timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// get performs a GET against the probe and returns the raw body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to probe failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read probe response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// StartLogging tells the probe to begin a logging run.
func (c *Client) StartLogging(ctx context.Context) (*CommandResult, error) {
	body, err := c.get(ctx, "/start")
	if err != nil {
		return nil, err
	}
	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse start response: %w", err)
	}
	slog.Info("probe_logging_started", "status", result.Status)
	return &result, nil
}

// StopLogging tells the probe to end the current logging run. A plain-text
// response body is tolerated and wrapped in a success envelope.
func (c *Client) StopLogging(ctx context.Context) (*CommandResult, error) {
	body, err := c.get(ctx, "/end")
	if err != nil {
		return nil, err
	}
	var result CommandResult
	if err := json.Unmarshal(body, &result); err != nil {
		slog.Debug("probe_stop_plaintext", "body", string(body))
		return &CommandResult{Status: "ok", Raw: string(body)}, nil
	}
	slog.Info("probe_logging_stopped", "status", result.Status)
	return &result, nil
}

// ListLogs fetches the index of finished logs. A response whose logs array
// is missing or malformed degrades to an empty list.
func (c *Client) ListLogs(ctx context.Context) ([]string, error) {
	body, err := c.get(ctx, "/getAllLogs")
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Logs []string `json:"logs"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		slog.Warn("probe_log_index_malformed", "error", err)
		return nil, nil
	}
	return envelope.Logs, nil
}

// FetchLog downloads one finished log by name. A file extension on the
// name is stripped before building the request.
func (c *Client) FetchLog(ctx context.Context, name string) (*ingest.LogPayload, error) {
	id := strings.SplitN(name, ".", 2)[0]
	body, err := c.get(ctx, "/getLogId/"+id)
	if err != nil {
		return nil, err
	}
	var payload ingest.LogPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse log %q: %w", name, err)
	}
	slog.Info("probe_log_fetched", "log", id, "readings", len(payload.Data))
	return &payload, nil
}

// IsReachable reports whether the probe answers at all.
func (c *Client) IsReachable(ctx context.Context) bool {
	_, err := c.ListLogs(ctx)
	return err == nil
}

// Check performs one request and maps the outcome to a connection status.
// Unreachable or timed-out probes report disconnected; an answering probe
// that returns a bad response reports error.
func (c *Client) Check(ctx context.Context) Status {
	_, err := c.ListLogs(ctx)
	if err == nil {
		return StatusConnected
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return StatusDisconnected
	}
	return StatusError
}
