package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"github.com/moodtide/moodtide/internal/core/model"
	"github.com/moodtide/moodtide/internal/util"
)

const defaultTimeout = 15 * time.Second

// ErrUnexpectedStatus is returned when the remote store answers with a
// non-2xx status code.
var ErrUnexpectedStatus = errors.New("unexpected status code")

// Client talks to the remote day-record store over HTTP. It is safe for
// concurrent use; per-hour saves may be in flight at the same time.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the store rooted at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// hourPayload is the wire shape of one hour entry in the day snapshot.
type hourPayload struct {
	Hour  int     `json:"hour"`
	Mood  *int    `json:"mood"`
	Notes *string `json:"notes"`
}

// savePayload is the body of a single-hour save request.
type savePayload struct {
	Date  string  `json:"date"`
	Hour  int     `json:"hour"`
	Mood  *int    `json:"mood"`
	Notes *string `json:"notes"`
}

// FetchDay requests the snapshot of records stored for the given day. The
// result is partial: hours with no stored record are simply absent.
func (c *Client) FetchDay(ctx context.Context, day model.DayKey) ([]model.HourUpsert, error) {
	endpoint := fmt.Sprintf("%s/api/day?date=%s", c.baseURL, url.QueryEscape(day.ISO()))
	util.LogDebugf("Fetching day snapshot from %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch day %s: %w", day.ISO(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var payload []hourPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse day snapshot: %w", err)
	}

	upserts := make([]model.HourUpsert, 0, len(payload))
	for _, p := range payload {
		up := model.HourUpsert{Hour: p.Hour, Mood: p.Mood}
		if p.Notes != nil {
			up.Notes = *p.Notes
		}
		upserts = append(upserts, up)
	}

	util.LogDebugf("Loaded %d stored hours for %s", len(upserts), day.ISO())
	return upserts, nil
}

// SaveHour persists the full current content of one hour record. Empty
// notes are sent as null, matching what the store expects.
func (c *Client) SaveHour(ctx context.Context, day model.DayKey, hour int, mood *int, notes string) error {
	payload := savePayload{
		Date: day.ISO(),
		Hour: hour,
		Mood: mood,
	}
	if notes != "" {
		payload.Notes = &notes
	}

	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode save payload: %w", err)
	}

	endpoint := c.baseURL + "/api/day"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to save hour %d of %s: %w", hour, day.ISO(), err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	return nil
}
