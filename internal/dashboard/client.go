package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
)

// Client talks to the ecobin API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Health returns nil when the API answers its health check.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) Bin(ctx context.Context) (*BinView, error) {
	var out BinView
	if err := c.do(ctx, http.MethodGet, "/bin", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ToggleLid(ctx context.Context) (*BinView, error) {
	var out BinView
	if err := c.do(ctx, http.MethodPost, "/bin/lid/toggle", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Empty(ctx context.Context) (*BinView, error) {
	var out BinView
	if err := c.do(ctx, http.MethodPost, "/bin/empty", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Weekly(ctx context.Context) ([]domain.DayCount, error) {
	var out []domain.DayCount
	if err := c.do(ctx, http.MethodGet, "/stats/weekly", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Compare(ctx context.Context) (*domain.TodayVsYesterday, error) {
	var out domain.TodayVsYesterday
	if err := c.do(ctx, http.MethodGet, "/stats/compare", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) History(ctx context.Context) ([]domain.UsageLog, error) {
	var out []domain.UsageLog
	if err := c.do(ctx, http.MethodGet, "/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Assistant(ctx context.Context) (*AssistantInfo, error) {
	var out AssistantInfo
	if err := c.do(ctx, http.MethodGet, "/assistant", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Chat(ctx context.Context, in ChatRequest) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/assistant/chat", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Maintenance(ctx context.Context) (*Maintenance, error) {
	var out Maintenance
	if err := c.do(ctx, http.MethodGet, "/maintenance", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ArchiveReport(ctx context.Context) (*ArchivedReport, error) {
	var out ArchivedReport
	if err := c.do(ctx, http.MethodPost, "/reports/weekly", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// APIError carries the API's {"error": ...} body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// IsUnavailable reports whether err is the API saying a feature is switched off.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable
}
