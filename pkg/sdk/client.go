package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethanbaker/api/pkg/api_types"
)

// Client wraps calls to the bucket admin API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Inventory returns what the bot is holding
func (c *Client) Inventory(ctx context.Context) (*Inventory, error) {
	var out ApiResponse[Inventory]
	if err := c.doJSON(ctx, http.MethodGet, "/api/bucket/inventory", nil, &out); err != nil {
		return nil, err
	}
	if err := checkStatus(out.Status, out.Message, out.Error); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Facts returns every factoid for a fact
func (c *Client) Facts(ctx context.Context, fact string) ([]Factoid, error) {
	path := fmt.Sprintf("/api/bucket/facts/%s", url.PathEscape(fact))

	var out ApiResponse[[]Factoid]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if err := checkStatus(out.Status, out.Message, out.Error); err != nil {
		return nil, err
	}

	return out.Data, nil
}

// ForgetFact deletes a factoid by id and returns what was deleted
func (c *Client) ForgetFact(ctx context.Context, id uint) (*Factoid, error) {
	path := fmt.Sprintf("/api/bucket/facts/%d", id)

	var out ApiResponse[Factoid]
	if err := c.doJSON(ctx, http.MethodDelete, path, nil, &out); err != nil {
		return nil, err
	}
	if err := checkStatus(out.Status, out.Message, out.Error); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// Friend returns the reputation record of a nick
func (c *Client) Friend(ctx context.Context, nick string) (*Friend, error) {
	path := fmt.Sprintf("/api/bucket/friends/%s", url.PathEscape(nick))

	var out ApiResponse[Friend]
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if err := checkStatus(out.Status, out.Message, out.Error); err != nil {
		return nil, err
	}

	return &out.Data, nil
}

// checkStatus turns a non-success response into an error
func checkStatus(status api_types.StatusType, message string, detail any) error {
	switch status {
	case api_types.StatusFail:
		return fmt.Errorf("request failed: %s", message)
	case api_types.StatusError:
		return fmt.Errorf("request error (%s): %v", message, detail)
	}
	return nil
}

// doJSON is a helper to perform JSON requests to the backend
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	// Create request body if input is provided
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	}

	// Create the request
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	// Perform the request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// On error, read body and return error
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("[SDK]: '%s %s' failed: %d: %s", method, path, resp.StatusCode, string(b))
	}

	// If no output expected, return early
	if out == nil {
		return nil
	}

	// Decode the response body into the output struct
	return json.NewDecoder(resp.Body).Decode(out)
}
