// Package client is a small HTTP client for the warden control API.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/loykin/warden/internal/supervisor"
)

// Client talks to a running warden daemon over its control API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for baseURL (e.g. "http://127.0.0.1:8900").
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8900"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// IsReachable checks if the daemon is running and reachable.
func (c *Client) IsReachable() bool {
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode != http.StatusNotFound
}

// Status fetches the supervisor snapshot.
func (c *Client) Status() (supervisor.Status, error) {
	var st supervisor.Status
	resp, err := c.client.Get(c.baseURL + "/status")
	if err != nil {
		return st, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return st, decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, err
	}
	return st, nil
}

// Restart asks the daemon to relaunch the worker.
func (c *Client) Restart() error {
	resp, err := c.client.Post(c.baseURL+"/restart", "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Stop asks the daemon to shut down.
func (c *Client) Stop() error {
	resp, err := c.client.Post(c.baseURL+"/stop", "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	return nil
}

// Events fetches recent lifecycle events as raw JSON.
func (c *Client) Events(limit int) (json.RawMessage, error) {
	url := c.baseURL + "/events"
	if limit > 0 {
		url += "?limit=" + strconv.Itoa(limit)
	}
	resp, err := c.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeError(resp *http.Response) error {
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errorResp.Error)
}
