package control

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type Client struct {
	addr string
	http *http.Client
}

func NewClient(addr string) *Client {
	return &Client{addr: addr, http: &http.Client{Timeout: 5 * time.Second}}
}

// Trigger asks the running instance for an immediate crawl cycle.
func (c *Client) Trigger() error {
	var r struct {
		Status string `json:"status"`
	}
	if err := c.post("/crawl", nil, &r); err != nil {
		return err
	}
	if r.Status != "initiated" {
		return fmt.Errorf("unexpected crawl status %q", r.Status)
	}
	return nil
}

func (c *Client) SetInterval(d time.Duration) (time.Duration, error) {
	var r struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := c.post("/set-interval", map[string]any{"duration": d.String()}, &r); err != nil {
		return 0, err
	}
	if r.Old == "" {
		return 0, nil
	}
	old, err := time.ParseDuration(r.Old)
	if err != nil {
		return 0, fmt.Errorf("bad response: %w", err)
	}
	return old, nil
}

// SetConcurrency returns the previous feed and item limits.
func (c *Client) SetConcurrency(feeds, items int) (int, int, error) {
	var r struct {
		Old concurrency `json:"old"`
	}
	if err := c.post("/set-concurrency", concurrency{Feeds: feeds, Items: items}, &r); err != nil {
		return 0, 0, err
	}
	return r.Old.Feeds, r.Old.Items, nil
}

func (c *Client) post(path string, in, out any) error {
	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return err
		}
	}
	resp, err := c.http.Post("http://"+c.addr+path, "application/json", &body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error != "" {
			return fmt.Errorf("server error: %s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
