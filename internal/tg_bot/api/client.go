package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// jsonClient issues GET requests against a JSON API.
type jsonClient struct {
	name      string       // API name used in logs.
	endpoint  string       // Base URL without a trailing slash.
	userAgent string       // User-Agent header, sent when not empty.
	client    *http.Client // HTTP client
}

func newJSONClient(name, endpoint, userAgent string, timeout time.Duration) jsonClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return jsonClient{
		name:      name,
		endpoint:  trimSlash(endpoint),
		userAgent: userAgent,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// getJSON fetches path with the given query and decodes the response body into out.
func (c jsonClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.client.Timeout)
	defer cancel()

	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		err = fmt.Errorf("failed to create request: %w", err)
		logrus.WithError(err).Errorf("Error creating %s request", c.name)
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.client.Do(req)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to execute %s request to %s", c.name, c.endpoint+path)
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err = res.Body.Close(); err != nil {
			logrus.WithError(err).Errorf("Failed to close response body: %v", err)
		}
	}()

	if res.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		err = fmt.Errorf("unexpected status code: %d, body: %s", res.StatusCode, string(data))
		logrus.WithError(err).Errorf("%s failed with status: %s", c.name, res.Status)
		return err
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		logrus.WithError(err).Errorf("Failed to read %s response", c.name)
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err = json.Unmarshal(data, out); err != nil {
		logrus.WithError(err).Errorf("Failed to unmarshal %s response", c.name)
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
