package notify

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
)

// ExpoClient posts push messages to an Expo-compatible push endpoint.
type ExpoClient struct {
	endpoint   string
	httpClient *http.Client
}

func NewExpoClient(endpoint string) *ExpoClient {
	if strings.TrimSpace(endpoint) == "" {
		return nil
	}
	return &ExpoClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 8 * time.Second},
	}
}

type pushMessage struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound,omitempty"`
}

func (c *ExpoClient) SendPush(ctx context.Context, tokens []string, title, body string) error {
	if c == nil {
		return errors.New("push client is nil")
	}
	if len(tokens) == 0 {
		return errors.New("no push tokens")
	}

	messages := make([]pushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, pushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Sound: "default",
		})
	}

	raw, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("push marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("push create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("push send failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return nil
}
