package ai

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

// ErrUnavailable marks the external capability as absent or unreachable.
// Callers degrade to a structured failure response instead of propagating.
var ErrUnavailable = errors.New("ai service unavailable")

const systemPrompt = `Eres un experto estilista y consultor de imagen especializado en cortes de cabello.
Analiza la forma del rostro del cliente y responde SIEMPRE en este formato:
FORMA_DEL_ROSTRO: [ovalada/redonda/cuadrada/rectangular/corazon/diamante/triangular]

RECOMENDACIONES:
1. [Nombre del corte] - [Por que funciona]
2. [Nombre del corte] - [Por que funciona]
3. [Nombre del corte] - [Por que funciona]

ANALISIS_DETALLADO:
[2-3 oraciones sobre los rasgos faciales]

CONSEJOS_ADICIONALES:
[1-2 tips de styling o mantenimiento]`

const scanUserPrompt = "Analiza esta foto de mi rostro y recomiendame los mejores estilos de corte de cabello que complementen mis rasgos faciales. Proporciona al menos 3 recomendaciones especificas."

// Client talks to an OpenAI-compatible endpoint for face analysis and photo
// editing. A nil client means the capability is not configured.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey, model string) *Client {
	if strings.TrimSpace(baseURL) == "" || strings.TrimSpace(apiKey) == "" {
		return nil
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StripDataURL removes a "data:image/...;base64," prefix if present.
func StripDataURL(image string) string {
	if idx := strings.Index(image, "base64,"); idx >= 0 {
		return image[idx+len("base64,"):]
	}
	return image
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the image to the LLM and returns the parsed haircut scan.
func (c *Client) Analyze(ctx context.Context, imageBase64 string) (ScanResult, error) {
	if c == nil {
		return ScanResult{}, ErrUnavailable
	}

	image := StripDataURL(imageBase64)
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: scanUserPrompt},
				{Type: "image_url", ImageURL: &imageURL{URL: "data:image/jpeg;base64," + image}},
			}},
		},
	}

	var out chatResponse
	if err := c.post(ctx, "/chat/completions", payload, &out); err != nil {
		return ScanResult{}, err
	}
	if len(out.Choices) == 0 {
		return ScanResult{}, fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	return ParseScanResponse(out.Choices[0].Message.Content), nil
}

type editRequest struct {
	Model  string `json:"model"`
	Image  string `json:"image"`
	Prompt string `json:"prompt"`
}

type editResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// Edit applies free-text editing instructions to an image and returns the
// edited image as base64.
func (c *Client) Edit(ctx context.Context, imageBase64, instructions string) (string, error) {
	if c == nil {
		return "", ErrUnavailable
	}

	payload := editRequest{
		Model:  c.model,
		Image:  StripDataURL(imageBase64),
		Prompt: instructions,
	}

	var out editResponse
	if err := c.post(ctx, "/images/edits", payload, &out); err != nil {
		return "", err
	}
	if len(out.Data) == 0 || out.Data[0].B64JSON == "" {
		return "", fmt.Errorf("%w: empty image response", ErrUnavailable)
	}
	return out.Data[0].B64JSON, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ai marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("ai create request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	req.Header.Set("authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: status=%d body=%s", ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ai decode response: %w", err)
	}
	return nil
}
