package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com"

// Client calls the Gemini generateContent API for a single configured model.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func New(baseURL, apiKey, model string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) Model() string {
	return c.model
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "gemini generate", errors.New("empty prompt"))
	}

	reqBody := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	var response generateResponse
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)
	if err := c.postJSON(ctx, path, reqBody, &response, "generate"); err != nil {
		return "", classifyGenerateError("gemini generate", err)
	}

	if reason := response.PromptFeedback.BlockReason; reason != "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "gemini generate", fmt.Errorf("prompt blocked: %s", reason))
	}
	if len(response.Candidates) == 0 {
		return "", domain.WrapError(domain.ErrAnalysisPermanent, "gemini generate", errors.New("no candidates returned"))
	}

	var text strings.Builder
	for _, p := range response.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", domain.WrapError(domain.ErrAnalysisPermanent, "gemini generate",
			fmt.Errorf("empty candidate, finish reason %s", response.Candidates[0].FinishReason))
	}
	return out, nil
}
