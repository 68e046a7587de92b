package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

type geminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func newGeminiClient(apiKey, model string, opts *clientOptions) (*geminiClient, error) {
	ctx := context.Background()
	config := &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI}
	if opts.baseURL != "" {
		config.HTTPOptions.BaseURL = opts.baseURL
	}

	client, err := genai.NewClient(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &geminiClient{client: client, model: model, maxTokens: int32(opts.maxTokens)}, nil
}

// geminiContents builds the user turn. Audio goes after the prompt as inline
// data.
func geminiContents(req Request) (*genai.Content, []*genai.Content) {
	var systemInstruction *genai.Content
	if req.System != "" {
		systemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	var parts []*genai.Part
	if req.Prompt != "" {
		parts = append(parts, &genai.Part{Text: req.Prompt})
	}
	if len(req.Audio) > 0 {
		mime := req.AudioMIME
		if mime == "" {
			mime = "audio/webm"
		}
		parts = append(parts, &genai.Part{InlineData: &genai.Blob{Data: req.Audio, MIMEType: mime}})
	}

	return systemInstruction, []*genai.Content{{Role: "user", Parts: parts}}
}

func (c *geminiClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := checkRequest(ProviderGemini, req); err != nil {
		return "", err
	}
	systemInstruction, contents := geminiContents(req)

	config := &genai.GenerateContentConfig{SystemInstruction: systemInstruction, MaxOutputTokens: c.maxTokens}
	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response text")
	}
	return text, nil
}
