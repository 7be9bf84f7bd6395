// Package copywriter generates SEO copy suggestions through the Anthropic
// Messages API. The model is asked for JSON-only responses; anything it
// wraps in markdown fences is unwrapped before parsing.
package copywriter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/log"
)

const systemPrompt = "You are an expert Real Estate SEO Copywriter. " +
	"Your tone is luxury, welcoming, and professional."

// Page carries the current state of a page being optimized.
type Page struct {
	URL          string
	Title        string
	H1           string
	IntroContent string
}

// MetadataSuggestion is the model's proposed title tag and meta description.
type MetadataSuggestion struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
}

// OnPageSuggestion is the model's proposed H1 and introductory paragraph.
type OnPageSuggestion struct {
	H1      string `json:"h1"`
	Content string `json:"content"`
}

// Writer wraps the Anthropic client with the prompt templates.
type Writer struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// New creates a Writer for the given API key and model id. Extra request
// options (e.g. option.WithBaseURL in tests) are passed through to the SDK
// client.
func New(apiKey, model string, opts ...option.RequestOption) *Writer {
	reqOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(3),
	}, opts...)

	return &Writer{
		client:      anthropic.NewClient(reqOpts...),
		model:       model,
		maxTokens:   1000,
		temperature: 0.7,
	}
}

// OptimizeMetadata asks the model for a new title tag and meta description
// targeting the given keywords.
func (w *Writer) OptimizeMetadata(ctx context.Context, page Page, keywords []string) (*MetadataSuggestion, error) {
	prompt := fmt.Sprintf(`Please write a new Title Tag (max 60 chars) and Meta Description (max 160 chars) for the following page.

Page URL: %s
Current Title: %s
Target Keywords: %s

Ensure the copy mentions the location if possible based on the keywords or URL.

Return the result in the following JSON format only:
{
    "title": "Your generated title",
    "meta_description": "Your generated meta description"
}`, page.URL, page.Title, strings.Join(keywords, ", "))

	raw, err := w.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var suggestion MetadataSuggestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &suggestion); err != nil {
		log.Error("Failed to parse metadata suggestion", "url", page.URL, "response", raw)
		return &MetadataSuggestion{}, fmt.Errorf("unparseable metadata response for %s: %w", page.URL, err)
	}
	return &suggestion, nil
}

// OptimizeOnPage asks the model to rewrite the H1 and introductory
// paragraph around the target keyword.
func (w *Writer) OptimizeOnPage(ctx context.Context, page Page, targetKeyword string) (*OnPageSuggestion, error) {
	prompt := fmt.Sprintf(`Rewrite the following H1 and Introductory Paragraph to better target the keyword: %q.

Current H1: %s
Current Intro: %s

Keep HTML formatting tags if present in the original text.

Return the result in the following JSON format only:
{
    "h1": "New H1",
    "content": "New Intro Paragraph"
}`, targetKeyword, page.H1, page.IntroContent)

	raw, err := w.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var suggestion OnPageSuggestion
	if err := json.Unmarshal([]byte(stripFences(raw)), &suggestion); err != nil {
		log.Error("Failed to parse on-page suggestion", "url", page.URL, "response", raw)
		return &OnPageSuggestion{}, fmt.Errorf("unparseable on-page response for %s: %w", page.URL, err)
	}
	return &suggestion, nil
}

// complete runs a single user turn and returns the first text block.
func (w *Writer) complete(ctx context.Context, prompt string) (string, error) {
	msg, err := w.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(w.model),
		MaxTokens:   w.maxTokens,
		Temperature: anthropic.Float(w.temperature),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	if len(msg.Content) == 0 {
		return "", fmt.Errorf("anthropic returned an empty content array")
	}
	return msg.Content[0].Text, nil
}

// stripFences removes markdown code fences the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
