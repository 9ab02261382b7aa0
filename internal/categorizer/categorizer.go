// Package categorizer suggests a ledger category for a free-text description
// using Gemini.
package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dvloznov/moneyflow/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is used when no model is configured.
const DefaultModelName = "gemini-2.5-flash"

// generator is the slice of the genai client the categorizer calls.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Categorizer implements service.Suggester.
type Categorizer struct {
	models generator
	model  string
}

// New creates a Gemini client using the environment's API key or Vertex
// settings.
func New(ctx context.Context, model string) (*Categorizer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("New: create genai client: %w", err)
	}
	return newWithGenerator(client.Models, model), nil
}

func newWithGenerator(g generator, model string) *Categorizer {
	if model == "" {
		model = DefaultModelName
	}
	return &Categorizer{models: g, model: model}
}

func buildPrompt(description string, known []string) string {
	var b strings.Builder
	b.WriteString("You categorize personal finance transactions.\n")
	b.WriteString("Transaction description: ")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n\n")
	if len(known) > 0 {
		b.WriteString("Categories already used by this user (prefer one of these when it fits):\n")
		for _, c := range known {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Rules:\n" +
		"- Answer with a short category name of at most three words.\n" +
		"- Return ONLY valid raw JSON of the form {\"category\": \"...\"}.\n" +
		"- Do NOT wrap the response in code fences.\n")
	return b.String()
}

// Suggest implements service.Suggester.
func (c *Categorizer) Suggest(ctx context.Context, description string, known []string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: buildPrompt(description, known)}},
		},
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("Suggest: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return "", fmt.Errorf("Suggest: empty response from model")
	}

	category, err := parseCategory(rawText)
	if err != nil {
		return "", fmt.Errorf("Suggest: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Debug().Str("model", c.model).Str("category", category).Msg("Category suggested")
	return category, nil
}

func parseCategory(raw string) (string, error) {
	var out struct {
		Category string `json:"category"`
	}
	clean := cleanModelJSON(raw)
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return "", fmt.Errorf("unmarshal JSON: %w\nraw response: %s", err, raw)
	}
	category := strings.TrimSpace(out.Category)
	if category == "" {
		return "", fmt.Errorf("model returned no category")
	}
	return category, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// ```json ... ``` or ``` ... ```
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}
	return s
}
