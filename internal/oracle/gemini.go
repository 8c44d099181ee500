package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/starford/mimir/internal/backoff"
	"github.com/starford/mimir/internal/models"
)

const classifyPrompt = `Classify this markdown document into exactly one of these categories:
- meeting (notes from meetings or calls)
- idea (brainstorms, concepts, proposals)
- reference (documentation, how-tos, factual info)
- journal (personal reflections, daily logs)
- project (project plans, specs, tracking)

Return ONLY the category name, nothing else.

Document:
%s`

const entitiesPrompt = `Extract named entities from this markdown document.
Return valid JSON only, no other text:
{
  "people": ["name1", "name2"],
  "organizations": ["org1", "org2"],
  "concepts": ["concept1", "concept2"],
  "locations": ["place1", "place2"]
}

Document:
%s`

const summaryPrompt = `Analyze these documents created or modified today and provide a concise summary.
Focus on: key themes, important updates, decisions made, and action items.
Write in second person ("You worked on...", "You decided...").
Keep it under 500 words.

Documents:
%s`

const reportPrompt = `Analyze this week's activity and provide:

1. Overview: 2-3 sentences summarizing the week
2. Key Themes: 3-5 major themes across documents
3. Recommended Follow-ups: 3-5 specific actions to take

Base your analysis on these documents and daily summaries:
%s

Format your response in markdown suitable for a weekly review.`

// Gemini implements Oracle against the Gemini API. Two model handles share
// one client: a deterministic one for classification and extraction, and a
// sampling one for synthesis.
type Gemini struct {
	client      *genai.Client
	det         *genai.GenerativeModel
	gen         *genai.GenerativeModel
	maxAttempts int
	logger      *slog.Logger
}

// NewGemini creates a Gemini-backed oracle. modelName defaults to
// gemini-2.0-flash when empty.
func NewGemini(ctx context.Context, apiKey, modelName string, maxAttempts int, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("oracle: api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("oracle: create client: %w", err)
	}

	det := client.GenerativeModel(modelName)
	det.SetTemperature(0.0)
	gen := client.GenerativeModel(modelName)
	gen.SetTemperature(0.7)

	return &Gemini{
		client:      client,
		det:         det,
		gen:         gen,
		maxAttempts: maxAttempts,
		logger:      logger,
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// Classify returns one of the five labels; an off-label response degrades to
// "reference".
func (g *Gemini) Classify(ctx context.Context, content string) (string, error) {
	resp, err := g.generate(ctx, g.det, fmt.Sprintf(classifyPrompt, content))
	if err != nil {
		return "", err
	}
	label := strings.ToLower(strings.TrimSpace(resp))
	if !models.ValidClassification(label) {
		g.logger.Warn("oracle: off-label classification, defaulting",
			slog.String("label", label), slog.String("default", models.ClassReference))
		return models.ClassReference, nil
	}
	return label, nil
}

// ExtractEntities parses the oracle's JSON response. A malformed response is
// treated as "no entities found" rather than an error, so the rest of the
// indexing work is not lost over a formatting glitch.
func (g *Gemini) ExtractEntities(ctx context.Context, content string) (models.Entities, error) {
	resp, err := g.generate(ctx, g.det, fmt.Sprintf(entitiesPrompt, content))
	if err != nil {
		return nil, err
	}
	entities, perr := decodeEntities(resp)
	if perr != nil {
		g.logger.Warn("oracle: malformed entity response, degrading to empty",
			slog.String("error", perr.Error()))
		return emptyEntities(), nil
	}
	return entities, nil
}

// SynthesizeSummary produces daily summary text from the assembled corpus.
func (g *Gemini) SynthesizeSummary(ctx context.Context, docs []SourceDoc) (string, error) {
	var sb strings.Builder
	for i, d := range docs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "## %s\n%s", d.Path, d.Content)
	}
	return g.generate(ctx, g.gen, fmt.Sprintf(summaryPrompt, sb.String()))
}

// SynthesizeReport produces weekly report text from structured window data.
func (g *Gemini) SynthesizeReport(ctx context.Context, data WindowData) (string, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("oracle: encode window data: %w", err)
	}
	return g.generate(ctx, g.gen, fmt.Sprintf(reportPrompt, payload))
}

// generate invokes the model with retry on transient failures and flattens
// the response parts into one string.
func (g *Gemini) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	var out string
	err := backoff.Retry(ctx, g.maxAttempts, nil, func() error {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return fmt.Errorf("oracle: generate: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return fmt.Errorf("oracle: empty response")
		}
		var sb strings.Builder
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
		out = sb.String()
		return nil
	})
	return out, err
}

// decodeEntities parses the JSON entity payload, tolerating markdown code
// fences around it, and guarantees every entity type key is present.
func decodeEntities(resp string) (models.Entities, error) {
	s := strings.TrimSpace(resp)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	var entities models.Entities
	if err := json.Unmarshal([]byte(s), &entities); err != nil {
		return nil, err
	}
	for _, typ := range models.EntityTypes {
		if entities[typ] == nil {
			entities[typ] = []string{}
		}
	}
	return entities, nil
}

func emptyEntities() models.Entities {
	e := make(models.Entities, len(models.EntityTypes))
	for _, typ := range models.EntityTypes {
		e[typ] = []string{}
	}
	return e
}
