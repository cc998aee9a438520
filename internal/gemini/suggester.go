package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gitlab.com/yelinaung/club-ledger/internal/logger"
	"gitlab.com/yelinaung/club-ledger/internal/models"
	"google.golang.org/genai"
)

// Input limits applied before text reaches the prompt.
const (
	MaxDescriptionLength = 200
	maxReasoningLength   = 300
	suggestTimeout       = 10 * time.Second
)

// Suggestion is a proposed category for a bookkeeping entry.
type Suggestion struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// SuggestCategory asks Gemini which of categories fits the entry. The answer
// is accepted only when it names one of the given categories.
func (c *Client) SuggestCategory(
	ctx context.Context,
	description string,
	entryType models.ExpenseType,
	categories []string,
) (*Suggestion, error) {
	if c == nil || c.generator == nil {
		return nil, ErrNotConfigured
	}
	description = SanitizeForPrompt(description, MaxDescriptionLength)
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories available")
	}

	allowed := make([]string, len(categories))
	for i, name := range categories {
		allowed[i] = SanitizeForPrompt(name, models.MaxCategoryNameLength)
	}

	log := logger.Component("gemini")
	log.Debug().
		Str("description", logger.SanitizeText(description)).
		Int("category_count", len(allowed)).
		Msg("Requesting category suggestion")

	timeoutCtx, cancel := context.WithTimeout(ctx, suggestTimeout)
	defer cancel()

	resp, err := c.generator.GenerateContent(timeoutCtx, c.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: buildPrompt(description, entryType, allowed)}}}},
		suggestionConfig(allowed),
	)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from Gemini")
	}

	jsonText := extractJSON(resp.Text())
	if jsonText == "" {
		return nil, fmt.Errorf("no JSON found in response")
	}

	var s Suggestion
	if err := json.Unmarshal([]byte(jsonText), &s); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	matched := ""
	for _, name := range categories {
		if strings.EqualFold(strings.TrimSpace(name), strings.TrimSpace(s.Category)) {
			matched = name
			break
		}
	}
	if matched == "" {
		log.Warn().Str("suggested", s.Category).Msg("Suggested category is not available")
		return nil, fmt.Errorf("suggested category %q not in available categories", s.Category)
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return nil, fmt.Errorf("confidence out of range: %f", s.Confidence)
	}

	s.Category = matched
	s.Reasoning = SanitizeForPrompt(s.Reasoning, maxReasoningLength)

	log.Debug().Str("category", s.Category).Float64("confidence", s.Confidence).Msg("Category suggested")
	return &s, nil
}

func suggestionConfig(categories []string) *genai.GenerateContentConfig {
	temp := float32(0.2)
	return &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(400),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: "You are a JSON API. Respond with a single JSON object and nothing else."}},
		},
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"category":   {Type: genai.TypeString, Enum: categories},
				"confidence": {Type: genai.TypeNumber},
				"reasoning":  {Type: genai.TypeString},
			},
			Required: []string{"category", "confidence", "reasoning"},
		},
	}
}

func buildPrompt(description string, entryType models.ExpenseType, categories []string) string {
	kind := "despesa (custo do clube)"
	if entryType.IsRevenue() {
		kind = "receita (entrada de dinheiro do clube)"
	}

	return fmt.Sprintf(`Classifique este lançamento contábil de um clube social.

Tipo: %s
Descrição: "%s"

Categorias disponíveis:
- %s

Regras:
- Escolha a categoria MAIS adequada da lista
- Contas de luz, água e aluguel da sede vão para a categoria correspondente
- Confiança alta (0.8-1.0) para casos óbvios, menor (0.5-0.7) para ambíguos

Responda somente com JSON:
{"category": "nome exato da categoria", "confidence": 0.0-1.0, "reasoning": "explicação curta"}`,
		kind, description, strings.Join(categories, "\n- "))
}

// extractJSON returns the outermost JSON object in text, ignoring any
// preamble the model adds.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// SanitizeForPrompt strips quoting and control characters, collapses
// whitespace and truncates to maxLength bytes.
func SanitizeForPrompt(input string, maxLength int) string {
	input = strings.NewReplacer(`"`, `'`, "`", "'", "\x00", "").Replace(input)
	input = strings.Join(strings.Fields(input), " ")
	if len(input) > maxLength {
		input = strings.TrimSpace(strings.ToValidUTF8(input[:maxLength], ""))
	}
	return input
}
