// Package formalize turns free-form recipe text into a structured
// recipe by calling the Gemini API with a constrained response schema.
package formalize

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

	"gopkg.in/yaml.v3"
)

var (
	ErrNotARecipe  = errors.New("text does not describe a recipe")
	ErrRateLimited = errors.New("llm is rate limited")
)

// FormalRecipe is the structured form the LLM is asked to produce.
// Field constraints mirror the recipe write API.
type FormalRecipe struct {
	IsRecipe    bool               `json:"isRecipe"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	MealType    string             `json:"mealType"`
	Difficulty  string             `json:"difficulty"`
	PrepTime    int                `json:"prepTime"`
	CookTime    int                `json:"cookTime"`
	RestTime    int                `json:"restTime"`
	Servings    int                `json:"servings"`
	Ingredients []FormalIngredient `json:"ingredients"`
	Steps       []FormalStep       `json:"steps"`
}

type FormalIngredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Note     string  `json:"note"`
}

type FormalStep struct {
	Title         string `json:"title"`
	Instruction   string `json:"instruction"`
	Tip           string `json:"tip"`
	HasTimer      bool   `json:"hasTimer"`
	TimerDuration int    `json:"timerDuration"`
	Ingredients   []int  `json:"ingredients"`
}

type Formalizer interface {
	// Formalize structures free-form recipe text.
	//
	// Returns ErrNotARecipe when the text does not describe a recipe.
	Formalize(ctx context.Context, text string) (*FormalRecipe, error)
}

type Config struct {
	ApiKey  string        `yaml:"apiKey"`
	BaseUrl string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		ApiKey  string `yaml:"apiKey"`
		BaseUrl string `yaml:"baseUrl"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.ApiKey = raw.ApiKey
	c.BaseUrl = raw.BaseUrl
	c.Model = raw.Model
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	return nil
}

type geminiFormalizer struct {
	apiKey     string
	baseUrl    string
	model      string
	httpClient *http.Client
}

func New(conf Config) Formalizer {
	baseUrl := conf.BaseUrl
	if baseUrl == "" {
		baseUrl = "https://generativelanguage.googleapis.com/v1beta"
	}
	model := conf.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &geminiFormalizer{
		apiKey:     conf.ApiKey,
		baseUrl:    strings.TrimSuffix(baseUrl, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64        `json:"temperature"`
	MaxOutputTokens  int            `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string         `json:"response_mime_type,omitempty"`
	ResponseSchema   map[string]any `json:"response_schema,omitempty"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

const systemPrompt = `You structure cooking recipes.
Given free-form recipe text, extract a structured recipe.
Recipes may be written in French or English; keep the original language in titles, descriptions and instructions.
Times are minutes. Quantities use the listed units only.
Each step lists the zero-based indexes of the ingredients it uses.
When a step has a waiting or cooking time, set hasTimer to true with its timerDuration in minutes.
If the text does not describe a cooking recipe at all, set isRecipe to false and leave everything else empty.`

func recipeSchema() map[string]any {
	str := func() map[string]any { return map[string]any{"type": "string"} }
	integer := func() map[string]any { return map[string]any{"type": "integer"} }
	enum := func(values ...string) map[string]any {
		return map[string]any{"type": "string", "enum": values}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"isRecipe":    map[string]any{"type": "boolean"},
			"title":       str(),
			"description": str(),
			"mealType":    enum("breakfast", "lunch", "dinner", "snack"),
			"difficulty":  enum("easy", "medium", "hard"),
			"prepTime":    integer(),
			"cookTime":    integer(),
			"restTime":    integer(),
			"servings":    integer(),
			"ingredients": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":     str(),
						"quantity": map[string]any{"type": "number"},
						"unit": enum(
							"g", "kg", "ml", "l", "tsp", "tbsp",
							"cup", "piece", "pinch", "clove",
						),
						"note": str(),
					},
					"required": []string{"name", "quantity", "unit"},
				},
			},
			"steps": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":         str(),
						"instruction":   str(),
						"tip":           str(),
						"hasTimer":      map[string]any{"type": "boolean"},
						"timerDuration": integer(),
						"ingredients": map[string]any{
							"type":  "array",
							"items": integer(),
						},
					},
					"required": []string{"instruction"},
				},
			},
		},
		"required": []string{"isRecipe"},
	}
}

func (g *geminiFormalizer) Formalize(ctx context.Context, text string) (*FormalRecipe, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: text}}},
		},
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: systemPrompt}},
		},
		GenerationConfig: geminiGenerationConfig{
			Temperature:      0,
			ResponseMimeType: "application/json",
			ResponseSchema:   recipeSchema(),
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s/models/%s:generateContent?key=%s", g.baseUrl, g.model, g.apiKey,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"llm request failed with status %d: %s", resp.StatusCode, string(body),
		)
	}

	parsed := new(geminiResponse)
	if err := json.Unmarshal(body, parsed); err != nil {
		return nil, fmt.Errorf("failed to parse llm response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("llm error: %s", parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("llm returned no candidates")
	}

	result := new(strings.Builder)
	for _, part := range parsed.Candidates[0].Content.Parts {
		result.WriteString(part.Text)
	}

	recipe := new(FormalRecipe)
	if err := json.Unmarshal([]byte(result.String()), recipe); err != nil {
		return nil, fmt.Errorf("llm returned malformed recipe json: %w", err)
	}
	if !recipe.IsRecipe {
		return nil, ErrNotARecipe
	}
	return recipe, nil
}
