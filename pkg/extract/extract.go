// Package extract pulls recipe text out of web pages.
//
// Pages carrying schema.org Recipe JSON-LD are read structurally.
// Anything else falls back to stripping the page down to its readable
// text, leaving interpretation to the formalizer.
package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoContent = errors.New("page has no extractable content")

// MaxPageSize caps how much of a page is downloaded.
const MaxPageSize = 5 << 20

const userAgent = "savr-importer/1.0"

type Extractor interface {
	// Extract fetches the page and returns its recipe text.
	Extract(ctx context.Context, pageUrl string) (string, error)
}

type extractor struct {
	httpClient *http.Client
}

func New(timeout time.Duration) Extractor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &extractor{httpClient: &http.Client{Timeout: timeout}}
}

func (e *extractor) Extract(ctx context.Context, pageUrl string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageUrl, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page responded %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	if text, ok := fromJsonLd(doc); ok {
		return text, nil
	}
	return fromReadableText(doc)
}

// jsonLdRecipe is the subset of schema.org Recipe the importer reads.
type jsonLdRecipe struct {
	Type               any      `json:"@type"`
	Name               string   `json:"name"`
	Description        string   `json:"description"`
	RecipeYield        any      `json:"recipeYield"`
	PrepTime           string   `json:"prepTime"`
	CookTime           string   `json:"cookTime"`
	TotalTime          string   `json:"totalTime"`
	RecipeIngredient   []string `json:"recipeIngredient"`
	RecipeInstructions any      `json:"recipeInstructions"`
}

func (r *jsonLdRecipe) isRecipe() bool {
	switch t := r.Type.(type) {
	case string:
		return strings.EqualFold(t, "Recipe")
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.EqualFold(s, "Recipe") {
				return true
			}
		}
	}
	return false
}

func fromJsonLd(doc *goquery.Document) (string, bool) {
	var found *jsonLdRecipe
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, candidate := range decodeJsonLd(s.Text()) {
			if candidate.isRecipe() && candidate.Name != "" {
				found = candidate
				return false
			}
		}
		return true
	})
	if found == nil {
		return "", false
	}
	return renderJsonLd(found), true
}

// decodeJsonLd handles the shapes JSON-LD comes in: a single object,
// an array of objects, or an object with an @graph array.
func decodeJsonLd(raw string) []*jsonLdRecipe {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var single jsonLdRecipe
	if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type != nil {
		return []*jsonLdRecipe{&single}
	}

	var many []jsonLdRecipe
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		out := make([]*jsonLdRecipe, 0, len(many))
		for nth := range many {
			out = append(out, &many[nth])
		}
		return out
	}

	var graph struct {
		Graph []jsonLdRecipe `json:"@graph"`
	}
	if err := json.Unmarshal([]byte(raw), &graph); err == nil {
		out := make([]*jsonLdRecipe, 0, len(graph.Graph))
		for nth := range graph.Graph {
			out = append(out, &graph.Graph[nth])
		}
		return out
	}

	return nil
}

func renderJsonLd(r *jsonLdRecipe) string {
	b := new(strings.Builder)
	fmt.Fprintln(b, r.Name)
	if r.Description != "" {
		fmt.Fprintln(b, r.Description)
	}
	if y := renderYield(r.RecipeYield); y != "" {
		fmt.Fprintln(b, "Servings:", y)
	}
	if r.PrepTime != "" {
		fmt.Fprintln(b, "Prep time:", r.PrepTime)
	}
	if r.CookTime != "" {
		fmt.Fprintln(b, "Cook time:", r.CookTime)
	}
	if r.TotalTime != "" {
		fmt.Fprintln(b, "Total time:", r.TotalTime)
	}

	if 0 < len(r.RecipeIngredient) {
		fmt.Fprintln(b, "\nIngredients:")
		for _, ing := range r.RecipeIngredient {
			fmt.Fprintln(b, "-", strings.TrimSpace(ing))
		}
	}

	steps := renderInstructions(r.RecipeInstructions)
	if 0 < len(steps) {
		fmt.Fprintln(b, "\nInstructions:")
		for nth, step := range steps {
			fmt.Fprintf(b, "%d. %s\n", nth+1, step)
		}
	}

	return strings.TrimSpace(b.String())
}

func renderYield(y any) string {
	switch v := y.(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case []any:
		if 0 < len(v) {
			return renderYield(v[0])
		}
	}
	return ""
}

// renderInstructions flattens recipeInstructions, which may be a
// string, a list of strings, or a list of HowToStep/HowToSection.
func renderInstructions(ins any) []string {
	switch v := ins.(type) {
	case string:
		return []string{strings.TrimSpace(v)}
	case []any:
		steps := []string{}
		for _, item := range v {
			switch step := item.(type) {
			case string:
				steps = append(steps, strings.TrimSpace(step))
			case map[string]any:
				if text, ok := step["text"].(string); ok {
					steps = append(steps, strings.TrimSpace(text))
					continue
				}
				// HowToSection nests steps under itemListElement.
				if inner, ok := step["itemListElement"]; ok {
					steps = append(steps, renderInstructions(inner)...)
				}
			}
		}
		return steps
	}
	return nil
}

func fromReadableText(doc *goquery.Document) (string, error) {
	doc.Find("script, style, nav, header, footer, aside, form").Remove()

	root := doc.Find("main")
	if root.Length() == 0 {
		root = doc.Find("article")
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	lines := []string{}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		lines = append(lines, title)
	}
	root.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			lines = append(lines, text)
		}
	})

	if len(lines) == 0 {
		return "", ErrNoContent
	}
	return strings.Join(lines, "\n"), nil
}
