package extract_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/savr-app/savr/pkg/extract"
	"github.com/savr-app/savr/pkg/utils/try"
)

func servePage(t *testing.T, status int, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestExtractJsonLd(t *testing.T) {
	server := servePage(t, http.StatusOK, `<!doctype html>
<html><head>
<title>Tarte aux pommes - example.com</title>
<script type="application/ld+json">
{
	"@context": "https://schema.org",
	"@type": "Recipe",
	"name": "Tarte aux pommes",
	"description": "La tarte du dimanche.",
	"recipeYield": "6",
	"prepTime": "PT30M",
	"cookTime": "PT45M",
	"recipeIngredient": ["4 pommes", "1 pate brisee"],
	"recipeInstructions": [
		{"@type": "HowToStep", "text": "Etaler la pate."},
		{"@type": "HowToStep", "text": "Disposer les pommes."}
	]
}
</script>
</head><body><p>Du texte sans interet.</p></body></html>`)

	testee := extract.New(5 * time.Second)
	actual := try.To(testee.Extract(context.Background(), server.URL)).OrFatal(t)

	for _, piece := range []string{
		"Tarte aux pommes",
		"La tarte du dimanche.",
		"Servings: 6",
		"Prep time: PT30M",
		"- 4 pommes",
		"1. Etaler la pate.",
		"2. Disposer les pommes.",
	} {
		if !strings.Contains(actual, piece) {
			t.Errorf("extracted text misses %q:\n%s", piece, actual)
		}
	}
	if strings.Contains(actual, "sans interet") {
		t.Errorf("body text should not leak into a structured extraction:\n%s", actual)
	}
}

func TestExtractJsonLdGraph(t *testing.T) {
	server := servePage(t, http.StatusOK, `<html><head>
<script type="application/ld+json">
{
	"@graph": [
		{"@type": "WebPage", "name": "not a recipe"},
		{
			"@type": ["Recipe", "Thing"],
			"name": "Soupe a l'oignon",
			"recipeInstructions": "Faire revenir les oignons."
		}
	]
}
</script>
</head><body></body></html>`)

	testee := extract.New(5 * time.Second)
	actual := try.To(testee.Extract(context.Background(), server.URL)).OrFatal(t)

	if !strings.Contains(actual, "Soupe a l'oignon") {
		t.Errorf("the recipe in @graph should be found:\n%s", actual)
	}
	if !strings.Contains(actual, "Faire revenir les oignons.") {
		t.Errorf("a string recipeInstructions should be kept:\n%s", actual)
	}
}

func TestExtractReadableTextFallback(t *testing.T) {
	server := servePage(t, http.StatusOK, `<html><head>
<title>Gratin dauphinois</title>
<script>var tracking = "noise";</script>
<style>.ad { color: red }</style>
</head><body>
<nav><li>Accueil</li><li>Recettes</li></nav>
<main>
	<h1>Gratin dauphinois</h1>
	<p>Un classique.</p>
	<li>1kg de pommes de terre</li>
</main>
<footer><p>Mentions legales</p></footer>
</body></html>`)

	testee := extract.New(5 * time.Second)
	actual := try.To(testee.Extract(context.Background(), server.URL)).OrFatal(t)

	for _, piece := range []string{"Gratin dauphinois", "Un classique.", "1kg de pommes de terre"} {
		if !strings.Contains(actual, piece) {
			t.Errorf("extracted text misses %q:\n%s", piece, actual)
		}
	}
	for _, noise := range []string{"tracking", "Accueil", "Mentions legales"} {
		if strings.Contains(actual, noise) {
			t.Errorf("extracted text should not carry %q:\n%s", noise, actual)
		}
	}
}

func TestExtractErrors(t *testing.T) {
	t.Run("when the page responds non-200, it should error", func(t *testing.T) {
		server := servePage(t, http.StatusNotFound, "not here")

		testee := extract.New(5 * time.Second)
		if _, err := testee.Extract(context.Background(), server.URL); err == nil {
			t.Error("no error unexpectedly")
		}
	})

	t.Run("when the page has no content, it should error", func(t *testing.T) {
		server := servePage(t, http.StatusOK, `<html><body></body></html>`)

		testee := extract.New(5 * time.Second)
		if _, err := testee.Extract(context.Background(), server.URL); err == nil {
			t.Error("no error unexpectedly")
		}
	})
}
