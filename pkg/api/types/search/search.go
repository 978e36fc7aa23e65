package search

import (
	"github.com/savr-app/savr/pkg/api/types/recipes"
	"github.com/savr-app/savr/pkg/api/types/users"
)

// Response is the combined search result. With an empty query it
// carries suggestions instead of matches.
type Response struct {
	Users   []users.Summary   `json:"users"`
	Recipes []recipes.Summary `json:"recipes"`
}
