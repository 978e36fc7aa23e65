package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnknownImportStatus = errors.New("unknown import status")
	ErrUnknownImportSource = errors.New("unknown import source")
)

// MaxImportAttempts caps how many times an import request is tried
// before it is abandoned as errored.
const MaxImportAttempts = 3

type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportProcessing ImportStatus = "processing"
	ImportSuccess    ImportStatus = "success"
	ImportError      ImportStatus = "error"
)

func (s ImportStatus) String() string {
	return string(s)
}

func AsImportStatus(s string) (ImportStatus, error) {
	switch ImportStatus(s) {
	case ImportPending, ImportProcessing, ImportSuccess, ImportError:
		return ImportStatus(s), nil
	default:
		return ImportStatus(s), fmt.Errorf("%w: %s", ErrUnknownImportStatus, s)
	}
}

// ImportSource tells what kind of input an import request carries.
type ImportSource string

const (
	// ImportFromText: RawText holds free-form recipe text.
	ImportFromText ImportSource = "text"
	// ImportFromUrl: SourceUrl holds a web page to scrape.
	ImportFromUrl ImportSource = "url"
)

func (s ImportSource) String() string {
	return string(s)
}

func AsImportSource(s string) (ImportSource, error) {
	switch ImportSource(s) {
	case ImportFromText, ImportFromUrl:
		return ImportSource(s), nil
	default:
		return ImportSource(s), fmt.Errorf("%w: %s", ErrUnknownImportSource, s)
	}
}

// ImportRequest tracks an asynchronous recipe import from submission
// to its terminal status.
type ImportRequest struct {
	ImportId  uuid.UUID
	UserId    int64
	Source    ImportSource
	RawText   string
	SourceUrl string

	Status ImportStatus

	// Attempts counts how many times a worker has claimed this
	// request. Capped by MaxImportAttempts.
	Attempts int

	// RecipeId is set when Status is ImportSuccess.
	RecipeId *int64

	// ErrorMessage is set when Status is ImportError.
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Terminal reports whether the request has reached a final status.
func (r *ImportRequest) Terminal() bool {
	return r.Status == ImportSuccess || r.Status == ImportError
}

func (r *ImportRequest) Equal(o *ImportRequest) bool {
	if (r == nil) || (o == nil) {
		return (r == nil) && (o == nil)
	}
	sameRecipe := (r.RecipeId == nil) == (o.RecipeId == nil)
	if sameRecipe && r.RecipeId != nil {
		sameRecipe = *r.RecipeId == *o.RecipeId
	}
	return r.ImportId == o.ImportId &&
		r.UserId == o.UserId &&
		r.Source == o.Source &&
		r.RawText == o.RawText &&
		r.SourceUrl == o.SourceUrl &&
		r.Status == o.Status &&
		r.Attempts == o.Attempts &&
		sameRecipe &&
		r.ErrorMessage == o.ErrorMessage
}
