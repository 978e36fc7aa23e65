package imports

import (
	"github.com/savr-app/savr/pkg/api/types/imports"
	"github.com/savr-app/savr/pkg/api/types/misc/rfctime"
	"github.com/savr-app/savr/pkg/domain"
)

func ComposeDetail(r domain.ImportRequest) imports.Detail {
	return imports.Detail{
		Id:           r.ImportId.String(),
		Source:       r.Source.String(),
		Status:       r.Status.String(),
		RecipeId:     r.RecipeId,
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    rfctime.RFC3339(r.CreatedAt),
		UpdatedAt:    rfctime.RFC3339(r.UpdatedAt),
	}
}
