package dto

import (
	"time"

	"folio/models"
)

type DraftDTO struct {
	PostID  string             `json:"post_id"`
	Fields  models.DraftFields `json:"fields"`
	SavedAt time.Time          `json:"saved_at"`
}

func FromDraft(d models.Draft) DraftDTO {
	return DraftDTO{PostID: d.PostID.Hex(), Fields: d.Fields, SavedAt: d.SavedAt}
}
