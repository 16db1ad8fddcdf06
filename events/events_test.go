package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"folio/models"
)

func TestOrphanedImage(t *testing.T) {
	p := &models.Post{Slug: "a", CoverImageURL: "https://cdn/new.png"}

	deleted := NewPostEvent(PostDeleted, "api", p)
	assert.Equal(t, "https://cdn/new.png", deleted.OrphanedImage())

	replaced := NewPostEvent(PostUpdated, "api", p)
	replaced.PreviousCoverImageURL = "https://cdn/old.png"
	assert.Equal(t, "https://cdn/old.png", replaced.OrphanedImage())

	unchanged := NewPostEvent(PostUpdated, "api", p)
	assert.Empty(t, unchanged.OrphanedImage())

	created := NewPostEvent(PostCreated, "api", p)
	assert.Empty(t, created.OrphanedImage())
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, Version, created.Version)
}
