package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/models"
)

func validInput() models.PostInput {
	return models.PostInput{
		Title:   "Hello",
		Slug:    "hello",
		Excerpt: "short",
		Content: "body",
		Tags:    []string{"go"},
	}
}

func ptr[T any](v T) *T { return &v }

func TestPostInputValid(t *testing.T) {
	assert.Empty(t, PostInput(validInput()))
}

func TestPostInputCollectsEveryFailure(t *testing.T) {
	errs := PostInput(models.PostInput{})

	paths := map[string]string{}
	for _, fe := range errs {
		paths[fe.Path] = fe.Message
	}
	assert.Equal(t, "Title is required", paths["title"])
	assert.Equal(t, "Slug is required", paths["slug"])
	assert.Equal(t, "Excerpt is required", paths["excerpt"])
	assert.Equal(t, "Content is required", paths["content"])
}

func TestPostInputRules(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(in *models.PostInput)
		path    string
		message string
	}{
		{
			name:    "bad slug",
			mutate:  func(in *models.PostInput) { in.Slug = "Not A Slug" },
			path:    "slug",
			message: MsgSlugFormat,
		},
		{
			name:    "long title",
			mutate:  func(in *models.PostInput) { in.Title = strings.Repeat("t", 201) },
			path:    "title",
			message: "Title must be 200 characters or less",
		},
		{
			name:    "too many tags",
			mutate:  func(in *models.PostInput) { in.Tags = strings.Split(strings.Repeat("t,", 10)+"t", ",") },
			path:    "tags",
			message: "Maximum 10 tags allowed",
		},
		{
			name:    "empty tag",
			mutate:  func(in *models.PostInput) { in.Tags = []string{"go", ""} },
			path:    "tags.1",
			message: "Tag is required",
		},
		{
			name:    "long tag",
			mutate:  func(in *models.PostInput) { in.Tags = []string{strings.Repeat("x", 51)} },
			path:    "tags.0",
			message: "Tag must be 50 characters or less",
		},
		{
			name:    "relative cover url",
			mutate:  func(in *models.PostInput) { in.CoverImageURL = "/img/cover.png" },
			path:    "cover_image_url",
			message: MsgCoverImage,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			in := validInput()
			testCase.mutate(&in)

			errs := PostInput(in)
			require.Len(t, errs, 1)
			assert.Equal(t, testCase.path, errs[0].Path)
			assert.Equal(t, testCase.message, errs[0].Message)
		})
	}
}

func TestCoverImageAcceptsDataURL(t *testing.T) {
	in := validInput()
	in.CoverImageURL = "data:image/png;base64,AAAA"
	assert.Empty(t, PostInput(in))

	in.CoverImageURL = "https://res.cloudinary.com/demo/image/upload/v1/a.jpg"
	assert.Empty(t, PostInput(in))
}

func TestPostPatch(t *testing.T) {
	errs := PostPatch(models.PostPatch{})
	require.Len(t, errs, 1)
	assert.Equal(t, MsgNoFieldsToUpdate, errs[0].Message)

	assert.Empty(t, PostPatch(models.PostPatch{Published: ptr(true)}))
	assert.Empty(t, PostPatch(models.PostPatch{CoverImageURL: ptr("")}))

	errs = PostPatch(models.PostPatch{Title: ptr("")})
	require.Len(t, errs, 1)
	assert.Equal(t, "title", errs[0].Path)
	assert.Equal(t, "Title is required", errs[0].Message)

	errs = PostPatch(models.PostPatch{Slug: ptr("bad slug")})
	require.Len(t, errs, 1)
	assert.Equal(t, MsgSlugFormat, errs[0].Message)
}
