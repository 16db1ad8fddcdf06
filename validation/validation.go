// Package validation checks post payloads and reports failures as a list of
// field errors instead of returning early on the first one.
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"folio/models"
	"folio/slug"
)

// FieldError 는 폼 필드 단위로 표시할 검증 실패 정보다.
// Path 는 JSON 필드 경로이며 배열 원소는 "tags.0" 처럼 점으로 잇는다.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	if e.Path == "" {
		return e.Message
	}
	return e.Path + ": " + e.Message
}

const (
	MsgNoFieldsToUpdate = "At least one field must be provided for update"
	MsgSlugFormat       = "Slug must be lowercase alphanumeric with hyphens"
	MsgCoverImage       = "Cover image must be a valid URL"
)

var labels = map[string]string{
	"title":           "Title",
	"slug":            "Slug",
	"excerpt":         "Excerpt",
	"content":         "Content",
	"tags":            "Tags",
	"cover_image_url": "Cover image",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("cover_image", func(fl validator.FieldLevel) bool {
		return IsCoverImageURL(fl.Field().String())
	})
	return v
}

// IsCoverImageURL accepts absolute http(s) URLs and inline image data URLs.
// The empty string is accepted and means "no cover image".
func IsCoverImageURL(s string) bool {
	if s == "" || strings.HasPrefix(s, "data:image/") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// PostInput validates a create payload.
func PostInput(in models.PostInput) []FieldError {
	return Struct(in)
}

// PostPatch validates an update payload. An empty patch is itself an error.
func PostPatch(p models.PostPatch) []FieldError {
	if p.IsEmpty() {
		return []FieldError{{Path: "", Message: MsgNoFieldsToUpdate}}
	}
	return Struct(p)
}

// Struct runs the tag rules of v and converts failures to FieldErrors.
func Struct(v any) []FieldError {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Path: "unknown", Message: "Validation failed"}}
	}

	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Path: fieldPath(fe.Namespace()), Message: message(fe)})
	}
	return out
}

// fieldPath turns "PostInput.tags[2]" into "tags.2".
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		namespace = namespace[i+1:]
	}
	namespace = strings.ReplaceAll(namespace, "[", ".")
	return strings.ReplaceAll(namespace, "]", "")
}

func label(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.Index(name, "["); i >= 0 {
		// 배열 원소
		if name[:i] == "tags" {
			return "Tag"
		}
		name = name[:i]
	}
	if l, ok := labels[name]; ok {
		return l
	}
	return name
}

func message(fe validator.FieldError) string {
	l := label(fe)
	switch fe.Tag() {
	case "required":
		return l + " is required"
	case "min":
		if fe.Param() == "1" {
			return l + " is required"
		}
		return fmt.Sprintf("%s must be at least %s characters", l, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Maximum %s %s allowed", fe.Param(), strings.ToLower(l))
		}
		return fmt.Sprintf("%s must be %s characters or less", l, fe.Param())
	case "slug":
		return MsgSlugFormat
	case "cover_image":
		return MsgCoverImage
	}
	return fmt.Sprintf("%s is invalid", l)
}
