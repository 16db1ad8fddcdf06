package summarizer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folio/config"
)

func TestNewWithoutKey(t *testing.T) {
	_, err := New(context.Background(), config.SummarizerConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestParseExcerpt(t *testing.T) {
	cases := map[string]string{
		"plain":         `{"excerpt": "A short teaser.", "error": null}`,
		"code fence":    "```json\n{\"excerpt\": \"A short teaser.\"}\n```",
		"padded output": "\n  {\"excerpt\": \"  A short teaser.  \"}  \n",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := parseExcerpt(raw)
			require.NoError(t, err)
			assert.Equal(t, "A short teaser.", got)
		})
	}
}

func TestParseExcerptFailures(t *testing.T) {
	_, err := parseExcerpt(`{"excerpt": "", "error": "only code"}`)
	assert.ErrorContains(t, err, "only code")

	_, err = parseExcerpt(`{"excerpt": "   "}`)
	assert.Error(t, err)

	_, err = parseExcerpt("sorry, I can't")
	assert.Error(t, err)
}

func TestParseExcerptTruncates(t *testing.T) {
	long := strings.Repeat("가", MaxExcerptRunes+20)
	got, err := parseExcerpt(`{"excerpt": "` + long + `"}`)
	require.NoError(t, err)
	assert.Len(t, []rune(got), MaxExcerptRunes)
	assert.True(t, strings.HasSuffix(got, "..."))
}
