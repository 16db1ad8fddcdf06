package timeutil

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestReadingTime(t *testing.T) {
	testCases := []struct {
		name string
		text string
		want int
	}{
		{name: "empty text floors at one", text: "", want: 1},
		{name: "whitespace only", text: "  \n\t ", want: 1},
		{name: "exactly 200 words", text: words(200), want: 1},
		{name: "201 words", text: words(201), want: 2},
		{name: "401 words", text: words(401), want: 3},
		{name: "tags are not words", text: "<p>" + words(200) + "</p><img src=\"x.png\"/>", want: 1},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, ReadingTime(testCase.text))
		})
	}
}

func TestReadingTimeWPM(t *testing.T) {
	assert.Equal(t, 5, ReadingTimeWPM(words(500), 100))
	assert.Equal(t, 3, ReadingTimeWPM(words(401), 0))
}

func TestStripTags(t *testing.T) {
	testCases := []struct {
		name      string
		in        string
		want      string
		wantWords int
	}{
		{name: "plain", in: "plain", want: "plain", wantWords: 1},
		{name: "complete tags removed", in: "<p>hello <b>world</b></p>", want: "hello world", wantWords: 2},
		{name: "adjacent text joins", in: "a<br>b", want: "ab", wantWords: 1},
		{name: "bare less-than kept", in: "if a<b then c", want: "if a<b then c", wantWords: 4},
		{name: "unterminated tag kept", in: "x <y z", want: "x <y z", wantWords: 3},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, StripTags(testCase.in))
			assert.Equal(t, testCase.wantWords, WordCount(testCase.in))
		})
	}
}

func TestReadingTimeWithComparisonInCode(t *testing.T) {
	body := "if a<b then " + strings.Repeat("word ", 400)
	assert.Equal(t, 404, WordCount(body))
	assert.Equal(t, 3, ReadingTime(body))
}

func TestReadingTimeText(t *testing.T) {
	assert.Equal(t, "< 1 min read", ReadingTimeText(0))
	assert.Equal(t, "1 min read", ReadingTimeText(1))
	assert.Equal(t, "7 min read", ReadingTimeText(7))
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2025, time.November, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "November 7, 2025", FormatDate(d))
	assert.Equal(t, InvalidDate, FormatDate(time.Time{}))
	assert.Equal(t, "November 7, 2025", FormatDateString("2025-11-07T10:00:00Z"))
	assert.Equal(t, InvalidDate, FormatDateString("not a date"))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, time.November, 7, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "2 days ago", relativeTo(now.Add(-48*time.Hour), now))
	assert.Equal(t, UnknownTime, relativeTo(time.Time{}, now))
	assert.Equal(t, UnknownTime, FormatRelativeTimeString("??"))
}

func TestFormatDateForSEO(t *testing.T) {
	d := time.Date(2025, time.November, 7, 0, 0, 0, 0, time.FixedZone("KST", 9*3600))
	assert.Equal(t, "2025-11-06T15:00:00.000Z", FormatDateForSEO(d))

	fallback, err := time.Parse(time.RFC3339, FormatDateForSEOString("garbage"))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), fallback, time.Minute)
}

func TestParseDateAcceptsCommonLayouts(t *testing.T) {
	for _, in := range []string{"2025-11-07", "2025-11-07T10:00:00Z", "Nov 7, 2025"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, 2025, got.Year())
		assert.Equal(t, time.November, got.Month())
		assert.Equal(t, 7, got.Day())
	}

	_, err := ParseDate("")
	assert.Error(t, err)
}

func TestIsWithinDays(t *testing.T) {
	assert.True(t, IsWithinDays(time.Now(), 7))
	assert.False(t, IsWithinDays(time.Now().Add(-10*24*time.Hour), 7))
	assert.False(t, IsWithinDays(time.Time{}, 7))
}
