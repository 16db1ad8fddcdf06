// Package timeutil 은 읽기 시간 추정과 날짜 표시용 헬퍼를 제공한다.
package timeutil

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
)

const (
	DefaultWordsPerMinute = 200

	// DisplayLayout 은 "November 7, 2025" 형태다.
	DisplayLayout = "January 2, 2006"

	InvalidDate = "Invalid date"
	UnknownTime = "Unknown time"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags 는 완전한 <...> 구간만 지운다. 닫히지 않은 "<" (예: 코드의 a<b) 는 본문으로 남긴다.
func StripTags(text string) string {
	return tagPattern.ReplaceAllString(text, "")
}

// WordCount 는 태그를 제거한 뒤 공백 기준 토큰 수를 센다.
func WordCount(text string) int {
	return len(strings.Fields(StripTags(text)))
}

// ReadingTime 은 분당 200 단어 기준 읽기 시간(분)을 반환한다. 최소 1분.
func ReadingTime(text string) int {
	return ReadingTimeWPM(text, DefaultWordsPerMinute)
}

func ReadingTimeWPM(text string, wordsPerMinute int) int {
	if wordsPerMinute <= 0 {
		wordsPerMinute = DefaultWordsPerMinute
	}
	minutes := int(math.Ceil(float64(WordCount(text)) / float64(wordsPerMinute)))
	return max(1, minutes)
}

func ReadingTimeText(minutes int) string {
	if minutes < 1 {
		return "< 1 min read"
	}
	return fmt.Sprintf("%d min read", minutes)
}

// ParseDate 는 ISO 8601 외에도 frontmatter/피드에서 흔한 날짜 문자열을 허용한다.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	return dateparse.ParseAny(value)
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return InvalidDate
	}
	return t.Format(DisplayLayout)
}

// FormatDateString 은 파싱 실패 시 InvalidDate 를 반환한다.
func FormatDateString(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return InvalidDate
	}
	return FormatDate(t)
}

// FormatRelativeTime 은 "3 days ago" 형태의 상대 시간을 반환한다.
func FormatRelativeTime(t time.Time) string {
	return relativeTo(t, time.Now())
}

func FormatRelativeTimeString(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return UnknownTime
	}
	return FormatRelativeTime(t)
}

func relativeTo(t, now time.Time) string {
	if t.IsZero() {
		return UnknownTime
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

// FormatDateForSEO 는 메타데이터용 RFC3339(UTC, 밀리초) 문자열을 반환한다.
// 잘못된 값이면 현재 시각을 사용한다.
func FormatDateForSEO(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

func FormatDateForSEOString(value string) string {
	t, err := ParseDate(value)
	if err != nil {
		return FormatDateForSEO(time.Time{})
	}
	return FormatDateForSEO(t)
}

// IsWithinDays 는 t 가 지금으로부터 days 일 이내인지 확인한다. 미래 시각도 true.
func IsWithinDays(t time.Time, days int) bool {
	if t.IsZero() {
		return false
	}
	return time.Since(t) <= time.Duration(days)*24*time.Hour
}
