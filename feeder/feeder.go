package feeder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

type FeedItem struct {
	Title       string
	Link        string
	Description string
	// Content 는 피드가 전문을 싣는 경우의 HTML 본문이다. 없으면 빈 문자열.
	Content     string
	Categories  []string
	Author      string
	Image       string
	PublishedAt time.Time
}

type Feed struct {
	Title string
	Link  string
	Items []FeedItem
}

// Fetch fetches and parses the RSS/Atom feed at feedURL.
// If limit is greater than 0, it returns only the first limit items.
func Fetch(ctx context.Context, feedURL string, limit int) (*Feed, error) {
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: 30 * time.Second}

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}
	return toFeed(feed, limit), nil
}

// Parse 는 이미 받아 둔 피드 문서를 해석한다.
func Parse(r io.Reader, limit int) (*Feed, error) {
	feed, err := gofeed.NewParser().Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return toFeed(feed, limit), nil
}

func toFeed(feed *gofeed.Feed, limit int) *Feed {
	out := &Feed{Title: feed.Title, Link: feed.Link}
	for _, item := range feed.Items {
		var published time.Time
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		fi := FeedItem{
			Title:       strings.TrimSpace(item.Title),
			Link:        item.Link,
			Description: item.Description,
			Content:     item.Content,
			Categories:  item.Categories,
			PublishedAt: published,
		}
		if len(item.Authors) > 0 && item.Authors[0] != nil {
			fi.Author = item.Authors[0].Name
		}
		if item.Image != nil {
			fi.Image = item.Image.URL
		}
		out.Items = append(out.Items, fi)
	}

	if limit > 0 && len(out.Items) > limit {
		out.Items = out.Items[:limit]
	}
	return out
}
