package parser

import (
	"errors"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// ErrNoContent 는 어떤 추출기로도 본문 텍스트를 얻지 못했을 때 반환된다.
var ErrNoContent = errors.New("parser: no readable content")

type ParsedArticle struct {
	Title            string
	PlainTextContent string
	TopImage         string
}

// ParseArticle 은 readability 로 본문을 추출하고, 실패하거나 비어 있으면
// trafilatura, 마지막으로 텍스트 노드 수집 순으로 시도한다.
// 피드 항목처럼 짧은 HTML 조각도 텍스트로 바꿀 수 있어야 한다.
func ParseArticle(htmlStr, pageURL string) (*ParsedArticle, error) {
	var baseURL *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			baseURL = u
		}
	}

	article, err := extract(htmlStr, baseURL)
	if err != nil {
		return nil, err
	}
	article.TopImage = absoluteURL(article.TopImage, baseURL)
	if article.TopImage == "" {
		article.TopImage = findTopImage(htmlStr, baseURL)
	}
	return article, nil
}

func extract(htmlStr string, baseURL *url.URL) (*ParsedArticle, error) {
	if a, err := ParseHtmlWithReadability(htmlStr, baseURL); err == nil && a.PlainTextContent != "" {
		return a, nil
	}
	if a, err := ParseHtmlWithTrafilatura(htmlStr, baseURL); err == nil && a.PlainTextContent != "" {
		return a, nil
	}

	text, err := collectText(htmlStr)
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, ErrNoContent
	}
	return &ParsedArticle{PlainTextContent: text}, nil
}

// main parser
func ParseHtmlWithReadability(htmlStr string, baseURL *url.URL) (*ParsedArticle, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return nil, err
	}

	article, err := readability.FromDocument(doc, baseURL)
	if err != nil {
		return nil, err
	}
	return &ParsedArticle{
		Title:            strings.TrimSpace(article.Title),
		PlainTextContent: strings.TrimSpace(article.TextContent),
		TopImage:         article.Image,
	}, nil
}

func ParseHtmlWithTrafilatura(htmlStr string, baseURL *url.URL) (*ParsedArticle, error) {
	opts := trafilatura.Options{
		IncludeImages: true,
		OriginalURL:   baseURL,
	}

	article, err := trafilatura.Extract(strings.NewReader(htmlStr), opts)
	if err != nil {
		return nil, err
	}

	return &ParsedArticle{
		Title:            strings.TrimSpace(article.Metadata.Title),
		PlainTextContent: strings.TrimSpace(article.ContentText),
		TopImage:         article.Metadata.Image,
	}, nil
}

// collectText 는 모든 텍스트 노드를 줄 단위로 이어 붙인다. script/style 은 제외한다.
func collectText(htmlStr string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", err
	}

	var lines []string
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				lines = append(lines, text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}

	f(doc)
	return strings.Join(lines, "\n"), nil
}
