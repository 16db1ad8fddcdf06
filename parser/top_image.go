package parser

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// findTopImage 는 추출기가 대표 이미지를 찾지 못했을 때 메타 태그와 link 태그를 본다.
// 상대 경로는 baseURL 기준으로 절대 경로로 바꾸며, 만들 수 없으면 버린다.
func findTopImage(htmlStr string, baseURL *url.URL) string {
	doc, err := html.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return ""
	}

	// 우선순위: Open Graph → Twitter 카드 → itemprop → link rel
	candidates := []string{
		findMetaContent(doc, "property", "og:image", "og:image:url", "og:image:secure_url"),
		findMetaContent(doc, "name", "twitter:image", "twitter:image:src", "thumbnail"),
		findMetaContent(doc, "itemprop", "image"),
		findImageLink(doc),
	}
	for _, c := range candidates {
		if abs := absoluteURL(c, baseURL); abs != "" {
			return abs
		}
	}
	return ""
}

func findMetaContent(root *html.Node, key string, names ...string) string {
	var result string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case key:
					name = strings.ToLower(a.Val)
				case "content":
					content = strings.TrimSpace(a.Val)
				}
			}
			for _, want := range names {
				if content != "" && name == want {
					result = content
					return
				}
			}
		}
		for c := n.FirstChild; c != nil && result == ""; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return result
}

func findImageLink(root *html.Node) string {
	var result string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, href string
			for _, a := range n.Attr {
				switch strings.ToLower(a.Key) {
				case "rel":
					rel = strings.ToLower(a.Val)
				case "href":
					href = strings.TrimSpace(a.Val)
				}
			}
			if href != "" && (rel == "image_src" || strings.Contains(rel, "thumbnail")) {
				result = href
				return
			}
		}
		for c := n.FirstChild; c != nil && result == ""; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return result
}

func absoluteURL(src string, baseURL *url.URL) string {
	if src == "" {
		return ""
	}
	u, err := url.Parse(src)
	if err != nil {
		return ""
	}
	if !u.IsAbs() {
		if baseURL == nil {
			return ""
		}
		u = baseURL.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}
