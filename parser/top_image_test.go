package parser

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindTopImage(t *testing.T) {
	base, _ := url.Parse("https://blog.example.com/posts/1")

	cases := map[string]struct {
		html string
		want string
	}{
		"open graph": {
			html: `<head><meta property="og:image" content="https://cdn.example.com/a.png"></head>`,
			want: "https://cdn.example.com/a.png",
		},
		"twitter relative": {
			html: `<head><meta name="twitter:image" content="/b.png"></head>`,
			want: "https://blog.example.com/b.png",
		},
		"open graph wins": {
			html: `<head><meta name="twitter:image" content="/b.png"><meta property="og:image" content="/a.png"></head>`,
			want: "https://blog.example.com/a.png",
		},
		"link rel": {
			html: `<head><link rel="image_src" href="c.png"></head>`,
			want: "https://blog.example.com/posts/c.png",
		},
		"data url ignored": {
			html: `<head><meta property="og:image" content="data:image/png;base64,AAAA"></head>`,
			want: "",
		},
		"none": {
			html: `<p>text</p>`,
			want: "",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, findTopImage(tc.html, base))
		})
	}

	assert.Equal(t, "", findTopImage(`<meta property="og:image" content="/a.png">`, nil))
}
