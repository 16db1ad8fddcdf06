// Package frontmatter 는 YAML 머리말이 붙은 Markdown 문서를 읽는다.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

var ErrUnterminated = errors.New("frontmatter: missing closing ---")

// Tags 는 YAML 시퀀스와 "a, b" 형태의 문자열을 모두 허용한다.
type Tags []string

func (t *Tags) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var out []string
		for _, tag := range strings.Split(node.Value, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				out = append(out, tag)
			}
		}
		*t = out
		return nil
	case yaml.SequenceNode:
		var out []string
		if err := node.Decode(&out); err != nil {
			return err
		}
		*t = out
		return nil
	default:
		return fmt.Errorf("frontmatter: tags must be a list or a comma separated string (line %d)", node.Line)
	}
}

type Meta struct {
	Title      string `yaml:"title"`
	Slug       string `yaml:"slug"`
	Excerpt    string `yaml:"excerpt"`
	Tags       Tags   `yaml:"tags"`
	Published  bool   `yaml:"published"`
	CoverImage string `yaml:"cover_image"`
}

type Document struct {
	Meta Meta
	Body string

	// HasFrontmatter 는 머리말 블록이 있었는지 여부다.
	HasFrontmatter bool
}

// Parse 는 문서 맨 앞의 --- 블록을 YAML 로 해석하고 나머지를 본문으로 돌려준다.
// 머리말이 없으면 전체가 본문이다.
func Parse(data []byte) (*Document, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	first, rest, found := strings.Cut(text, "\n")
	if !found || strings.TrimSpace(first) != delimiter {
		return &Document{Body: strings.TrimSpace(text)}, nil
	}

	var header []string
	lines := strings.Split(rest, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != delimiter {
			header = append(header, line)
			continue
		}

		var meta Meta
		if err := yaml.Unmarshal([]byte(strings.Join(header, "\n")), &meta); err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
		return &Document{
			Meta:           meta,
			Body:           strings.TrimSpace(strings.Join(lines[i+1:], "\n")),
			HasFrontmatter: true,
		}, nil
	}
	return nil, ErrUnterminated
}

// Heading 은 본문의 첫 번째 "# " 제목을 돌려준다. 머리말에 title 이 없을 때 쓴다.
func (d *Document) Heading() string {
	inFence := false
	for _, line := range strings.Split(d.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if !inFence && strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "# "))
		}
	}
	return ""
}
