package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"folio/config"
	"folio/logger"
)

// MaxExcerptRunes 는 포스트 excerpt 검증 한도와 같다.
const MaxExcerptRunes = 500

var ErrNotConfigured = errors.New("summarizer: gemini api key is not set")

type excerptResult struct {
	Excerpt string  `json:"excerpt"`
	Error   *string `json:"error,omitempty"`
}

const SYSTEM_INSTRUCTION = `
You write excerpts for posts on a personal developer blog.
Read the provided Markdown post and produce a short teaser shown on the blog index.
The response MUST be a valid JSON object with two keys:

1. excerpt: One or two plain-text sentences, no more than 300 characters, written in the
   same language as the post. Do not use Markdown, quotes or emojis.
2. error: An optional string field. If the text is not a blog post (e.g. empty, only code,
   or a security check page), set this field to a short reason. Otherwise, set it to 'null'.

You MUST NOT wrap the JSON output in a markdown code block (e.g., ` + "```json ... ```" + `).
The response should contain ONLY the raw JSON string.
`

type Client struct {
	client *genai.Client
	model  string
	quota  *QuotaLimiter
}

func New(ctx context.Context, cfg config.SummarizerConfig) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{client: client, model: cfg.GeminiModel, quota: NewQuotaLimiter(cfg)}, nil
}

// Excerpt 는 본문으로부터 목록용 요약문을 생성한다.
func (c *Client) Excerpt(ctx context.Context, text string) (string, error) {
	if err := c.quota.Wait(ctx); err != nil {
		return "", err
	}
	startTime := time.Now()

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: SYSTEM_INSTRUCTION}}},
		},
	)
	if err != nil {
		return "", err
	}

	excerpt, err := parseExcerpt(result.Text())
	if err != nil {
		return "", err
	}

	fields := logger.Fields{
		"model":      c.model,
		"latency_ms": time.Since(startTime).Milliseconds(),
	}
	if result.UsageMetadata != nil {
		fields["total_tokens"] = result.UsageMetadata.TotalTokenCount
	}
	logger.DebugWithFields("excerpt generated", fields)

	return excerpt, nil
}

func parseExcerpt(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	// 지시를 어기고 코드 블록으로 감싸는 경우가 있다.
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var res excerptResult
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &res); err != nil {
		return "", fmt.Errorf("summarizer: invalid response: %w", err)
	}
	if res.Error != nil {
		return "", fmt.Errorf("ai judged that this content is not summarizable: %s", *res.Error)
	}

	excerpt := strings.TrimSpace(res.Excerpt)
	if excerpt == "" {
		return "", errors.New("summarizer: empty excerpt")
	}
	if r := []rune(excerpt); len(r) > MaxExcerptRunes {
		excerpt = string(r[:MaxExcerptRunes-3]) + "..."
	}
	return excerpt, nil
}
