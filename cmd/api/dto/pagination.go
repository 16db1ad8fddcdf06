package dto

// CursorPage is the cursor pagination envelope for list results.
// NextCursor is opaque and only set when HasMore is true.
//
// With a search term the page is filtered after it is cut, so Data may hold
// fewer than Limit items while HasMore is still true.
type CursorPage[T any] struct {
	Data       []T    `json:"data"`
	Limit      int    `json:"limit"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// PostPageDTO 는 swag 가 제네릭을 다루지 못해 문서용으로 둔 구체 타입이다.
type PostPageDTO struct {
	Data       []PostDTO `json:"data"`
	Limit      int       `json:"limit"`
	NextCursor string    `json:"next_cursor,omitempty"`
	HasMore    bool      `json:"has_more"`
}
