package dto

// ErrorResponseDTO는 공통 에러 응답 형식을 통일하기 위한 DTO이다.
//
// - error: 기계가 읽는 코드 (예: invalid_token, not_found, validation_failed)
// - message: 사람이 읽는 문구
// - fields: 검증 실패 시 필드별 에러
type ErrorResponseDTO struct {
	Error   string          `json:"error" example:"validation_failed"`
	Message string          `json:"message,omitempty" example:"Title is required"`
	Fields  []FieldErrorDTO `json:"fields,omitempty"`
}

type FieldErrorDTO struct {
	Path    string `json:"path" example:"title"`
	Message string `json:"message" example:"Title is required"`
}

// MessageResponseDTO는 단순 메시지 응답 형식을 통일하기 위한 DTO이다.
type MessageResponseDTO struct {
	Message string `json:"message" example:"post deleted"`
}
