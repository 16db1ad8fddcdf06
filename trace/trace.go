// Package trace 는 요청 단위 Request ID 와 outbound 호출별 Span ID 를 컨텍스트로 전달한다.
package trace

import (
	"context"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

type ctxKey string

const ctxKeyTrace ctxKey = "trace_info"

const (
	HeaderRequestID = "X-Request-Id"
	HeaderSpanID    = "X-Span-Id"
)

// Info는 하나의 요청에 대한 트레이싱 정보를 담는다.
// spanSeq 는 같은 RequestID 안에서 outbound 호출마다 1,2,3,... 증가한다.
type Info struct {
	RequestID string
	spanSeq   atomic.Int64
}

func GenerateID() string {
	return uuid.NewString()
}

// WithRequestAndSpan는 Request ID와 초기 Span 값(보통 0)을 컨텍스트에 저장한다.
func WithRequestAndSpan(ctx context.Context, requestID string, initialSpan int64) context.Context {
	info := &Info{RequestID: requestID}
	info.spanSeq.Store(initialSpan)
	return context.WithValue(ctx, ctxKeyTrace, info)
}

func infoFromContext(ctx context.Context) *Info {
	if ctx == nil {
		return nil
	}
	v, _ := ctx.Value(ctxKeyTrace).(*Info)
	return v
}

func RequestIDFromContext(ctx context.Context) string {
	if info := infoFromContext(ctx); info != nil {
		return info.RequestID
	}
	return ""
}

// CurrentSpanID 는 증가시키지 않고 현재 값을 반환한다.
func CurrentSpanID(ctx context.Context) string {
	info := infoFromContext(ctx)
	if info == nil {
		return "0"
	}
	return strconv.FormatInt(max(info.spanSeq.Load(), 0), 10)
}

// NextSpanID는 spanSeq를 1 증가시키고 (requestID, spanID)를 반환한다.
// 미들웨어 밖(CLI, 워커)에서는 새 Request ID 와 span 1 을 돌려준다.
func NextSpanID(ctx context.Context) (string, string) {
	info := infoFromContext(ctx)
	if info == nil {
		return GenerateID(), "1"
	}
	return info.RequestID, strconv.FormatInt(max(info.spanSeq.Add(1), 1), 10)
}
