package handler

import (
	"context"

	"folio/eventbus"
	"folio/events"
	"folio/logger"
)

// ImageDestroyer 는 imagecdn.Client 의 삭제 기능이다.
type ImageDestroyer interface {
	Destroy(ctx context.Context, imageURL string) error
}

// EventHandlers 는 post 이벤트 토픽의 소비자다. 지금은 커버 이미지 정리만 한다.
type EventHandlers struct {
	images ImageDestroyer
}

func NewEventHandlers(images ImageDestroyer) *EventHandlers {
	return &EventHandlers{images: images}
}

// Handle 은 eventbus.EventHandler 시그니처로 타입별 처리를 분기한다.
// 에러를 반환하면 버스가 재시도 토픽/DLQ 로 보낸다.
func (h *EventHandlers) Handle(ctx context.Context, ev eventbus.Event) error {
	typ, err := eventbus.PeekType(ev)
	if err != nil {
		return err
	}
	switch events.EventType(typ) {
	case events.PostDeleted, events.PostUpdated:
		v, err := eventbus.DecodeJSON[events.PostEvent](ev)
		if err != nil {
			return err
		}
		return h.HandleCoverCleanup(ctx, &v)
	default:
		// created/published 는 소비할 일이 없다. (커밋)
		return nil
	}
}

// HandleCoverCleanup 은 더 이상 참조되지 않는 커버 이미지를 CDN 에서 지운다.
func (h *EventHandlers) HandleCoverCleanup(ctx context.Context, ev *events.PostEvent) error {
	url := ev.OrphanedImage()
	if url == "" {
		return nil
	}

	fields := logger.Fields{
		"event_id": ev.ID,
		"type":     string(ev.Type),
		"post_id":  ev.PostID.Hex(),
		"slug":     ev.Slug,
	}
	if err := h.images.Destroy(ctx, url); err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("failed to destroy orphaned cover image", fields)
		return err
	}
	logger.InfoWithFields("orphaned cover image cleaned up", fields)
	return nil
}
