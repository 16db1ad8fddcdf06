package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"folio/config"
	"folio/eventbus"
	"folio/events/handler"
	"folio/imagecdn"
	"folio/logger"
)

// worker 는 포스트 이벤트를 소비해 더 이상 쓰이지 않는 커버 이미지를 CDN 에서 지운다.
// 지연 토픽의 재주입기도 함께 실행한다.
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus, err := eventbus.New(cfg.EventBus)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	if eventbus.IsMemory(bus) {
		logger.Log.Warn("eventbus.brokers 미설정: API 프로세스의 이벤트를 받을 수 없습니다. API 가 직접 정리합니다.")
	}

	eventHandler := handler.NewEventHandlers(imagecdn.New(cfg.CDN, nil))
	groupID := cfg.EventBus.GroupID

	logger.Log.Info("starting worker service with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bus.Subscribe(ctx, groupID, eventbus.TopicPostEvents, eventHandler.Handle); err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("eventbus subscribe error: %v", err)
		}
	}()

	// 재주입기 (지연 토픽 -> 기본 토픽)
	for _, t := range eventbus.AllTopics {
		topic := t
		wg.Add(1)
		go func() {
			defer wg.Done()
			topicGroupID := groupID + "-retry-" + strings.ReplaceAll(topic.Base(), ".", "-")
			if err := bus.StartRetryReinjector(ctx, topicGroupID, topic); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Errorf("eventbus retry reinjector error for %s: %v", topic.Base(), err)
			}
		}()
	}

	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down worker service...")

	cancel()
	wg.Wait()

	logger.Log.Info("worker service stopped")
}
