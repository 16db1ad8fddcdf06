package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"folio/cmd/api/auth"
	"folio/cmd/api/router"
	apiservices "folio/cmd/api/services"
	"folio/config"
	"folio/db"
	"folio/eventbus"
	"folio/events/handler"
	"folio/imagecdn"
	"folio/logger"
	"folio/services"
)

// @title           Folio API
// @version         1.0
// @description     Portfolio blog API: public posts, owner-scoped post management, drafts and image uploads
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := openStores(ctx, cfg.Posts)
	if err != nil {
		logger.Log.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}

	bus, err := eventbus.New(cfg.EventBus)
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer bus.Close()

	images := imagecdn.New(cfg.CDN, nil)

	// 메모리 버스는 워커 프로세스가 소비할 수 없으므로 커버 정리 핸들러를 여기서 구독한다.
	if eventbus.IsMemory(bus) {
		eventHandler := handler.NewEventHandlers(images)
		go func() {
			if err := bus.Subscribe(ctx, cfg.EventBus.GroupID, eventbus.TopicPostEvents, eventHandler.Handle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Log.Errorf("in-process event subscriber stopped: %v", err)
			}
		}()
	}

	authSvc, err := apiservices.NewAuthServiceFromConfig(cfg.Auth)
	if err != nil {
		logger.Log.Errorf("failed to init auth service: %v", err)
		os.Exit(1)
	}
	authSvc.Subscribe(func(ev auth.StateEvent) {
		logger.DebugWithFields("auth state changed", logger.Fields{"change": string(ev.Change), "uid": ev.User.UID})
	})

	r := router.New(router.Deps{
		Posts:    services.NewPostService(st.posts, st.drafts, bus, cfg.Posts),
		Drafts:   services.NewDraftService(st.drafts, st.posts),
		Auth:     authSvc,
		Images:   images,
		PingFunc: st.ping,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.WithCORS(r, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.InfoWithFields("api server listening", logger.Fields{"addr": cfg.Server.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Errorf("api server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("received shutdown signal, shutting down api server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("api server shutdown: %v", err)
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logger.Log.Errorf("mongo disconnect: %v", err)
	}

	logger.Log.Info("api server stopped")
}
