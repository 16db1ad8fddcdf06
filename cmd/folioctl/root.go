package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"folio/config"
	"folio/db"
	"folio/eventbus"
	"folio/logger"
	"folio/repositories"
	"folio/services"
)

var (
	verbose  bool
	authorID string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "folioctl",
	Short: "Authoring tools for the folio blog",
	Long: `folioctl imports Markdown posts and feeds into the folio post store,
seeds sample posts and generates slugs. It reads the same config.yaml as the API.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if verbose {
			level = "debug"
		}
		logger.Init(level)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&authorID, "author", os.Getenv("FOLIO_AUTHOR_ID"), "Author UID that owns imported posts (env FOLIO_AUTHOR_ID)")
}

// store 는 명령 하나가 쓰는 포스트 서비스와 정리 함수다.
type store struct {
	posts *services.PostService
	close func()
}

// openStore 는 config.yaml 과 MongoDB 에 연결한다. CLI 는 저장소 없이 동작할 수 없으므로
// mongo.uri 가 없으면 에러다. Kafka 가 설정되어 있으면 API 와 같은 이벤트를 발행한다.
func openStore(ctx context.Context) (*store, error) {
	if authorID == "" {
		return nil, errors.New("--author (or FOLIO_AUTHOR_ID) is required")
	}

	config.InitApp()
	cfg := config.GetConfig()
	if !verbose {
		logger.Init(cfg.Logging.Level)
	}

	if err := db.Init(ctx); err != nil {
		if errors.Is(err, db.ErrNoURI) {
			return nil, fmt.Errorf("mongo.uri is not set: %w", err)
		}
		return nil, err
	}

	var bus services.EventPublisher
	var closeBus func()
	if cfg.EventBus.Brokers != "" {
		b, err := eventbus.New(cfg.EventBus)
		if err != nil {
			_ = db.Disconnect(ctx)
			return nil, err
		}
		bus, closeBus = b, b.Close
	}

	d := db.Database()
	posts := services.NewPostService(repositories.NewPostRepository(d), repositories.NewDraftRepository(d), bus, cfg.Posts).
		WithSource("folioctl")

	return &store{
		posts: posts,
		close: func() {
			if closeBus != nil {
				closeBus()
			}
			if err := db.Disconnect(context.Background()); err != nil {
				logger.Log.Errorf("mongo disconnect: %v", err)
			}
		},
	}, nil
}
