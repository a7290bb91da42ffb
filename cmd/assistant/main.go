package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cookassist/backend/internal/bridge"
	"github.com/cookassist/backend/internal/corpus"
	"github.com/cookassist/backend/internal/embedding"
	"github.com/cookassist/backend/internal/generation"
	"github.com/cookassist/backend/internal/metrics"
	"github.com/cookassist/backend/internal/pipeline"
	"github.com/cookassist/backend/internal/retrieval"
	"github.com/cookassist/backend/pkg/config"
	appLogger "github.com/cookassist/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting cooking assistant backend")

	metrics.Init()

	store, err := corpus.Load(cfg.Corpus.Path)
	if err != nil {
		appLogger.Fatal("Failed to load corpus", zap.Error(err))
	}

	store, err = chunkCorpus(store, cfg.Corpus)
	if err != nil {
		appLogger.Fatal("Failed to chunk corpus", zap.Error(err))
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Cache.Host, cfg.Cache.Port),
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			appLogger.Warn("Redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		}
	}

	encoder, err := buildEncoder(cfg, store, redisClient)
	if err != nil {
		appLogger.Fatal("Failed to initialize encoder", zap.Error(err))
	}

	index, err := retrieval.BuildIndex(context.Background(), store, encoder)
	if err != nil {
		appLogger.Fatal("Failed to build vector index", zap.Error(err))
	}

	retriever := retrieval.NewRetriever(encoder, index, store, cfg.Retrieval.SimilarityThreshold)

	var local generation.Generator
	if cfg.Local.Enabled() {
		local = generation.NewLocal(
			cfg.Local.Endpoint,
			cfg.Local.ModelPath,
			cfg.Local.Temperature,
			cfg.Local.MaxTokens,
			cfg.Local.Timeout(),
			cfg.Pipeline.PromptCharBudget,
		)
	} else {
		appLogger.Info("Local generation disabled: no model path configured")
	}

	var remote generation.Generator
	if cfg.Remote.Enabled() {
		remote = generation.NewRemote(
			cfg.Remote.APIKey,
			cfg.Remote.Model,
			cfg.Remote.Temperature,
			cfg.Remote.MaxTokens,
			cfg.Remote.Timeout(),
			cfg.Pipeline.PromptCharBudget,
		)
	} else {
		appLogger.Info("Remote generation disabled: no API key configured")
	}

	var answerCache *pipeline.AnswerCache
	if redisClient != nil {
		answerCache = pipeline.NewAnswerCache(redisClient, time.Duration(cfg.Cache.AnswerTTLMin)*time.Minute)
	}

	pipe := pipeline.New(retriever, local, remote, generation.NewStatic(), answerCache, pipeline.Options{
		RetrievalK:        cfg.Retrieval.K,
		RetrievalTimeout:  cfg.Retrieval.Timeout(),
		LocalTimeout:      cfg.Local.Timeout(),
		RemoteTimeout:     cfg.Remote.Timeout(),
		LongQuestionWords: cfg.Pipeline.LongQuestionWords,
	})

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(cfg.Metrics.ListenAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		appLogger.Info("Shutting down")
		cancel()
	}()

	components := map[string]bool{
		"local":    pipe.LocalEnabled(),
		"remote":   pipe.RemoteEnabled(),
		"encoder":  true,
		"vectordb": index.Len() > 0,
	}

	b := bridge.New(pipe, components)
	if err := b.Run(ctx, os.Stdin, os.Stdout); err != nil && err != context.Canceled {
		appLogger.Fatal("Bridge terminated", zap.Error(err))
	}

	appLogger.Info("Stopped")
}

// chunkCorpus splits long documents into passage-sized pieces before
// indexing. Short documents pass through untouched.
func chunkCorpus(store *corpus.Store, cfg config.CorpusConfig) (*corpus.Store, error) {
	chunker := corpus.NewChunker(cfg.SentencesPerChunk, cfg.OverlapSentences)
	var passages []corpus.Document
	for _, doc := range store.All() {
		chunks, err := chunker.Chunk(doc)
		if err != nil {
			return nil, err
		}
		passages = append(passages, chunks...)
	}
	return corpus.NewStore(passages), nil
}

func buildEncoder(cfg *config.Config, store *corpus.Store, redisClient *redis.Client) (embedding.Encoder, error) {
	var encoder embedding.Encoder
	switch cfg.Encoder.Type {
	case "openai":
		encoder = embedding.NewOpenAIEncoder(
			cfg.Encoder.BaseURL,
			cfg.Encoder.APIKey,
			cfg.Encoder.Model,
			0,
			time.Duration(cfg.Encoder.TimeoutSec)*time.Second,
		)
	default:
		tfidf := embedding.NewTFIDF()
		texts := make([]string, 0, store.Len())
		for _, d := range store.All() {
			texts = append(texts, d.Text)
		}
		if err := tfidf.Fit(texts); err != nil {
			return nil, err
		}
		encoder = tfidf
	}

	if redisClient != nil {
		encoder = embedding.NewCachedEncoder(encoder, redisClient, 24*time.Hour)
	}
	return encoder, nil
}

func serveMetrics(addr string) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/metrics", metrics.Handler())
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})
	appLogger.Info("Metrics server starting", zap.String("address", addr))
	if err := app.Listen(addr); err != nil {
		appLogger.Error("Metrics server failed", zap.Error(err))
	}
}
