package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Corpus    CorpusConfig
	Encoder   EncoderConfig
	Retrieval RetrievalConfig
	Local     LocalModelConfig
	Remote    RemoteModelConfig
	Pipeline  PipelineConfig
	Cache     CacheConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

type CorpusConfig struct {
	Path              string
	SentencesPerChunk int
	OverlapSentences  int
}

// EncoderConfig selects the query/corpus embedding encoder. Type "tfidf" is
// fitted over the corpus at startup and needs no network; "openai" talks to
// any OpenAI-compatible embeddings endpoint (a local llama.cpp server works).
type EncoderConfig struct {
	Type       string
	BaseURL    string
	APIKey     string
	Model      string
	TimeoutSec int
}

type RetrievalConfig struct {
	K                   int
	SimilarityThreshold float64
	TimeoutMs           int
}

// LocalModelConfig points at a co-located OpenAI-compatible completion
// server. An empty ModelPath disables the local tier entirely.
type LocalModelConfig struct {
	ModelPath   string
	Endpoint    string
	Temperature float32
	MaxTokens   int
	TimeoutMs   int
}

// RemoteModelConfig configures the hosted model. An empty APIKey disables
// the remote tier.
type RemoteModelConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	TimeoutMs   int
}

type PipelineConfig struct {
	// LongQuestionWords routes questions above this word count straight to
	// the remote tier. Zero disables the heuristic.
	LongQuestionWords int
	PromptCharBudget  int
}

type CacheConfig struct {
	Enabled      bool
	Host         string
	Port         int
	Password     string
	DB           int
	AnswerTTLMin int
}

type MetricsConfig struct {
	// ListenAddr exposes /metrics and /healthz when non-empty. Off by
	// default: the usual deployment is a single desktop GUI.
	ListenAddr string
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	// The hosted-model key usually lives in a .env file next to the binary.
	// A missing file is fine.
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cookassist")

	viper.SetEnvPrefix("COOKASSIST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Accept the bare env var too; most hosted-model setups export it already.
	if config.Remote.APIKey == "" {
		config.Remote.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects option values that would make the pipeline misbehave at
// query time. Called at startup so bad configuration is a distinct fatal
// error rather than a per-query failure.
func Validate(cfg *Config) error {
	if cfg.Corpus.Path == "" {
		return fmt.Errorf("corpus.path is required")
	}
	if cfg.Retrieval.K <= 0 {
		return fmt.Errorf("retrieval.k must be > 0, got %d", cfg.Retrieval.K)
	}
	if cfg.Retrieval.SimilarityThreshold < 0 || cfg.Retrieval.SimilarityThreshold > 1 {
		return fmt.Errorf("retrieval.similarityThreshold must be in [0,1], got %g", cfg.Retrieval.SimilarityThreshold)
	}
	switch cfg.Encoder.Type {
	case "tfidf", "openai":
	default:
		return fmt.Errorf("encoder.type must be tfidf or openai, got %q", cfg.Encoder.Type)
	}
	if cfg.Encoder.Type == "openai" && cfg.Encoder.BaseURL == "" {
		return fmt.Errorf("encoder.baseURL is required for the openai encoder")
	}
	for name, ms := range map[string]int{
		"retrieval.timeoutMs": cfg.Retrieval.TimeoutMs,
		"local.timeoutMs":     cfg.Local.TimeoutMs,
		"remote.timeoutMs":    cfg.Remote.TimeoutMs,
	} {
		if ms <= 0 {
			return fmt.Errorf("%s must be > 0, got %d", name, ms)
		}
	}
	return nil
}

func (c RetrievalConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

func (c LocalModelConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

// Enabled reports whether the local tier is configured. No model artifacts
// means no local inference.
func (c LocalModelConfig) Enabled() bool { return c.ModelPath != "" }

func (c RemoteModelConfig) Timeout() time.Duration { return time.Duration(c.TimeoutMs) * time.Millisecond }

func (c RemoteModelConfig) Enabled() bool { return c.APIKey != "" }

func setDefaults() {
	viper.SetDefault("corpus.path", "./data/corpus.json")
	viper.SetDefault("corpus.sentencesPerChunk", 5)
	viper.SetDefault("corpus.overlapSentences", 1)

	viper.SetDefault("encoder.type", "tfidf")
	viper.SetDefault("encoder.model", "text-embedding-3-small")
	viper.SetDefault("encoder.timeoutSec", 15)

	viper.SetDefault("retrieval.k", 3)
	viper.SetDefault("retrieval.similarityThreshold", 0.25)
	viper.SetDefault("retrieval.timeoutMs", 10000)

	viper.SetDefault("local.endpoint", "http://127.0.0.1:8080/v1")
	viper.SetDefault("local.temperature", 0.7)
	viper.SetDefault("local.maxTokens", 512)
	viper.SetDefault("local.timeoutMs", 60000)

	viper.SetDefault("remote.model", "gpt-4o-mini")
	viper.SetDefault("remote.temperature", 0.7)
	viper.SetDefault("remote.maxTokens", 512)
	viper.SetDefault("remote.timeoutMs", 30000)

	viper.SetDefault("pipeline.longQuestionWords", 15)
	viper.SetDefault("pipeline.promptCharBudget", 6000)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.host", "localhost")
	viper.SetDefault("cache.port", 6379)
	viper.SetDefault("cache.db", 0)
	viper.SetDefault("cache.answerTTLMin", 60)

	viper.SetDefault("metrics.listenAddr", "")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.outputPath", "stderr")
}
