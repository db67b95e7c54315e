package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Generator providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AWS       AWSConfig
	Uploads   UploadsConfig
	Generator GeneratorConfig
	AMQP      AMQPConfig
	RateLimit RateLimitConfig
	Results   ResultsConfig
	Analytics AnalyticsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins []string // "*" allows all
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string // postgres | mongo
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI      string
	Database string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// AWSConfig holds AWS credentials and the uploads bucket. Empty bucket keeps uploads on local disk.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	UploadsBucket   string
}

// UploadsConfig bounds study-material uploads.
type UploadsConfig struct {
	MaxBytes int64
	LocalDir string // used when no S3 bucket is configured; empty = os.TempDir()
}

// GeneratorConfig selects and tunes the question generator backend.
type GeneratorConfig struct {
	Provider          string // gemini | openai
	GeminiAPIKey      string
	GeminiModel       string
	BaseURL           string // OpenAI-compatible endpoint, e.g. https://api.together.xyz/v1
	APIKey            string
	Model             string
	Timeout           time.Duration
	MaxAttempts       int
	DefaultDifficulty string
}

// AMQPConfig holds RabbitMQ settings for domain events. Empty URL disables publishing.
type AMQPConfig struct {
	URL      string
	Exchange string
}

// RateLimitConfig bounds generation requests per user.
type RateLimitConfig struct {
	GenerateLimit  int
	GenerateWindow time.Duration
}

// ResultsConfig tunes result submission.
type ResultsConfig struct {
	// VerifyCorrectness recomputes isCorrect against the stored quiz instead of trusting the client.
	VerifyCorrectness bool
}

// AnalyticsConfig tunes the per-user analytics cache.
type AnalyticsConfig struct {
	CacheTTL time.Duration
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: splitTrim(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "quizforge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DATABASE", "quizforge"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			UploadsBucket:   getEnv("AWS_S3_UPLOADS_BUCKET", ""),
		},
		Uploads: UploadsConfig{
			MaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
			LocalDir: getEnv("UPLOAD_LOCAL_DIR", ""),
		},
		Generator: GeneratorConfig{
			Provider:          strings.ToLower(getEnv("GENERATOR_PROVIDER", ProviderGemini)),
			GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
			GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BaseURL:           getEnv("GENERATOR_BASE_URL", "https://api.together.xyz/v1"),
			APIKey:            getEnv("GENERATOR_API_KEY", ""),
			Model:             getEnv("GENERATOR_MODEL", "deepseek-ai/DeepSeek-R1-Distill-Llama-70B-free"),
			Timeout:           getEnvDuration("GENERATOR_TIMEOUT", 30*time.Second),
			MaxAttempts:       getEnvInt("GENERATOR_MAX_ATTEMPTS", 2),
			DefaultDifficulty: getEnv("GENERATOR_DEFAULT_DIFFICULTY", "medium"),
		},
		AMQP: AMQPConfig{
			URL:      getEnv("AMQP_URL", ""),
			Exchange: getEnv("AMQP_EXCHANGE", "quizforge.events"),
		},
		RateLimit: RateLimitConfig{
			GenerateLimit:  getEnvInt("RATE_LIMIT_GENERATE", 10),
			GenerateWindow: getEnvDuration("RATE_LIMIT_GENERATE_WINDOW", time.Minute),
		},
		Results: ResultsConfig{
			VerifyCorrectness: getEnvBool("RESULTS_VERIFY_CORRECTNESS", false),
		},
		Analytics: AnalyticsConfig{
			CacheTTL: getEnvDuration("ANALYTICS_CACHE_TTL", time.Minute),
		},
	}

	switch cfg.Store.Driver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}
	switch cfg.Generator.Provider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return nil, fmt.Errorf("unknown GENERATOR_PROVIDER %q", cfg.Generator.Provider)
	}
	if cfg.Generator.MaxAttempts < 1 {
		cfg.Generator.MaxAttempts = 1
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
