package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const VERSION = "1.4"

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Security    SecurityConfig
	Storage     StorageConfig
	Cache       CacheConfig
	Crawler     CrawlerConfig
	Tracing     TracingConfig
	Renderer    RendererConfig
	Environment string
	PublicURL   string
	LogLevel    string
	Version     string
}

type ServerConfig struct {
	Port int
	Host string
	SSL  SSLConfig
	// AllowedOrigins is the CORS allow-list, "*" allows any origin.
	AllowedOrigins []string
	// ConsoleDir holds the built admin console, empty disables it.
	ConsoleDir string
}

type SSLConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

type SecurityConfig struct {
	// JWTSecret signs session tokens (HS256).
	JWTSecret  []byte
	SessionTTL time.Duration

	// The default admin account is recreated on login when missing.
	DefaultAdminEmail    string
	DefaultAdminPassword string
	DefaultAdminName     string
}

type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	// PublicBaseURL serves objects without signing when the bucket is public.
	PublicBaseURL string
	PresignTTL    time.Duration
	MaxUploadSize int64
}

type CacheConfig struct {
	Backend  string // "memory" or "redis"
	RedisURL string
	URLTTL   time.Duration
}

type CrawlerConfig struct {
	Timeout   time.Duration
	UserAgent string
}

type RendererConfig struct {
	ImageResolveTimeout time.Duration
	MaxParallel         int
}

type TracingConfig struct {
	Enabled             bool
	ServiceName         string
	SamplingProbability float64

	// TraceExporter is one of "jaeger", "zipkin", "stackdriver", "datadog", "xray" or "none".
	TraceExporter string

	JaegerEndpoint       string
	ZipkinEndpoint       string
	StackdriverProjectID string
	DatadogAgentAddress  string
	XRayRegion           string

	// MetricsExporter is a comma separated list of "prometheus", "stackdriver", "datadog" or "none".
	MetricsExporter string
	PrometheusPort  int
}

// LoadOptions contains options for loading configuration
type LoadOptions struct {
	EnvFile string // Optional environment file to load (e.g., ".env", ".env.test")
}

// Load loads the configuration with default options
func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{EnvFile: ".env"})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("CONSOLE_DIR", "console/dist")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("PUBLIC_URL", "http://localhost:8080")
	v.SetDefault("ENVIRONMENT", "production")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("VERSION", VERSION)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "campaigns")
	v.SetDefault("DB_SSLMODE", "require")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "10m")

	v.SetDefault("SESSION_TTL", "72h")
	v.SetDefault("DEFAULT_ADMIN_EMAIL", "admin@lifenjoy.com")
	v.SetDefault("DEFAULT_ADMIN_PASSWORD", "1234")
	v.SetDefault("DEFAULT_ADMIN_NAME", "Super Admin")

	v.SetDefault("STORAGE_REGION", "ap-northeast-2")
	v.SetDefault("STORAGE_FORCE_PATH_STYLE", false)
	v.SetDefault("STORAGE_PRESIGN_TTL", "15m")
	v.SetDefault("STORAGE_MAX_UPLOAD_SIZE", 10<<20)

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_URL_TTL", "10m")

	v.SetDefault("CRAWLER_TIMEOUT", "10s")
	v.SetDefault("CRAWLER_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")

	v.SetDefault("RENDERER_IMAGE_RESOLVE_TIMEOUT", "3s")
	v.SetDefault("RENDERER_MAX_PARALLEL", 8)

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "campaigns-api")
	v.SetDefault("TRACING_SAMPLING_PROBABILITY", 0.1)
	v.SetDefault("TRACING_TRACE_EXPORTER", "none")
	v.SetDefault("TRACING_JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	v.SetDefault("TRACING_ZIPKIN_ENDPOINT", "http://localhost:9411/api/v2/spans")
	v.SetDefault("TRACING_DATADOG_AGENT_ADDRESS", "localhost:8126")
	v.SetDefault("TRACING_XRAY_REGION", "ap-northeast-2")
	v.SetDefault("TRACING_METRICS_EXPORTER", "none")
	v.SetDefault("TRACING_PROMETHEUS_PORT", 9464)
}

// LoadWithOptions loads the configuration with the specified options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if opts.EnvFile != "" {
		v.SetConfigName(opts.EnvFile)
		v.SetConfigType("env")

		currentPath, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("error getting current directory: %w", err)
		}
		v.AddConfigPath(currentPath)

		if err := v.ReadInConfig(); err != nil {
			// It's okay if config file doesn't exist
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(jwtSecret) < 16 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}

	cacheBackend := strings.ToLower(v.GetString("CACHE_BACKEND"))
	switch cacheBackend {
	case "memory":
	case "redis":
		if v.GetString("REDIS_URL") == "" {
			return nil, fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is redis")
		}
	default:
		return nil, fmt.Errorf("unsupported CACHE_BACKEND: %s", cacheBackend)
	}

	config := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
			Host: v.GetString("SERVER_HOST"),
			SSL: SSLConfig{
				Enabled:  v.GetBool("SSL_ENABLED"),
				CertFile: v.GetString("SSL_CERT_FILE"),
				KeyFile:  v.GetString("SSL_KEY_FILE"),
			},
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			ConsoleDir:     v.GetString("CONSOLE_DIR"),
		},
		Database: DatabaseConfig{
			Host:         v.GetString("DB_HOST"),
			Port:         v.GetInt("DB_PORT"),
			User:         v.GetString("DB_USER"),
			Password:     v.GetString("DB_PASSWORD"),
			DBName:       v.GetString("DB_NAME"),
			SSLMode:      v.GetString("DB_SSLMODE"),
			MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLife:  v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Security: SecurityConfig{
			JWTSecret:            []byte(jwtSecret),
			SessionTTL:           v.GetDuration("SESSION_TTL"),
			DefaultAdminEmail:    v.GetString("DEFAULT_ADMIN_EMAIL"),
			DefaultAdminPassword: v.GetString("DEFAULT_ADMIN_PASSWORD"),
			DefaultAdminName:     v.GetString("DEFAULT_ADMIN_NAME"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("STORAGE_BUCKET"),
			Region:          v.GetString("STORAGE_REGION"),
			Endpoint:        v.GetString("STORAGE_ENDPOINT"),
			AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
			ForcePathStyle:  v.GetBool("STORAGE_FORCE_PATH_STYLE"),
			PublicBaseURL:   strings.TrimSuffix(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			PresignTTL:      v.GetDuration("STORAGE_PRESIGN_TTL"),
			MaxUploadSize:   v.GetInt64("STORAGE_MAX_UPLOAD_SIZE"),
		},
		Cache: CacheConfig{
			Backend:  cacheBackend,
			RedisURL: v.GetString("REDIS_URL"),
			URLTTL:   v.GetDuration("CACHE_URL_TTL"),
		},
		Crawler: CrawlerConfig{
			Timeout:   v.GetDuration("CRAWLER_TIMEOUT"),
			UserAgent: v.GetString("CRAWLER_USER_AGENT"),
		},
		Renderer: RendererConfig{
			ImageResolveTimeout: v.GetDuration("RENDERER_IMAGE_RESOLVE_TIMEOUT"),
			MaxParallel:         v.GetInt("RENDERER_MAX_PARALLEL"),
		},
		Tracing: TracingConfig{
			Enabled:              v.GetBool("TRACING_ENABLED"),
			ServiceName:          v.GetString("TRACING_SERVICE_NAME"),
			SamplingProbability:  v.GetFloat64("TRACING_SAMPLING_PROBABILITY"),
			TraceExporter:        v.GetString("TRACING_TRACE_EXPORTER"),
			JaegerEndpoint:       v.GetString("TRACING_JAEGER_ENDPOINT"),
			ZipkinEndpoint:       v.GetString("TRACING_ZIPKIN_ENDPOINT"),
			StackdriverProjectID: v.GetString("TRACING_STACKDRIVER_PROJECT_ID"),
			DatadogAgentAddress:  v.GetString("TRACING_DATADOG_AGENT_ADDRESS"),
			XRayRegion:           v.GetString("TRACING_XRAY_REGION"),
			MetricsExporter:      v.GetString("TRACING_METRICS_EXPORTER"),
			PrometheusPort:       v.GetInt("TRACING_PROMETHEUS_PORT"),
		},
		Environment: v.GetString("ENVIRONMENT"),
		PublicURL:   strings.TrimSuffix(v.GetString("PUBLIC_URL"), "/"),
		LogLevel:    v.GetString("LOG_LEVEL"),
		Version:     v.GetString("VERSION"),
	}

	return config, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDevelopment returns true if the environment is set to development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// StorageEnabled reports whether an object store is configured for uploads.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Bucket != ""
}
