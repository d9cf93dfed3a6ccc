package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store backends.
const (
	StoreBackendMemory   = "memory"
	StoreBackendRedis    = "redis"
	StoreBackendPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store      StoreConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Admin      AdminConfig
	Fees       FeesConfig
	Attendance AttendanceConfig
	Media      MediaConfig
	Mail       MailConfig
	Assistant  AssistantConfig
	Recaptcha  RecaptchaConfig
	Dashboard  DashboardConfig
	Video      VideoConfig
}

// StoreConfig selects the key-value backend for the record store.
type StoreConfig struct {
	Backend    string
	Namespace  string
	MaxRetries int
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
	Issuer            string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AdminConfig seeds the bootstrap administrator account.
type AdminConfig struct {
	Email    string
	Password string
	SchoolID string
}

// FeesConfig tunes schedule synthesis.
type FeesConfig struct {
	DefaultTotal int64
	SeniorTotal  int64
	Installments int
}

// AttendanceConfig pins the daily-status classification threshold.
type AttendanceConfig struct {
	LateAfter string
}

// MediaConfig controls photo storage and signed download URLs.
type MediaConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	PublicBaseURL   string
}

// MailConfig selects the outbound email provider.
type MailConfig struct {
	Provider    string
	SendGridKey string
	FromName    string
	FromEmail   string
}

// AssistantConfig wires the generative-AI boundary.
type AssistantConfig struct {
	Enabled bool
	APIKey  string
	Model   string
}

// RecaptchaConfig configures token verification against the
// risk-assessment API.
type RecaptchaConfig struct {
	VerifyURL string
	APIKey    string
	ProjectID string
	MinScore  float64
}

// DashboardConfig governs dashboard exposure and cache tuning.
type DashboardConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// VideoConfig controls promotional-video generation jobs.
type VideoConfig struct {
	Enabled      bool
	OperationURL string
	PollInterval time.Duration
	PollTimeout  time.Duration
	Workers      int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Backend:    v.GetString("STORE_BACKEND"),
		Namespace:  v.GetString("STORE_NAMESPACE"),
		MaxRetries: v.GetInt("STORE_MAX_RETRIES"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
		Issuer:            v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Admin = AdminConfig{
		Email:    v.GetString("ADMIN_EMAIL"),
		Password: v.GetString("ADMIN_PASSWORD"),
		SchoolID: v.GetString("ADMIN_SCHOOL_ID"),
	}

	cfg.Fees = FeesConfig{
		DefaultTotal: v.GetInt64("FEES_DEFAULT_TOTAL"),
		SeniorTotal:  v.GetInt64("FEES_SENIOR_TOTAL"),
		Installments: v.GetInt("FEES_INSTALLMENTS"),
	}

	cfg.Attendance = AttendanceConfig{
		LateAfter: v.GetString("ATTENDANCE_LATE_AFTER"),
	}

	cfg.Media = MediaConfig{
		StorageDir:      v.GetString("MEDIA_STORAGE_DIR"),
		SignedURLSecret: v.GetString("MEDIA_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("MEDIA_SIGNED_URL_TTL"), 24*time.Hour),
		PublicBaseURL:   v.GetString("MEDIA_PUBLIC_BASE_URL"),
	}

	cfg.Mail = MailConfig{
		Provider:    v.GetString("MAIL_PROVIDER"),
		SendGridKey: v.GetString("SENDGRID_API_KEY"),
		FromName:    v.GetString("MAIL_FROM_NAME"),
		FromEmail:   v.GetString("MAIL_FROM_EMAIL"),
	}

	cfg.Assistant = AssistantConfig{
		Enabled: v.GetBool("ENABLE_ASSISTANT"),
		APIKey:  v.GetString("GEMINI_API_KEY"),
		Model:   v.GetString("ASSISTANT_MODEL"),
	}

	cfg.Recaptcha = RecaptchaConfig{
		VerifyURL: v.GetString("RECAPTCHA_VERIFY_URL"),
		APIKey:    v.GetString("RECAPTCHA_API_KEY"),
		ProjectID: v.GetString("RECAPTCHA_PROJECT_ID"),
		MinScore:  v.GetFloat64("RECAPTCHA_MIN_SCORE"),
	}

	cfg.Dashboard = DashboardConfig{
		Enabled:  v.GetBool("ENABLE_DASHBOARD"),
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Video = VideoConfig{
		Enabled:      v.GetBool("ENABLE_VIDEO_ADS"),
		OperationURL: v.GetString("VIDEO_OPERATION_URL"),
		PollInterval: parseDuration(v.GetString("VIDEO_POLL_INTERVAL"), 5*time.Second),
		PollTimeout:  parseDuration(v.GetString("VIDEO_POLL_TIMEOUT"), 5*time.Minute),
		Workers:      v.GetInt("VIDEO_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_BACKEND", StoreBackendMemory)
	v.SetDefault("STORE_NAMESPACE", "institute")
	v.SetDefault("STORE_MAX_RETRIES", 5)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "institute")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")
	v.SetDefault("JWT_ISSUER", "institute-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ADMIN_EMAIL", "admin@webandapp.edu")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_SCHOOL_ID", "main")

	v.SetDefault("FEES_DEFAULT_TOTAL", 45000)
	v.SetDefault("FEES_SENIOR_TOTAL", 54000)
	v.SetDefault("FEES_INSTALLMENTS", 6)

	v.SetDefault("ATTENDANCE_LATE_AFTER", "09:00")

	v.SetDefault("MEDIA_STORAGE_DIR", "./media")
	v.SetDefault("MEDIA_SIGNED_URL_SECRET", "dev_media_secret")
	v.SetDefault("MEDIA_SIGNED_URL_TTL", "24h")
	v.SetDefault("MEDIA_PUBLIC_BASE_URL", "http://localhost:8080/media")

	v.SetDefault("MAIL_PROVIDER", "console")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM_NAME", "Web & App Institute")
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@webandapp.edu")

	v.SetDefault("ENABLE_ASSISTANT", false)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("ASSISTANT_MODEL", "gemini-1.5-flash")

	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://recaptchaenterprise.googleapis.com")
	v.SetDefault("RECAPTCHA_API_KEY", "")
	v.SetDefault("RECAPTCHA_PROJECT_ID", "")
	v.SetDefault("RECAPTCHA_MIN_SCORE", 0.5)

	v.SetDefault("ENABLE_DASHBOARD", true)
	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("ENABLE_VIDEO_ADS", false)
	v.SetDefault("VIDEO_OPERATION_URL", "")
	v.SetDefault("VIDEO_POLL_INTERVAL", "5s")
	v.SetDefault("VIDEO_POLL_TIMEOUT", "5m")
	v.SetDefault("VIDEO_WORKERS", 1)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
