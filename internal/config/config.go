package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	App      AppConfig
	Report   ReportConfig
	Images   ImageConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled       bool
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	TTLSeconds    int
}

type AppConfig struct {
	ExtractDir string
	MasterDir  string
	UploadDir  string
}

// ReportConfig controls how extracts are parsed and aggregated.
type ReportConfig struct {
	// Encoding of delimited extracts: utf-8, shift-jis or euc-jp.
	Encoding string
	// DateLayout is the Go layout of the date token embedded in extract
	// filenames, e.g. 20060102.
	DateLayout string
	// SalesReason is the update-reason value that marks a row as a
	// customer order.
	SalesReason string
	// DefaultTargetDays is the safety-stock horizon used when the caller
	// does not supply one.
	DefaultTargetDays int
}

type ImageConfig struct {
	FetchEnabled   bool
	FetchURL       string // template, %s replaced by the product key
	FetchWorkers   int
	TimeoutSeconds int
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_ENABLED", false)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "zaiko")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_TTL_SECONDS", 300)
		viper.SetDefault("APP_EXTRACT_DIR", "./data/extracts")
		viper.SetDefault("APP_MASTER_DIR", "./data/masters")
		viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
		viper.SetDefault("REPORT_ENCODING", "shift-jis")
		viper.SetDefault("REPORT_DATE_LAYOUT", "20060102")
		viper.SetDefault("REPORT_SALES_REASON", "注文取込")
		viper.SetDefault("REPORT_DEFAULT_TARGET_DAYS", 30)
		viper.SetDefault("IMAGE_FETCH_ENABLED", false)
		viper.SetDefault("IMAGE_FETCH_URL", "")
		viper.SetDefault("IMAGE_FETCH_WORKERS", 8)
		viper.SetDefault("IMAGE_FETCH_TIMEOUT_SECONDS", 5)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "")
		viper.SetDefault("STORAGE_PREFIX", "")
		viper.SetDefault("STORAGE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure data directories exist
		ensureDir(viper.GetString("APP_EXTRACT_DIR"))
		ensureDir(viper.GetString("APP_MASTER_DIR"))
		ensureDir(viper.GetString("APP_UPLOAD_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("DB_ENABLED"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:       viper.GetBool("CACHE_ENABLED"),
				RedisURL:      viper.GetString("REDIS_URL"),
				RedisHost:     viper.GetString("REDIS_HOST"),
				RedisPort:     viper.GetString("REDIS_PORT"),
				RedisPassword: viper.GetString("REDIS_PASSWORD"),
				RedisDB:       viper.GetInt("REDIS_DB"),
				TTLSeconds:    viper.GetInt("CACHE_TTL_SECONDS"),
			},
			App: AppConfig{
				ExtractDir: viper.GetString("APP_EXTRACT_DIR"),
				MasterDir:  viper.GetString("APP_MASTER_DIR"),
				UploadDir:  viper.GetString("APP_UPLOAD_DIR"),
			},
			Report: ReportConfig{
				Encoding:          viper.GetString("REPORT_ENCODING"),
				DateLayout:        viper.GetString("REPORT_DATE_LAYOUT"),
				SalesReason:       viper.GetString("REPORT_SALES_REASON"),
				DefaultTargetDays: viper.GetInt("REPORT_DEFAULT_TARGET_DAYS"),
			},
			Images: ImageConfig{
				FetchEnabled:   viper.GetBool("IMAGE_FETCH_ENABLED"),
				FetchURL:       viper.GetString("IMAGE_FETCH_URL"),
				FetchWorkers:   viper.GetInt("IMAGE_FETCH_WORKERS"),
				TimeoutSeconds: viper.GetInt("IMAGE_FETCH_TIMEOUT_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:   viper.GetBool("STORAGE_ENABLED"),
				Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
				AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:    viper.GetString("STORAGE_BUCKET"),
				Prefix:    viper.GetString("STORAGE_PREFIX"),
				UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
