package config

import (
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Affiliate  `yaml:"affiliate"`
	Auth       `yaml:"auth"`
	Crypto     `yaml:"crypto"`
}

// HTTPServer holds HTTP server specific configuration.
type HTTPServer struct {
	Port int `yaml:"port" env:"HTTP_SERVER_PORT" env-default:"8080"`
}

// Database holds storage configuration. Driver "sqlite" is intended for
// local development only.
type Database struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"afflink"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:""`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"afflink"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	SQLitePath      string `yaml:"sqlite_path" env:"DB_SQLITE_PATH" env-default:"afflink.db"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	SeedData        bool   `yaml:"seed_data" env:"DB_SEED_DATA" env-default:"false"`
}

// Affiliate holds link-generation specific configuration.
type Affiliate struct {
	// ProviderTimeout bounds the outbound call so a hung provider cannot
	// block the fallback path.
	ProviderTimeout string `yaml:"provider_timeout" env:"AFFILIATE_PROVIDER_TIMEOUT" env-default:"15s"`
}

// Auth holds admin authentication configuration.
type Auth struct {
	JWTSecret         string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	AccessTokenTTL    string `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"12h"`
	AdminEmail        string `yaml:"admin_email" env:"AUTH_ADMIN_EMAIL" env-default:"admin@localhost"`
	AdminPasswordHash string `yaml:"admin_password_hash" env:"AUTH_ADMIN_PASSWORD_HASH" env-required:"true"`
}

// Crypto holds at-rest encryption configuration.
type Crypto struct {
	MasterKey string `yaml:"master_key" env:"CRYPTO_MASTER_KEY" env-required:"true"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	// Check if config file path is specified
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml" // default path
	}

	// Try to load config file
	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		// If config file doesn't exist, use environment variables only
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
