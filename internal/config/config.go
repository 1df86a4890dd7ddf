package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Env            string   `mapstructure:"ENV"`
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	DBDriver       string   `mapstructure:"DB_DRIVER"`
	MongoURI       string   `mapstructure:"MONGO_URI"`
	MongoDatabase  string   `mapstructure:"MONGO_DATABASE"`
	PostgresURI    string   `mapstructure:"POSTGRES_URI"`
	GeminiAPIKey   string   `mapstructure:"GEMINI_API_KEY"`
	TextbeltAPIKey string   `mapstructure:"TEXTBELT_API_KEY"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL", "JWT_SECRET", "CORS_ORIGINS", "DB_DRIVER",
	"MONGO_URI", "MONGO_DATABASE", "POSTGRES_URI", "GEMINI_API_KEY", "TEXTBELT_API_KEY",
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "4000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ORIGINS", "https://mysimofrontend.vercel.app,http://localhost:5173")
	v.SetDefault("DB_DRIVER", DriverMongo)
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "mysimo")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// viper leaves a comma separated env value as a single element.
	cfg.CORSOrigins = splitOrigins(v.GetString("CORS_ORIGINS"))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	return cfg, nil
}

func splitOrigins(raw string) []string {
	out := make([]string, 0)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Validate checks that the selected store is reachable by configuration and
// that tokens can be signed outside development.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when DB_DRIVER is %q", c.DBDriver)
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("MONGO_DATABASE is required when DB_DRIVER is %q", c.DBDriver)
		}
	case DriverPostgres:
		if c.PostgresURI == "" {
			return fmt.Errorf("POSTGRES_URI is required when DB_DRIVER is %q", c.DBDriver)
		}
	case DriverMemory:
		if !c.IsDev() {
			return fmt.Errorf("DB_DRIVER %q is only allowed in development", c.DBDriver)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q, %q or %q, got %q", DriverMongo, DriverPostgres, DriverMemory, c.DBDriver)
	}

	if c.JWTSecret == "" && !c.IsDev() {
		return fmt.Errorf("JWT_SECRET is required when ENV is %q", c.Env)
	}
	return nil
}
