package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range keys {
		t.Setenv(k, "")
	}
	t.Setenv("PORT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, DriverMongo, cfg.DBDriver)
	assert.Equal(t, "mysimo", cfg.MongoDatabase)
	assert.Equal(t, []string{"https://mysimofrontend.vercel.app", "http://localhost:5173"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsDev())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", " Postgres ")
	t.Setenv("POSTGRES_URI", "postgres://u:p@localhost/mysimo")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, DriverPostgres, cfg.DBDriver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsDev())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"mongo ok in dev", Config{Env: "development", DBDriver: DriverMongo, MongoURI: "mongodb://x", MongoDatabase: "m"}, ""},
		{"mongo without uri", Config{Env: "development", DBDriver: DriverMongo, MongoDatabase: "m"}, "MONGO_URI"},
		{"postgres without uri", Config{Env: "development", DBDriver: DriverPostgres}, "POSTGRES_URI"},
		{"memory outside dev", Config{Env: "production", DBDriver: DriverMemory, JWTSecret: "x"}, "only allowed in development"},
		{"unknown driver", Config{Env: "development", DBDriver: "mysql"}, "DB_DRIVER must be"},
		{"missing secret in production", Config{Env: "production", DBDriver: DriverPostgres, PostgresURI: "postgres://x"}, "JWT_SECRET"},
		{"missing secret in dev", Config{Env: "development", DBDriver: DriverMemory}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
