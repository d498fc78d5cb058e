package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_WithDefaults(t *testing.T) {
	// Clear all environment variables
	clearConfigEnvVars()

	// Set only required env vars (password and secret have no default)
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("JWT_SECRET", "secret")
	defer clearConfigEnvVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify defaults
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "development" {
		t.Errorf("Expected env development, got %s", cfg.Server.Env)
	}
	if cfg.Database.Host != "host.docker.internal" {
		t.Errorf("Expected host host.docker.internal, got %s", cfg.Database.Host)
	}
	if cfg.Database.Name != "bluesky" {
		t.Errorf("Expected db name bluesky, got %s", cfg.Database.Name)
	}
	if cfg.Database.PoolMin != 2 {
		t.Errorf("Expected pool min 2, got %d", cfg.Database.PoolMin)
	}
	if cfg.Database.PoolMax != 10 {
		t.Errorf("Expected pool max 10, got %d", cfg.Database.PoolMax)
	}
	if cfg.Database.AutoMigrate {
		t.Error("Expected auto migrate to be off by default")
	}
	if len(cfg.CORS.Origins) != 2 {
		t.Errorf("Expected 2 CORS origins, got %d", len(cfg.CORS.Origins))
	}
	if cfg.Auth.Issuer != "bluesky" {
		t.Errorf("Expected issuer bluesky, got %s", cfg.Auth.Issuer)
	}
	if cfg.RateLimit.Enabled {
		t.Error("Expected rate limiting to be off by default")
	}
	if cfg.RateLimit.Rate != "300-M" {
		t.Errorf("Expected rate 300-M, got %s", cfg.RateLimit.Rate)
	}
	if cfg.Tracing.Enabled {
		t.Error("Expected tracing to be off by default")
	}
	if cfg.Tracing.SampleRatio != 0.1 {
		t.Errorf("Expected sample ratio 0.1, got %f", cfg.Tracing.SampleRatio)
	}
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	clearConfigEnvVars()

	// Set all environment variables
	os.Setenv("PORT", "9090")
	os.Setenv("ENV", "production")
	os.Setenv("DB_HOST", "localhost")
	os.Setenv("DB_PORT", "5433")
	os.Setenv("DB_NAME", "testdb")
	os.Setenv("DB_USER", "testuser")
	os.Setenv("DB_PASSWORD", "testpass")
	os.Setenv("DB_POOL_MIN", "5")
	os.Setenv("DB_POOL_MAX", "20")
	os.Setenv("DB_AUTO_MIGRATE", "true")
	os.Setenv("CORS_ORIGINS", "http://example.com,https://app.example.com")
	os.Setenv("JWT_SECRET", "s3cret")
	os.Setenv("JWT_ISSUER", "seed")
	os.Setenv("AUTHZ_POLICY_PATH", "/etc/bluesky/policy.csv")
	os.Setenv("RATE_LIMIT_ENABLED", "true")
	os.Setenv("RATE_LIMIT_RATE", "10-S")
	os.Setenv("RATE_LIMIT_REDIS_URL", "redis://localhost:6379/0")
	os.Setenv("OTEL_ENABLED", "true")
	os.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	os.Setenv("OTEL_SAMPLER_RATIO", "0.5")
	defer clearConfigEnvVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Verify all values from environment
	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.Env != "production" {
		t.Errorf("Expected env production, got %s", cfg.Server.Env)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Expected host localhost, got %s", cfg.Database.Host)
	}
	if cfg.Database.Port != "5433" {
		t.Errorf("Expected port 5433, got %s", cfg.Database.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("Expected db name testdb, got %s", cfg.Database.Name)
	}
	if cfg.Database.User != "testuser" {
		t.Errorf("Expected user testuser, got %s", cfg.Database.User)
	}
	if cfg.Database.PoolMin != 5 {
		t.Errorf("Expected pool min 5, got %d", cfg.Database.PoolMin)
	}
	if cfg.Database.PoolMax != 20 {
		t.Errorf("Expected pool max 20, got %d", cfg.Database.PoolMax)
	}
	if !cfg.Database.AutoMigrate {
		t.Error("Expected auto migrate to be enabled")
	}
	if cfg.CORS.Origins[0] != "http://example.com" {
		t.Errorf("Expected first origin http://example.com, got %s", cfg.CORS.Origins[0])
	}
	if cfg.Auth.JWTSecret != "s3cret" || cfg.Auth.Issuer != "seed" {
		t.Errorf("Unexpected auth config: %+v", cfg.Auth)
	}
	if cfg.Authz.PolicyPath != "/etc/bluesky/policy.csv" {
		t.Errorf("Expected policy path, got %s", cfg.Authz.PolicyPath)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Rate != "10-S" || cfg.RateLimit.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Unexpected rate limit config: %+v", cfg.RateLimit)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Endpoint != "collector:4318" || cfg.Tracing.SampleRatio != 0.5 {
		t.Errorf("Unexpected tracing config: %+v", cfg.Tracing)
	}
}

func TestLoad_FromDotEnvFile(t *testing.T) {
	clearConfigEnvVars()
	defer clearConfigEnvVars()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "DB_PASSWORD=fromfile\nJWT_SECRET=filesecret\nPORT=7070\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	os.Setenv("ENV_FILE", path)
	// Process environment wins over the file
	os.Setenv("PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Database.Password != "fromfile" {
		t.Errorf("Expected password from env file, got %s", cfg.Database.Password)
	}
	if cfg.Auth.JWTSecret != "filesecret" {
		t.Errorf("Expected secret from env file, got %s", cfg.Auth.JWTSecret)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("Expected process env port 6060, got %s", cfg.Server.Port)
	}
}

func TestLoad_MissingPassword(t *testing.T) {
	// Clear all environment variables (password has no default)
	clearConfigEnvVars()
	os.Setenv("JWT_SECRET", "secret")
	defer clearConfigEnvVars()

	_, err := Load()
	if err == nil {
		t.Error("Expected error when DB_PASSWORD is missing")
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	clearConfigEnvVars()
	os.Setenv("DB_PASSWORD", "testpass")
	defer clearConfigEnvVars()

	_, err := Load()
	if err == nil {
		t.Error("Expected error when JWT_SECRET is missing")
	}
}

func TestValidate_InvalidPoolSizes(t *testing.T) {
	tests := []struct {
		name    string
		poolMin int
		poolMax int
		wantErr bool
	}{
		{
			name:    "negative pool min",
			poolMin: -1,
			poolMax: 10,
			wantErr: true,
		},
		{
			name:    "zero pool max",
			poolMin: 0,
			poolMax: 0,
			wantErr: true,
		},
		{
			name:    "pool min greater than max",
			poolMin: 15,
			poolMax: 10,
			wantErr: true,
		},
		{
			name:    "valid pool sizes",
			poolMin: 2,
			poolMax: 10,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Database.PoolMin = tt.poolMin
			cfg.Database.PoolMax = tt.poolMax

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing port", mutate: func(c *Config) { c.Server.Port = "" }},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }},
		{name: "missing db password", mutate: func(c *Config) { c.Database.Password = "" }},
		{name: "missing CORS origins", mutate: func(c *Config) { c.CORS.Origins = []string{} }},
		{name: "missing jwt secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }},
		{name: "bad rate format", mutate: func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimit.Rate = "lots"
		}},
		{name: "sample ratio above one", mutate: func(c *Config) { c.Tracing.SampleRatio = 1.5 }},
		{name: "negative sample ratio", mutate: func(c *Config) { c.Tracing.SampleRatio = -0.1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error but got none")
			}
		})
	}
}

func TestValidate_RateIgnoredWhenDisabled(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.Rate = "not-a-rate"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected disabled rate limit to skip rate validation, got %v", err)
	}
}

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect []string
	}{
		{
			name:   "single origin",
			input:  "http://localhost:3000",
			expect: []string{"http://localhost:3000"},
		},
		{
			name:   "multiple origins",
			input:  "http://localhost:3000,http://localhost:3001",
			expect: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		{
			name:   "origins with spaces",
			input:  " http://localhost:3000 , http://localhost:3001 ",
			expect: []string{"http://localhost:3000", "http://localhost:3001"},
		},
		{
			name:   "empty string",
			input:  "",
			expect: []string{},
		},
		{
			name:   "only commas",
			input:  ",,,",
			expect: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseOrigins(tt.input)
			if len(result) != len(tt.expect) {
				t.Errorf("Expected %d origins, got %d", len(tt.expect), len(result))
				return
			}
			for i, origin := range result {
				if origin != tt.expect[i] {
					t.Errorf("Expected origin %s at index %d, got %s", tt.expect[i], i, origin)
				}
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Env: "development"},
		Database: DatabaseConfig{
			Host: "localhost", Port: "5432", Name: "bluesky",
			User: "postgres", Password: "postgres", PoolMin: 2, PoolMax: 10,
		},
		CORS:      CORSConfig{Origins: []string{"http://localhost:3000"}},
		Auth:      AuthConfig{JWTSecret: "secret", Issuer: "bluesky"},
		RateLimit: RateLimitConfig{Rate: "300-M"},
		Tracing:   TracingConfig{SampleRatio: 0.1},
	}
}

// Helper function to clear all config-related environment variables
func clearConfigEnvVars() {
	for _, key := range []string{
		"ENV_FILE", "PORT", "ENV",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"DB_POOL_MIN", "DB_POOL_MAX", "DB_AUTO_MIGRATE",
		"CORS_ORIGINS", "JWT_SECRET", "JWT_ISSUER", "AUTHZ_POLICY_PATH",
		"RATE_LIMIT_ENABLED", "RATE_LIMIT_RATE", "RATE_LIMIT_REDIS_URL",
		"OTEL_ENABLED", "OTEL_SERVICE_NAME", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SAMPLER_RATIO",
	} {
		os.Unsetenv(key)
	}
}
