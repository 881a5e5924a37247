package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			assert.Equal(t, 8080, cfg.Server.Port)
			assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
			assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
			assert.Equal(t, "localhost", cfg.Database.Host)
			assert.Equal(t, "company_intel", cfg.Database.Database)
			assert.True(t, cfg.Database.RunMigrations)
			assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL())
			assert.Equal(t, 30*time.Minute, cfg.Auth.SweepInterval)
			assert.Equal(t, 4, cfg.Gemini.MaxAttempts)
			assert.Equal(t, 500*time.Millisecond, cfg.Gemini.BaseDelay)
			assert.Equal(t, 2, cfg.Worker.Concurrency)
			assert.Equal(t, "company_events", cfg.Events.RabbitMQ.Exchange.Name)
			assert.NoError(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CLIENT_ID", "env-client")
	t.Setenv("CLIENT_SECRET", "env-secret")
	t.Setenv("DATABASE_DRIVER", "memory")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.Auth.ClientID)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, time.Hour, cfg.Auth.SweepInterval)
	assert.Equal(t, 3, cfg.Gemini.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Gemini.BaseDelay)
	assert.Equal(t, 16*time.Second, cfg.Gemini.MaxDelay)
	assert.Equal(t, "company_basic_info.company_legal_name", cfg.Gemini.CanonicalNamePath)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, 100, cfg.Worker.QueueSize)
	assert.Equal(t, 60*time.Second, cfg.Worker.EstimatedDuration)
	assert.False(t, cfg.Events.Enabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("CLIENT_SECRET", "from-env")
	t.Setenv("GEMINI_API_KEY", "key-from-env")

	cfg, err := Load("testdata/valid_config.yaml")
	require.NoError(t, err)

	assert.Equal(t, "test-client", cfg.Auth.ClientID)
	assert.Equal(t, "from-env", cfg.Auth.ClientSecret)
	assert.Equal(t, "key-from-env", cfg.Gemini.APIKey)
}

func validConfig() *Config {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "localhost",
			Port:     5432,
			Database: "company_intel",
		},
		Auth: AuthConfig{
			ClientID:     "client",
			ClientSecret: "secret",
		},
	}
	cfg.applyDefaults()
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "empty database host",
			mutate:    func(c *Config) { c.Database.Host = "" },
			wantErr:   true,
			errString: "database host is required",
		},
		{
			name:      "empty database name",
			mutate:    func(c *Config) { c.Database.Database = "" },
			wantErr:   true,
			errString: "database name is required",
		},
		{
			name: "memory driver ignores database settings",
			mutate: func(c *Config) {
				c.Database.Driver = DriverMemory
				c.Database.Host = ""
				c.Database.Database = ""
			},
		},
		{
			name:      "unknown driver",
			mutate:    func(c *Config) { c.Database.Driver = "sqlite" },
			wantErr:   true,
			errString: "unsupported database driver",
		},
		{
			name:      "missing client secret",
			mutate:    func(c *Config) { c.Auth.ClientSecret = "" },
			wantErr:   true,
			errString: "client_secret are required",
		},
		{
			name:      "negative token ttl",
			mutate:    func(c *Config) { c.Auth.TokenTTLHours = -1 },
			wantErr:   true,
			errString: "token_ttl_hours",
		},
		{
			name:      "max delay below base delay",
			mutate:    func(c *Config) { c.Gemini.MaxDelay = 10 * time.Millisecond },
			wantErr:   true,
			errString: "max_delay",
		},
		{
			name:      "zero worker concurrency",
			mutate:    func(c *Config) { c.Worker.Concurrency = -1 },
			wantErr:   true,
			errString: "worker concurrency",
		},
		{
			name: "events enabled without exchange",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.RabbitMQ.Host = "localhost"
			},
			wantErr:   true,
			errString: "exchange name is required",
		},
		{
			name: "events enabled without host",
			mutate: func(c *Config) {
				c.Events.Enabled = true
				c.Events.RabbitMQ.Exchange.Name = "company_events"
			},
			wantErr:   true,
			errString: "rabbitmq host is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}
			assert.NoError(t, err)
		})
	}
}
