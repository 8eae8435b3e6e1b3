package config

import (
	"os"
	"testing"
)

func TestDetectMode(t *testing.T) {
	tests := []struct {
		name       string
		configMode string
		envVars    map[string]string
		want       Mode
	}{
		{
			name:       "config development",
			configMode: "development",
			want:       ModeDevelopment,
		},
		{
			name:       "config dev",
			configMode: "dev",
			want:       ModeDevelopment,
		},
		{
			name:       "config production",
			configMode: "production",
			want:       ModeProduction,
		},
		{
			name:       "config test",
			configMode: "test",
			want:       ModeTest,
		},
		{
			name:       "empty defaults to production",
			configMode: "",
			want:       ModeProduction,
		},
		{
			name:       "env MODE development",
			configMode: "",
			envVars:    map[string]string{"MODE": "development"},
			want:       ModeDevelopment,
		},
		{
			name:       "env APP_MODE production",
			configMode: "",
			envVars:    map[string]string{"APP_MODE": "production"},
			want:       ModeProduction,
		},
		{
			name:       "config takes precedence over env",
			configMode: "production",
			envVars:    map[string]string{"MODE": "development"},
			want:       ModeProduction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Unsetenv("MODE")
			os.Unsetenv("APP_MODE")
			os.Unsetenv("ENVIRONMENT")

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}

			got := DetectMode(tt.configMode)
			if got != tt.want {
				t.Errorf("DetectMode() = %v, want %v", got, tt.want)
			}

			for k := range tt.envVars {
				os.Unsetenv(k)
			}
		})
	}
}

func TestModeValidate(t *testing.T) {
	for _, m := range []Mode{ModeDevelopment, ModeProduction, ModeTest} {
		if err := m.Validate(); err != nil {
			t.Errorf("Validate(%s) = %v, want nil", m, err)
		}
	}
	if err := Mode("staging").Validate(); err == nil {
		t.Error("Validate should reject unknown modes")
	}
}

func TestModeLogLevel(t *testing.T) {
	if ModeDevelopment.LogLevel() != "debug" {
		t.Errorf("development log level = %s, want debug", ModeDevelopment.LogLevel())
	}
	if ModeProduction.LogLevel() != "info" {
		t.Errorf("production log level = %s, want info", ModeProduction.LogLevel())
	}
}

func TestIsTruthy(t *testing.T) {
	truthy := []string{"1", "true", "TRUE", "yes", "on", "enabled", " true "}
	for _, v := range truthy {
		if !IsTruthy(v) {
			t.Errorf("IsTruthy(%q) = false, want true", v)
		}
	}
	falsy := []string{"", "0", "false", "no", "off", "disabled", "banana"}
	for _, v := range falsy {
		if IsTruthy(v) {
			t.Errorf("IsTruthy(%q) = true, want false", v)
		}
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	os.Setenv("CONFIG_FILE", "/nonexistent/server.yml")
	defer os.Unsetenv("CONFIG_FILE")

	// Missing file path from env falls through to defaults on read error
	cfg := DefaultConfig()

	if cfg.Upstream.MinMagnitude != 4.5 {
		t.Errorf("default min magnitude = %v, want 4.5", cfg.Upstream.MinMagnitude)
	}
	if cfg.Upstream.Limit != 1000 {
		t.Errorf("default limit = %d, want 1000", cfg.Upstream.Limit)
	}
	if cfg.Upstream.WindowDays != 30 {
		t.Errorf("default window = %d days, want 30", cfg.Upstream.WindowDays)
	}
	if cfg.Server.Port != "3000" {
		t.Errorf("default port = %s, want 3000", cfg.Server.Port)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	os.Setenv("PORT", "8080")
	os.Setenv("UPSTREAM_URL", "http://localhost:9999/query")
	os.Setenv("UPSTREAM_TIMEOUT", "5")
	defer func() {
		os.Unsetenv("PORT")
		os.Unsetenv("UPSTREAM_URL")
		os.Unsetenv("UPSTREAM_TIMEOUT")
	}()

	cfg := DefaultConfig()
	cfg.applyEnv()

	if cfg.Server.Port != "8080" {
		t.Errorf("PORT override failed, got %s", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "http://localhost:9999/query" {
		t.Errorf("UPSTREAM_URL override failed, got %s", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSeconds != 5 {
		t.Errorf("UPSTREAM_TIMEOUT override failed, got %d", cfg.Upstream.TimeoutSeconds)
	}
}
