package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOracleConfig_DisabledWithoutKey(t *testing.T) {
	cfg := OracleConfig{}
	if cfg.Enabled() {
		t.Error("empty api key should disable the oracle")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled oracle should validate: %v", err)
	}
}

func TestOracleConfig_AttemptBounds(t *testing.T) {
	cfg := OracleConfig{APIKey: "key", MaxAttempts: 99}
	if err := cfg.Validate(); err == nil {
		t.Error("out-of-range max_attempts should fail")
	}
}

func TestScheduleConfig_Validate(t *testing.T) {
	cfg := ScheduleConfig{DailyAt: "00:10", WeeklyAt: "00:20", WeeklyDay: "monday"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid schedule rejected: %v", err)
	}

	bad := []ScheduleConfig{
		{DailyAt: "25:00", WeeklyAt: "00:20", WeeklyDay: "monday"},
		{DailyAt: "00:10", WeeklyAt: "noon", WeeklyDay: "monday"},
		{DailyAt: "00:10", WeeklyAt: "00:20", WeeklyDay: "someday"},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("schedule %+v should fail validation", cfg)
		}
	}
}

func TestScheduleConfig_Weekday(t *testing.T) {
	cfg := ScheduleConfig{WeeklyDay: "sunday"}
	if cfg.Weekday() != time.Sunday {
		t.Errorf("weekday = %v, want Sunday", cfg.Weekday())
	}
	cfg.WeeklyDay = ""
	if cfg.Weekday() != time.Monday {
		t.Errorf("default weekday = %v, want Monday", cfg.Weekday())
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
