package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Feed.BaseURL = "https://feed.example.com"
	return cfg
}

func TestValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults with a feed URL should validate: %v", err)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "bogus"
	cfg.Redis.Addr = ""
	cfg.Risk.DailyLossFloor = 1.0
	cfg.Staking.StakeCeiling = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation failure")
	}
	for _, want := range []string{"unknown mode", "redis: addr", "daily_loss_floor", "stake_ceiling"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %q:\n%v", want, err)
		}
	}
}

func TestValidateReportModeSkipsFeed(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "report"
	if err := cfg.Validate(); err != nil {
		t.Errorf("report mode should not require a feed URL: %v", err)
	}
}

func TestDurationUnmarshal(t *testing.T) {
	var d duration
	if err := d.UnmarshalText([]byte("10m")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 10*time.Minute {
		t.Errorf("parsed %v, want 10m", d.Duration)
	}
	if err := d.UnmarshalText([]byte("not-a-duration")); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PITCHSIGNAL_FEED_API_KEY", "secret")
	t.Setenv("PITCHSIGNAL_SCAN_INTERVAL", "45s")
	t.Setenv("PITCHSIGNAL_RISK_MAX_CONSECUTIVE_LOSSES", "5")
	t.Setenv("PITCHSIGNAL_ARCHIVE_ENABLED", "true")

	cfg := Defaults()
	applyEnvOverrides(&cfg)

	if cfg.Feed.APIKey != "secret" {
		t.Errorf("api key = %q", cfg.Feed.APIKey)
	}
	if cfg.Scan.Interval.Duration != 45*time.Second {
		t.Errorf("scan interval = %v", cfg.Scan.Interval.Duration)
	}
	if cfg.Risk.MaxConsecutiveLosses != 5 {
		t.Errorf("max losses = %d", cfg.Risk.MaxConsecutiveLosses)
	}
	if !cfg.Archive.Enabled {
		t.Error("archive should be enabled")
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Feed.APIKey = "feedkey"
	cfg.Database.Password = "dbpass"
	cfg.Notify.TelegramToken = "tgtoken"

	red := RedactedConfig(&cfg)
	if red.Feed.APIKey != "***" || red.Database.Password != "***" || red.Notify.TelegramToken != "***" {
		t.Errorf("secrets not redacted: %+v", red)
	}
	if cfg.Feed.APIKey != "feedkey" {
		t.Error("original config mutated")
	}
}
