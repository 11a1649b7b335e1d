package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "STORE_DRIVER", "GAME_TIMER_SECONDS", "GAME_END_DELAY", "GAME_TICK_INTERVAL", "GAME_DEFAULT_LANGUAGE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr %q", cfg.Server.Addr)
	}
	if cfg.Store.Driver != StoreSQLite {
		t.Fatalf("unexpected driver %q", cfg.Store.Driver)
	}
	if cfg.Game.TimerSeconds == nil || *cfg.Game.TimerSeconds != 15 {
		t.Fatalf("expected 15s default timer, got %v", cfg.Game.TimerSeconds)
	}
	if cfg.Game.EndGameDelay != 2*time.Second || cfg.Game.TickInterval != time.Second {
		t.Fatalf("unexpected game timings: %+v", cfg.Game)
	}
}

func TestTimerCanBeDisabled(t *testing.T) {
	t.Setenv("GAME_TIMER_SECONDS", "off")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load err: %v", err)
	}
	if cfg.Game.TimerSeconds != nil {
		t.Fatalf("expected untimed, got %d", *cfg.Game.TimerSeconds)
	}
}

func TestInvalidValuesFailLoad(t *testing.T) {
	cases := map[string]string{
		"STORE_DRIVER":       "mongo",
		"GAME_TIMER_SECONDS": "forever",
		"GAME_END_DELAY":     "soon",
		"REDIS_DB":           "x",
		"PORT":               "80 80",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", key, value)
			}
		})
	}
}

func TestAIConfigEnabled(t *testing.T) {
	if (AIConfig{APIKey: "k"}).Enabled() {
		t.Fatal("model is required")
	}
	if !(AIConfig{APIKey: "k", Model: "m"}).Enabled() {
		t.Fatal("api key + model should enable")
	}
	if !(AIConfig{AccessKey: "a", SecretKey: "s", Model: "m"}).Enabled() {
		t.Fatal("ak/sk + model should enable")
	}
}
