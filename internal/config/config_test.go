package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	c := New()
	if c.EarlyBird != "11:00" || c.Regular != "11:36" {
		t.Errorf("unexpected default cutoffs: %s / %s", c.EarlyBird, c.Regular)
	}
	if c.ZoomCutMinutes != 30 {
		t.Errorf("unexpected zoom cut: %v", c.ZoomCutMinutes)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidateRejectsInvertedCutoffs(t *testing.T) {
	c := New()
	c.EarlyBird = "12:00"
	c.Regular = "11:00"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for early_bird after regular")
	}
}

func TestValidateRejectsBadTime(t *testing.T) {
	c := New()
	c.EarlyBird = "noon"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for unparseable cutoff")
	}
}

func TestLoadLayersFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "early_bird: \"10:30\"\nzoom_cut_minutes: 20\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ATTEND_CONFIG", path)
	t.Setenv("ATTEND_ZOOM_CUT_MINUTES", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EarlyBird != "10:30" {
		t.Errorf("file value not applied: %s", cfg.EarlyBird)
	}
	if cfg.ZoomCutMinutes != 25 {
		t.Errorf("env should override file: %v", cfg.ZoomCutMinutes)
	}
	if cfg.Regular != "11:36" {
		t.Errorf("default lost: %s", cfg.Regular)
	}
}
