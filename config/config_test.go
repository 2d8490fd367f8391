package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		wantErr bool
		check   func(t *testing.T, c Config)
	}{
		{
			name: "overlay_keeps_defaults",
			data: "debug: true\nclock:\n  tempo: 90\n",
			check: func(t *testing.T, c Config) {
				if !c.Debug || c.Clock.Tempo != 90 {
					t.Fatalf("expected overlay values, got %+v", c)
				}
				if c.Clock.BeatsPerBar != 4 || c.Physics.StepHz != 120 {
					t.Fatalf("expected defaults to survive, got %+v", c)
				}
			},
		},
		{
			name:    "zero_tempo_rejected",
			data:    "clock:\n  tempo: 0\n",
			wantErr: true,
		},
		{
			name:    "negative_step_rate_rejected",
			data:    "physics:\n  step_hz: -1\n",
			wantErr: true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := Default()
			err := Parse([]byte(c.data), &cfg)
			if c.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			c.check(t, cfg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "player.yaml")
	if err := os.WriteFile(path, []byte("card: demo.json\nlibrary:\n  watch: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Card != "demo.json" || !cfg.Library.Watch || cfg.Library.Dir != "prefabs" {
		t.Fatalf("unexpected config %+v", cfg)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
