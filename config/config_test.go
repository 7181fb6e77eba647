package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"event-panel/config"
)

func TestLoad_Defaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	if err := os.WriteFile(path, []byte("backend:\n  url: http://obs-host:5000\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Backend.URL != "http://obs-host:5000" {
		t.Errorf("backend url: got %q", cfg.Backend.URL)
	}
	if cfg.StatusInterval() != 30*time.Second {
		t.Errorf("status interval: got %s", cfg.StatusInterval())
	}
	if cfg.PreviewInterval() != 2*time.Second {
		t.Errorf("preview interval: got %s", cfg.PreviewInterval())
	}
	if cfg.Web.Addr != ":8090" || cfg.Web.RateLimit != 60 {
		t.Errorf("web: got %+v", cfg.Web)
	}

	groups := cfg.RelayGroups()
	if len(groups) != 3 || groups[0].ID != "frente" || groups[2].Members[1] != "6" {
		t.Errorf("groups: got %+v", groups)
	}
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("PANEL_PASSWORD", "s3cret")

	cfg, err := config.Parse([]byte("backend:\n  username: admin\n  password: ${PANEL_PASSWORD}\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if cfg.Backend.Password != "s3cret" {
		t.Errorf("password: got %q", cfg.Backend.Password)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad duration",
			yaml:    "polling:\n  preview_interval: fast\n",
			wantErr: "polling.preview_interval",
		},
		{
			name: "unknown member",
			yaml: `relays:
  ids: ["1", "2"]
  groups:
    - {id: frente, members: ["1", "3"]}
`,
			wantErr: `unknown relay "3"`,
		},
		{
			name: "relay in two groups",
			yaml: `relays:
  ids: ["1", "2"]
  groups:
    - {id: frente, members: ["1"]}
    - {id: fundo, members: ["1", "2"]}
`,
			wantErr: `already belongs to "frente"`,
		},
		{
			name:    "duplicate relay",
			yaml:    "relays:\n  ids: [\"1\", \"1\"]\n  groups:\n    - {id: a, members: [\"1\"]}\n",
			wantErr: `duplicate relay "1"`,
		},
		{
			name:    "empty group",
			yaml:    "relays:\n  ids: [\"1\"]\n  groups:\n    - {id: a, members: []}\n",
			wantErr: "no members",
		},
		{
			name:    "pushover without token",
			yaml:    "pushover:\n  enabled: true\n",
			wantErr: "pushover",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
