package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"event-panel/internal/domain"
)

type Config struct {
	Backend  BackendConfig  `yaml:"backend"`
	Polling  PollingConfig  `yaml:"polling"`
	Relays   RelaysConfig   `yaml:"relays"`
	Web      WebConfig      `yaml:"web"`
	Pushover PushoverConfig `yaml:"pushover"`
	Log      LogConfig      `yaml:"log"`
}

type BackendConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
}

type PollingConfig struct {
	StatusInterval  string `yaml:"status_interval"`
	PreviewInterval string `yaml:"preview_interval"`
}

type RelaysConfig struct {
	IDs    []string      `yaml:"ids"`
	Groups []GroupConfig `yaml:"groups"`
}

type GroupConfig struct {
	ID      string   `yaml:"id"`
	Label   string   `yaml:"label"`
	Members []string `yaml:"members"`
}

type WebConfig struct {
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
	RateLimit int    `yaml:"rate_limit"`
}

type PushoverConfig struct {
	Token      string `yaml:"token"`
	UserKey    string `yaml:"user_key"`
	Enabled    bool   `yaml:"enabled"`
	ErrorsOnly bool   `yaml:"errors_only"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Backend.URL == "" {
		c.Backend.URL = "http://localhost:5000"
	}
	if c.Backend.Timeout == "" {
		c.Backend.Timeout = "5s"
	}
	if c.Polling.StatusInterval == "" {
		c.Polling.StatusInterval = "30s"
	}
	if c.Polling.PreviewInterval == "" {
		c.Polling.PreviewInterval = "2s"
	}
	if len(c.Relays.IDs) == 0 {
		c.Relays.IDs = []string{"1", "2", "3", "4", "5", "6"}
	}
	if len(c.Relays.Groups) == 0 {
		c.Relays.Groups = []GroupConfig{
			{ID: "frente", Label: "FRENTE", Members: []string{"1", "2"}},
			{ID: "meio", Label: "MEIO", Members: []string{"3", "4"}},
			{ID: "fundo", Label: "FUNDO", Members: []string{"5", "6"}},
		}
	}
	if c.Web.Addr == "" {
		c.Web.Addr = ":8090"
	}
	if c.Web.RateLimit == 0 {
		c.Web.RateLimit = 60
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error

	for name, value := range map[string]string{
		"backend.timeout":          c.Backend.Timeout,
		"polling.status_interval":  c.Polling.StatusInterval,
		"polling.preview_interval": c.Polling.PreviewInterval,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s: must be positive, got %s", name, value))
		}
	}

	relays := make(map[string]bool, len(c.Relays.IDs))
	for _, id := range c.Relays.IDs {
		if id == "" {
			errs = append(errs, errors.New("relays.ids: empty relay id"))
			continue
		}
		if relays[id] {
			errs = append(errs, fmt.Errorf("relays.ids: duplicate relay %q", id))
		}
		relays[id] = true
	}

	groups := make(map[string]bool, len(c.Relays.Groups))
	owner := make(map[string]string)
	for _, g := range c.Relays.Groups {
		if g.ID == "" {
			errs = append(errs, errors.New("relays.groups: empty group id"))
			continue
		}
		if groups[g.ID] {
			errs = append(errs, fmt.Errorf("relays.groups: duplicate group %q", g.ID))
		}
		groups[g.ID] = true

		if len(g.Members) == 0 {
			errs = append(errs, fmt.Errorf("group %q: no members", g.ID))
		}
		for _, m := range g.Members {
			if !relays[m] {
				errs = append(errs, fmt.Errorf("group %q: unknown relay %q", g.ID, m))
			}
			if prev, ok := owner[m]; ok && prev != g.ID {
				errs = append(errs, fmt.Errorf("group %q: relay %q already belongs to %q", g.ID, m, prev))
			}
			owner[m] = g.ID
		}
	}

	if c.Web.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("web.rate_limit: must not be negative, got %d", c.Web.RateLimit))
	}

	if c.Pushover.Enabled && (c.Pushover.Token == "" || c.Pushover.UserKey == "") {
		errs = append(errs, errors.New("pushover: token and user_key are required when enabled"))
	}

	return errors.Join(errs...)
}

func (c *Config) BackendTimeout() time.Duration {
	return mustDuration(c.Backend.Timeout, 5*time.Second)
}

func (c *Config) StatusInterval() time.Duration {
	return mustDuration(c.Polling.StatusInterval, 30*time.Second)
}

func (c *Config) PreviewInterval() time.Duration {
	return mustDuration(c.Polling.PreviewInterval, 2*time.Second)
}

// RelayGroups converts the configured groups to their domain form.
func (c *Config) RelayGroups() []domain.RelayGroup {
	groups := make([]domain.RelayGroup, 0, len(c.Relays.Groups))
	for _, g := range c.Relays.Groups {
		groups = append(groups, domain.RelayGroup{
			ID:      g.ID,
			Label:   g.Label,
			Members: append([]string(nil), g.Members...),
		})
	}
	return groups
}

func mustDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
