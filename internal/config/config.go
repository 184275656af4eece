package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that reads "10m"-style strings or integer seconds.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := parseDuration(v)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var v any
	if err := node.Decode(&v); err != nil {
		return err
	}
	parsed, err := parseDuration(v)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func parseDuration(v any) (Duration, error) {
	switch t := v.(type) {
	case string:
		if secs, err := strconv.Atoi(t); err == nil {
			return Duration(time.Duration(secs) * time.Second), nil
		}
		parsed, err := time.ParseDuration(t)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", t, err)
		}
		return Duration(parsed), nil
	case float64:
		return Duration(time.Duration(t * float64(time.Second))), nil
	case int:
		return Duration(time.Duration(t) * time.Second), nil
	default:
		return 0, fmt.Errorf("invalid duration %v", v)
	}
}

type Config struct {
	WorkspaceRoot string   `json:"workspace_root" yaml:"workspace_root"`
	DBPath        string   `json:"db_path"        yaml:"db_path"`
	Freshness     Duration `json:"freshness"      yaml:"freshness"`
	SearchTimeout Duration `json:"search_timeout" yaml:"search_timeout"`
	Backend       string   `json:"backend"        yaml:"backend"`
	RipgrepPath   string   `json:"ripgrep_path"   yaml:"ripgrep_path"`
	Include       []string `json:"include"        yaml:"include"`
	Coalesce      bool     `json:"coalesce"       yaml:"coalesce"`
	PreviewLines  int      `json:"preview_lines"  yaml:"preview_lines"`
	PreviewWidth  int      `json:"preview_width"  yaml:"preview_width"`
	WarmOnStart   bool     `json:"warm_on_start"  yaml:"warm_on_start"`
}

var defaultConfig = Config{
	Freshness:     Duration(10 * time.Minute),
	SearchTimeout: Duration(10 * time.Second),
	Backend:       "auto",
	RipgrepPath:   "rg",
	Include:       []string{"**/*.md", "**/*.markdown"},
	PreviewLines:  20,
	PreviewWidth:  80,
}

// Default returns a copy of the defaults.
func Default() Config {
	cfg := defaultConfig
	cfg.Include = append([]string(nil), defaultConfig.Include...)
	return cfg
}

var (
	ErrInvalidFreshness = errors.New("freshness must be positive")
	ErrInvalidTimeout   = errors.New("search_timeout must be positive")
	ErrInvalidBackend   = errors.New("backend must be one of auto, ripgrep, scan")
	ErrInvalidPreview   = errors.New("preview_lines and preview_width must be positive")
)

// Load overlays v, typically the LSP InitializationOptions, on the defaults.
func Load(v any) (Config, error) {
	return Default().Overlay(v)
}

// Overlay returns c with the fields present in v overwritten. v is anything
// that marshals to a JSON object with Config's keys.
func (c Config) Overlay(v any) (Config, error) {
	if v == nil {
		return c, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}
	c.Include = append([]string(nil), c.Include...)
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}
	return c, nil
}

// LoadFromJSON reads JSON from r into a Config.
func LoadFromJSON(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := json.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFromYAML reads YAML from r into a Config. An empty document yields the defaults.
func LoadFromYAML(r io.Reader) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile picks the decoder by extension: .json or YAML otherwise.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	if filepath.Ext(path) == ".json" {
		return LoadFromJSON(f)
	}
	return LoadFromYAML(f)
}

// ApplyEnv fills unset locations from WORKSPACE_ROOT and MARKDOWN_LSP_DB_PATH.
func (c Config) ApplyEnv() Config {
	if c.WorkspaceRoot == "" {
		c.WorkspaceRoot = os.Getenv("WORKSPACE_ROOT")
	}
	if c.DBPath == "" {
		c.DBPath = os.Getenv("MARKDOWN_LSP_DB_PATH")
	}
	return c
}

func (c Config) Validate() error {
	if c.Freshness <= 0 {
		return ErrInvalidFreshness
	}
	if c.SearchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	switch c.Backend {
	case "auto", "ripgrep", "scan":
	default:
		return fmt.Errorf("%w: got %q", ErrInvalidBackend, c.Backend)
	}
	if c.PreviewLines <= 0 || c.PreviewWidth <= 0 {
		return ErrInvalidPreview
	}
	return nil
}
