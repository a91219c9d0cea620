package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the lyon configuration.
type Config struct {
	Provider     string                    `toml:"provider"`
	Model        string                    `toml:"model"`
	Format       string                    `toml:"format"`
	FailOn       string                    `toml:"failOn"`
	ContextLines int                       `toml:"contextLines"`
	Include      []string                  `toml:"include"`
	Exclude      []string                  `toml:"exclude"`
	MaxDiffBytes int                       `toml:"maxDiffBytes"`
	RulesFile    string                    `toml:"rulesFile,omitempty"`
	GitHub       GitHubConfig              `toml:"github"`
	Store        StoreConfig               `toml:"store"`
	Highlight    HighlightConfig           `toml:"highlight"`
	Privacy      PrivacyConfig             `toml:"privacy"`
	Providers    map[string]ProviderConfig `toml:"providers,omitempty"`
}

// GitHubConfig points the client at a GitHub API.
type GitHubConfig struct {
	APIURL string `toml:"apiURL,omitempty"`
}

// StoreConfig controls the review history database.
type StoreConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path,omitempty"`
	// ReuseTTLSeconds bounds how old a stored review of an identical diff
	// may be before it is reviewed again. Zero disables reuse.
	ReuseTTLSeconds int `toml:"reuseTTLSeconds"`
}

// HighlightConfig controls syntax highlighting of rendered diffs.
type HighlightConfig struct {
	Enabled  bool `toml:"enabled"`
	Capacity int  `toml:"capacity"`
}

// PrivacyConfig controls privacy/redaction behavior.
type PrivacyConfig struct {
	RedactSecrets bool     `toml:"redactSecrets"`
	RedactPaths   []string `toml:"redactPaths,omitempty"`
}

// ProviderConfig declares a custom provider command. "{model}" in Args is
// replaced with the configured model.
type ProviderConfig struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Provider:     "claude",
		Format:       "text",
		FailOn:       "none",
		ContextLines: 3,
		Exclude:      []string{"vendor/**", "**/*.gen.go", "**/dist/**"},
		MaxDiffBytes: 500000,
		Store: StoreConfig{
			Enabled: true,
		},
		Highlight: HighlightConfig{
			Enabled:  true,
			Capacity: 50,
		},
		Privacy: PrivacyConfig{
			RedactSecrets: true,
			RedactPaths:   []string{"**/.env", "**/*secrets*"},
		},
	}
}

// ConfigDir returns the platform-appropriate config directory for lyon.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "lyon"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "lyon"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "lyon"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "lyon"), nil
	default:
		return filepath.Join(home, ".config", "lyon"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadFile loads config from the config file. The metadata reports which
// keys the file set; both are zero when the file doesn't exist.
func LoadFile() (Config, toml.MetaData, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, toml.MetaData{}, err
	}
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, toml.MetaData{}, nil
		}
		return Config{}, toml.MetaData{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, toml.MetaData{}, fmt.Errorf("parsing config file %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, md, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return f.Close()
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, md, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg, md)
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Stored returns the defaults overlaid with the config file only. It is the
// base for edits that are written back with Save.
func Stored() (Config, error) {
	cfg := Default()
	fileCfg, md, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg, md)
	return cfg, nil
}

// mergeFile copies every key the file defined. Booleans rely on the
// metadata since false is indistinguishable from unset otherwise.
func mergeFile(dst *Config, src Config, md toml.MetaData) {
	set := func(key ...string) bool { return md.IsDefined(key...) }

	if set("provider") {
		dst.Provider = src.Provider
	}
	if set("model") {
		dst.Model = src.Model
	}
	if set("format") {
		dst.Format = src.Format
	}
	if set("failOn") {
		dst.FailOn = src.FailOn
	}
	if set("contextLines") {
		dst.ContextLines = src.ContextLines
	}
	if set("include") {
		dst.Include = src.Include
	}
	if set("exclude") {
		dst.Exclude = src.Exclude
	}
	if set("maxDiffBytes") {
		dst.MaxDiffBytes = src.MaxDiffBytes
	}
	if set("rulesFile") {
		dst.RulesFile = src.RulesFile
	}
	if set("github", "apiURL") {
		dst.GitHub.APIURL = src.GitHub.APIURL
	}
	if set("store", "enabled") {
		dst.Store.Enabled = src.Store.Enabled
	}
	if set("store", "path") {
		dst.Store.Path = src.Store.Path
	}
	if set("store", "reuseTTLSeconds") {
		dst.Store.ReuseTTLSeconds = src.Store.ReuseTTLSeconds
	}
	if set("highlight", "enabled") {
		dst.Highlight.Enabled = src.Highlight.Enabled
	}
	if set("highlight", "capacity") {
		dst.Highlight.Capacity = src.Highlight.Capacity
	}
	if set("privacy", "redactSecrets") {
		dst.Privacy.RedactSecrets = src.Privacy.RedactSecrets
	}
	if set("privacy", "redactPaths") {
		dst.Privacy.RedactPaths = src.Privacy.RedactPaths
	}
	if len(src.Providers) > 0 {
		dst.Providers = src.Providers
	}
}

func mergeEnv(cfg *Config) error {
	if v := os.Getenv("LYON_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("LYON_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("LYON_FAIL_ON"); v != "" {
		cfg.FailOn = v
	}
	if v := os.Getenv("LYON_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("LYON_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("LYON_CONTEXT_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LYON_CONTEXT_LINES must be an integer: %w", err)
		}
		cfg.ContextLines = n
	}
	if v := os.Getenv("LYON_HIGHLIGHT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LYON_HIGHLIGHT_CAPACITY must be an integer: %w", err)
		}
		cfg.Highlight.Capacity = n
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for _, key := range []string{"provider", "model", "format", "failOn", "contextLines", "maxDiffBytes", "rulesFile"} {
		if v, ok := overrides[key]; ok && v != "" {
			if err := SetField(cfg, key, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// Keys lists every key accepted by SetField.
func Keys() []string {
	keys := []string{
		"provider", "model", "format", "failOn", "contextLines", "maxDiffBytes",
		"rulesFile", "include", "exclude", "github.apiURL", "store.enabled",
		"store.path", "store.reuseTTLSeconds", "highlight.enabled",
		"highlight.capacity", "privacy.redactSecrets", "privacy.redactPaths",
	}
	sort.Strings(keys)
	return keys
}

// SetField sets a single config field by key name. Returns error if key is
// unknown. List values are comma separated.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "format":
		cfg.Format = value
	case "failOn":
		cfg.FailOn = value
	case "contextLines":
		return setInt(&cfg.ContextLines, key, value)
	case "maxDiffBytes":
		return setInt(&cfg.MaxDiffBytes, key, value)
	case "rulesFile":
		cfg.RulesFile = value
	case "include":
		cfg.Include = splitList(value)
	case "exclude":
		cfg.Exclude = splitList(value)
	case "github.apiURL":
		cfg.GitHub.APIURL = value
	case "store.enabled":
		return setBool(&cfg.Store.Enabled, key, value)
	case "store.path":
		cfg.Store.Path = value
	case "store.reuseTTLSeconds":
		return setInt(&cfg.Store.ReuseTTLSeconds, key, value)
	case "highlight.enabled":
		return setBool(&cfg.Highlight.Enabled, key, value)
	case "highlight.capacity":
		return setInt(&cfg.Highlight.Capacity, key, value)
	case "privacy.redactSecrets":
		return setBool(&cfg.Privacy.RedactSecrets, key, value)
	case "privacy.redactPaths":
		cfg.Privacy.RedactPaths = splitList(value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be true or false: %w", key, err)
	}
	*dst = b
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
