package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/petervdpas/notewatch/internal/util"
)

type Config struct {
	Paths         Paths         `json:"paths"`
	Watcher       Watcher       `json:"watcher"`
	Viewer        Viewer        `json:"viewer"`
	AutoSave      AutoSave      `json:"autosave"`
	Notifications Notifications `json:"notifications"`
}

type Paths struct {
	// NotesRoot is the directory tree being browsed and watched.
	// Relative paths are resolved against the data directory.
	NotesRoot string `json:"notes_root"`

	// DataDir holds the sqlite database and other app state.
	DataDir string `json:"data_dir"`
}

type Watcher struct {
	// DebounceMs is the coalescing window for duplicate filesystem events.
	DebounceMs int `json:"debounce_ms"`

	// Extensions is the allow-list of file extensions the watcher reports.
	Extensions []string `json:"extensions"`
}

type Viewer struct {
	HTTPAddr string `json:"http_addr"`
	Debug    bool   `json:"debug"`
	Theme    string `json:"theme"`
}

type AutoSave struct {
	Enabled    bool `json:"enabled"`
	IntervalMs int  `json:"interval_ms"`
}

type Notifications struct {
	// Enabled controls whether change notifications are pushed to clients.
	Enabled bool `json:"enabled"`
}

func Default() Config {
	return Config{
		Paths: Paths{
			NotesRoot: "notes",
			DataDir:   "data",
		},
		Watcher: Watcher{
			DebounceMs: 100,
			Extensions: []string{".md", ".txt", ".log", ".json"},
		},
		Viewer: Viewer{
			HTTPAddr: "127.0.0.1:3333",
			Debug:    false,
			Theme:    "dark",
		},
		AutoSave: AutoSave{
			Enabled:    true,
			IntervalMs: 3000,
		},
		Notifications: Notifications{
			Enabled: true,
		},
	}
}

func (c *Config) Validate() error {
	// Paths
	if strings.TrimSpace(c.Paths.NotesRoot) == "" {
		return errors.New("paths.notes_root is required")
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir is required")
	}

	// Watcher
	if c.Watcher.DebounceMs < 0 || c.Watcher.DebounceMs > 10_000 {
		return errors.New("watcher.debounce_ms must be 0..10000")
	}
	if len(c.Watcher.Extensions) == 0 {
		return errors.New("watcher.extensions must not be empty")
	}
	for _, ext := range c.Watcher.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("watcher.extensions: %q must start with a dot", ext)
		}
	}

	// Viewer
	if strings.TrimSpace(c.Viewer.HTTPAddr) == "" {
		return errors.New("viewer.http_addr is required")
	}
	host, port, err := net.SplitHostPort(c.Viewer.HTTPAddr)
	if err != nil {
		return fmt.Errorf("viewer.http_addr: %v", err)
	}
	if host != "" && net.ParseIP(host) == nil {
		return errors.New("viewer.http_addr host must be an IP address")
	}
	if port == "" {
		return errors.New("viewer.http_addr port is required")
	}

	// AutoSave
	if c.AutoSave.Enabled && c.AutoSave.IntervalMs < 250 {
		return errors.New("autosave.interval_ms must be >= 250 when enabled")
	}

	return nil
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	// Strip UTF-8 BOM if present (common when editing JSON on Windows).
	b = stripBOM(b)

	// Start from defaults so missing JSON fields remain initialized.
	cfg := Default()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// stripBOM removes a UTF-8 byte order mark if present.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	return util.WriteJSONFile(path, cfg)
}

// Ensure loads config if it exists; otherwise creates a default config file.
// Returns (cfg, createdNew, err).
func Ensure(path string) (Config, bool, error) {
	if _, err := os.Stat(path); err == nil {
		cfg, err := Load(path)
		return cfg, false, err
	} else if !os.IsNotExist(err) {
		return Config{}, false, err
	}

	cfg := Default()
	if err := Save(path, cfg); err != nil {
		return Config{}, false, fmt.Errorf("create default config: %w", err)
	}
	return cfg, true, nil
}
