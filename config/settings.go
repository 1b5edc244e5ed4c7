package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Catalog  CatalogSettings  `json:"catalog"`
	Accounts AccountsSettings `json:"accounts"`
	Sessions SessionSettings  `json:"sessions"`
	Log      LogConfig        `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// CatalogSource maps one streaming service to its tabular source. Location is
// either a file path (relative paths resolve against Catalog.Directory) or an
// http(s) URL.
type CatalogSource struct {
	Service  string `json:"service"`
	Location string `json:"location"`
}

type CatalogSettings struct {
	Directory          string          `json:"directory"`
	Sources            []CatalogSource `json:"sources"`
	LoadTimeoutSeconds int             `json:"loadTimeoutSeconds"`
}

type AccountsSettings struct {
	Directory string `json:"directory"`
}

type SessionSettings struct {
	TTLMinutes int `json:"ttlMinutes"`
}

// LogConfig controls file logging and rotation.
type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the configuration written on first start.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{Host: "0.0.0.0", Port: 5555},
		Catalog: CatalogSettings{
			Directory:          "data/csvs",
			Sources:            defaultCatalogSources(),
			LoadTimeoutSeconds: 30,
		},
		Accounts: AccountsSettings{Directory: "data"},
		Sessions: SessionSettings{TTLMinutes: 720},
		Log: LogConfig{
			File:       "data/logs/backend.log",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
		},
	}
}

func defaultCatalogSources() []CatalogSource {
	return []CatalogSource{
		{Service: "netflix", Location: "netflix.csv"},
		{Service: "hulu", Location: "hulu.csv"},
		{Service: "prime", Location: "prime.csv"},
		{Service: "disney", Location: "disney.csv"},
		{Service: "paramount", Location: "paramount.csv"},
		{Service: "max", Location: "max.csv"},
	}
}

// ResolveLocation returns the absolute source location for a catalog entry.
// URLs pass through untouched; relative paths resolve against the catalog
// directory.
func (c CatalogSettings) ResolveLocation(src CatalogSource) string {
	loc := strings.TrimSpace(src.Location)
	if loc == "" {
		return ""
	}
	if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
		return loc
	}
	if filepath.IsAbs(loc) {
		return loc
	}
	return filepath.Join(c.Directory, loc)
}

// Manager loads and saves settings.json.
type Manager struct {
	path string
}

func NewManager(path string) *Manager {
	return &Manager{path: path}
}

// Path returns the settings file location.
func (m *Manager) Path() string { return m.path }

// EnsureDir creates the directory holding the settings file.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads settings.json from disk or creates defaults if missing.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}
	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	var s Settings
	dec := json.NewDecoder(f)
	if err := dec.Decode(&s); err != nil {
		return Settings{}, err
	}

	// Backfill defaults when the config predates newer fields.
	if strings.TrimSpace(s.Server.Host) == "" {
		s.Server.Host = "0.0.0.0"
	}
	if s.Server.Port == 0 {
		s.Server.Port = 5555
	}
	if strings.TrimSpace(s.Catalog.Directory) == "" {
		s.Catalog.Directory = "data/csvs"
	}
	if len(s.Catalog.Sources) == 0 {
		s.Catalog.Sources = defaultCatalogSources()
	}
	if s.Catalog.LoadTimeoutSeconds == 0 {
		s.Catalog.LoadTimeoutSeconds = 30
	}
	if strings.TrimSpace(s.Accounts.Directory) == "" {
		s.Accounts.Directory = "data"
	}
	if s.Sessions.TTLMinutes == 0 {
		s.Sessions.TTLMinutes = 720
	}
	if strings.TrimSpace(s.Log.File) == "" {
		s.Log.File = "data/logs/backend.log"
	}
	if s.Log.MaxSize == 0 {
		s.Log.MaxSize = 50
	}
	if s.Log.MaxBackups == 0 {
		s.Log.MaxBackups = 3
	}
	if s.Log.MaxAge == 0 {
		s.Log.MaxAge = 7
	}

	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
