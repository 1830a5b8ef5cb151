package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/Rorical/RoriChat/internal/backend"
	"github.com/Rorical/RoriChat/internal/conversation"
	"github.com/Rorical/RoriChat/internal/models"
	"github.com/Rorical/RoriChat/internal/storage"
)

// Backend kinds a profile can use.
const (
	BackendServer = "server"
	BackendOpenAI = "openai"
)

type Profile struct {
	Backend   string `toml:"backend"`
	Endpoint  string `toml:"endpoint,omitempty"`
	APIKey    string `toml:"api_key,omitempty"`
	Model     string `toml:"model"`
	SessionID string `toml:"session_id,omitempty"`
}

type StorageConfig struct {
	Driver string `toml:"driver"`
	Path   string `toml:"path,omitempty"`
	URL    string `toml:"url,omitempty"`
	Key    string `toml:"key,omitempty"`
}

type ServerConfig struct {
	Addr            string            `toml:"addr"`
	Database        string            `toml:"database,omitempty"`
	UpstreamBaseURL string            `toml:"upstream_base_url,omitempty"`
	UpstreamAPIKey  string            `toml:"upstream_api_key,omitempty"`
	AllowedOrigins  []string          `toml:"allowed_origins,omitempty"`
	Routes          map[string]string `toml:"routes,omitempty"`
}

type Config struct {
	ActiveProfile string             `toml:"active_profile"`
	Profiles      map[string]Profile `toml:"profiles"`
	Storage       StorageConfig      `toml:"storage"`
	Server        ServerConfig       `toml:"server"`

	dir            string
	currentProfile *Profile
	env            envOverrides
}

// envOverrides are read from the environment on load and never saved.
type envOverrides struct {
	endpoint      string
	apiKey        string
	storageDriver string
}

// LoadDotEnv loads a .env file from the working directory if present.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// LoadConfig loads the config from the default directory, creating a
// default file on first run.
func LoadConfig() (*Config, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadConfigFrom(dir)
}

// LoadConfigFrom loads config.toml from dir.
func LoadConfigFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config, err := loadConfigFile(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := config.setCurrentProfile(); err != nil {
		return nil, fmt.Errorf("failed to set current profile: %w", err)
	}
	config.applyEnvOverrides()

	return config, nil
}

// GetConfigDir returns $RORICHAT_HOME/.rorichat, or ~/.rorichat.
func GetConfigDir() (string, error) {
	var base string
	if home := os.Getenv("RORICHAT_HOME"); home != "" {
		base = home
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = homeDir
	}
	return filepath.Join(base, ".rorichat"), nil
}

func configPath(dir string) string {
	return filepath.Join(dir, "config.toml")
}

func loadConfigFile(dir string) (*Config, error) {
	path := configPath(dir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefaultConfig(dir)
	}

	config := &Config{}
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, err
	}
	config.dir = dir
	config.fillDefaults()
	return config, nil
}

// DefaultProfile talks to a reference server on localhost.
func DefaultProfile() Profile {
	return Profile{
		Backend:   BackendServer,
		Endpoint:  backend.DefaultEndpoint,
		Model:     string(models.DefaultModel),
		SessionID: backend.DefaultSessionID,
	}
}

func defaultConfig(dir string) *Config {
	return &Config{
		ActiveProfile: "default",
		Profiles: map[string]Profile{
			"default": DefaultProfile(),
		},
		Storage: StorageConfig{
			Driver: string(storage.DriverFile),
			Key:    conversation.DefaultKey,
		},
		Server: ServerConfig{
			Addr:            ":8000",
			UpstreamBaseURL: backend.DefaultOpenAIBaseURL,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		dir: dir,
	}
}

func createDefaultConfig(dir string) (*Config, error) {
	config := defaultConfig(dir)
	if err := config.Save(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) fillDefaults() {
	defaults := defaultConfig(c.dir)
	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaults.Storage.Key
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.UpstreamBaseURL == "" {
		c.Server.UpstreamBaseURL = defaults.Server.UpstreamBaseURL
	}
	for name, p := range c.Profiles {
		if p.Backend == "" {
			p.Backend = BackendServer
		}
		if p.Model == "" {
			p.Model = string(models.DefaultModel)
		}
		c.Profiles[name] = p
	}
}

func (c *Config) applyEnvOverrides() {
	c.env = envOverrides{
		endpoint:      os.Getenv("RORICHAT_API_URL"),
		apiKey:        os.Getenv("RORICHAT_API_KEY"),
		storageDriver: os.Getenv("RORICHAT_STORAGE"),
	}
}

// Save writes the config back to config.toml (0600, it may hold API keys).
func (c *Config) Save() error {
	f, err := os.OpenFile(configPath(c.dir), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

func (c *Config) setCurrentProfile() error {
	if len(c.Profiles) == 0 {
		return fmt.Errorf("no profiles defined")
	}

	profile, exists := c.Profiles[c.ActiveProfile]
	if !exists {
		// fall back to the first profile by name
		names := c.ProfileNames()
		c.ActiveProfile = names[0]
		profile = c.Profiles[names[0]]
	}

	c.currentProfile = &profile
	return nil
}

// UseProfile makes name the active profile for this process. Call Save to
// keep the choice.
func (c *Config) UseProfile(name string) error {
	if _, ok := c.Profiles[name]; !ok {
		return fmt.Errorf("profile '%s' does not exist", name)
	}
	c.ActiveProfile = name
	return c.setCurrentProfile()
}

// ProfileNames returns profile names sorted alphabetically.
func (c *Config) ProfileNames() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Config) Dir() string { return c.dir }

// IsValid reports whether the active profile can reach a backend.
func (c *Config) IsValid() bool {
	if c.currentProfile == nil {
		return false
	}
	switch c.GetBackendKind() {
	case BackendServer:
		return c.GetEndpoint() != ""
	case BackendOpenAI:
		return c.GetAPIKey() != ""
	}
	return false
}

func (c *Config) GetBackendKind() string {
	if c.currentProfile == nil || c.currentProfile.Backend == "" {
		return BackendServer
	}
	return c.currentProfile.Backend
}

func (c *Config) GetEndpoint() string {
	if c.env.endpoint != "" {
		return c.env.endpoint
	}
	if c.currentProfile == nil || c.currentProfile.Endpoint == "" {
		if c.GetBackendKind() == BackendOpenAI {
			return backend.DefaultOpenAIBaseURL
		}
		return backend.DefaultEndpoint
	}
	return c.currentProfile.Endpoint
}

func (c *Config) GetAPIKey() string {
	if c.env.apiKey != "" {
		return c.env.apiKey
	}
	if c.currentProfile == nil {
		return ""
	}
	return c.currentProfile.APIKey
}

// GetModel returns the startup model of the active profile, falling back to
// the default for unknown values.
func (c *Config) GetModel() models.ModelID {
	if c.currentProfile == nil {
		return models.DefaultModel
	}
	id, err := models.ParseModel(c.currentProfile.Model)
	if err != nil {
		return models.DefaultModel
	}
	return id
}

func (c *Config) GetSessionID() string {
	if c.currentProfile == nil || c.currentProfile.SessionID == "" {
		return backend.DefaultSessionID
	}
	return c.currentProfile.SessionID
}

// StorageOptions resolves the storage table into driver options, filling
// default paths under the config directory.
func (c *Config) StorageOptions() storage.Options {
	driver := storage.Driver(c.Storage.Driver)
	if c.env.storageDriver != "" {
		driver = storage.Driver(c.env.storageDriver)
	}
	if driver == "" {
		driver = storage.DriverFile
	}

	opts := storage.Options{Driver: driver, Path: c.Storage.Path, URL: c.Storage.URL}
	if opts.Path == "" {
		switch driver {
		case storage.DriverFile:
			opts.Path = filepath.Join(c.dir, "history")
		case storage.DriverSQLite:
			opts.Path = filepath.Join(c.dir, "history.db")
		}
	}
	return opts
}

func (c *Config) StorageKey() string {
	if c.Storage.Key == "" {
		return conversation.DefaultKey
	}
	return c.Storage.Key
}

// ServerDatabase returns the reference server's SQLite path.
func (c *Config) ServerDatabase() string {
	if c.Server.Database != "" {
		return c.Server.Database
	}
	return filepath.Join(c.dir, "chat_history.db")
}

// ServerRoutes converts the configured route table to model ids, skipping
// unknown names.
func (c *Config) ServerRoutes() map[models.ModelID]string {
	routes := make(map[models.ModelID]string, len(c.Server.Routes))
	for name, upstream := range c.Server.Routes {
		if id, err := models.ParseModel(name); err == nil {
			routes[id] = upstream
		}
	}
	return routes
}

// ServerAPIKey returns the upstream key for the reference server, falling
// back to RORICHAT_API_KEY.
func (c *Config) ServerAPIKey() string {
	if c.Server.UpstreamAPIKey != "" {
		return c.Server.UpstreamAPIKey
	}
	return c.env.apiKey
}
