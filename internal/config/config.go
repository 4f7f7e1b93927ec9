package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"loopscroll/internal/domain"
	"loopscroll/internal/eventbus"
)

// EnvPrefix prefixes every environment override, e.g. LOOPSCROLL_SCROLL_SPEED
const EnvPrefix = "LOOPSCROLL"

// Config represents the application configuration
type Config struct {
	Version int            `toml:"version"`
	Scroll  ScrollSettings `toml:"scroll"`
	Feed    FeedSettings   `toml:"feed"`
	UI      UISettings     `toml:"ui"`
}

// ScrollSettings configures the scrolling engine
type ScrollSettings struct {
	Direction    string   `toml:"direction"`
	Speed        float64  `toml:"speed"` // cells per frame
	Wait         Duration `toml:"wait"`
	WaitMode     string   `toml:"wait_mode"`
	LoadCount    int      `toml:"load_count"`
	PauseOnHover bool     `toml:"pause_on_hover"`
	ItemKey      string   `toml:"item_key"`
}

// FeedSettings configures how input is read and split into entries
type FeedSettings struct {
	Format    string `toml:"format"` // lines or jsonl
	KeyField  string `toml:"key_field"`
	TextField string `toml:"text_field"`
	Follow    bool   `toml:"follow"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	Width    int  `toml:"width"`  // 0 follows the terminal
	Height   int  `toml:"height"` // 0 follows the terminal
	FPS      int  `toml:"fps"`
	ShowHelp bool `toml:"show_help"`
}

// Duration is a time.Duration written as a string such as "1.5s"
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(v)
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service for the user's config file
func NewConfigService(bus eventbus.EventBus) ConfigService {
	return NewConfigServiceAt(DefaultPath(), bus)
}

// NewConfigServiceAt creates a config service whose Load and Save use path.
// bus may be nil.
func NewConfigServiceAt(path string, bus eventbus.EventBus) ConfigService {
	return &configService{bus: bus, filePath: path}
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "loopscroll", "config.toml")
}

// Load loads the configuration file, or the defaults when it doesn't exist
func (cs *configService) Load() (*Config, error) {
	cfg, err := cs.LoadFromPath(cs.filePath)
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = DefaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}
	return cfg, nil
}

// Save saves the configuration file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path. Keys missing from
// the file keep their default values.
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Normalize()
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Scroll: ScrollSettings{
			Direction:    string(domain.DirectionUp),
			Speed:        1,
			WaitMode:     string(domain.WaitPerItem),
			LoadCount:    10,
			PauseOnHover: true,
			ItemKey:      "id",
		},
		Feed: FeedSettings{
			Format:    "lines",
			KeyField:  "id",
			TextField: "text",
		},
		UI: UISettings{
			FPS: 12,
		},
	}
}

// Normalize clamps out-of-range values to usable ones
func (c *Config) Normalize() {
	if c.Scroll.Speed < 0 || math.IsNaN(c.Scroll.Speed) || math.IsInf(c.Scroll.Speed, 0) {
		c.Scroll.Speed = 0
	}
	if c.Scroll.Wait < 0 {
		c.Scroll.Wait = 0
	}
	if c.Scroll.LoadCount < 1 {
		c.Scroll.LoadCount = 1
	}
	if _, err := domain.ParseDirection(c.Scroll.Direction); err != nil {
		c.Scroll.Direction = string(domain.DirectionUp)
	}
	if _, err := domain.ParseWaitMode(c.Scroll.WaitMode); err != nil {
		c.Scroll.WaitMode = string(domain.WaitPerItem)
	}
	if c.Feed.Format != "lines" && c.Feed.Format != "jsonl" {
		c.Feed.Format = "lines"
	}
	c.UI.Width = max(c.UI.Width, 0)
	c.UI.Height = max(c.UI.Height, 0)
	c.UI.FPS = min(max(c.UI.FPS, 1), 60)
}

// envKeys lists every setting that can be overridden from the environment
var envKeys = []string{
	"scroll.direction",
	"scroll.speed",
	"scroll.wait",
	"scroll.wait_mode",
	"scroll.load_count",
	"scroll.pause_on_hover",
	"scroll.item_key",
	"feed.format",
	"feed.key_field",
	"feed.text_field",
	"feed.follow",
	"ui.width",
	"ui.height",
	"ui.fps",
	"ui.show_help",
}

// ApplyEnv overlays LOOPSCROLL_<SECTION>_<KEY> environment variables on cfg
func ApplyEnv(cfg *Config) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var errs []error
	set := func(key string, apply func(raw any) error) {
		if !v.IsSet(key) {
			return
		}
		if err := apply(v.Get(key)); err != nil {
			errs = append(errs, fmt.Errorf("failed to apply %s_%s: %w",
				EnvPrefix, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), err))
		}
	}
	str := func(dst *string) func(any) error {
		return func(raw any) error {
			s, err := cast.ToStringE(raw)
			*dst = s
			return err
		}
	}
	integer := func(dst *int) func(any) error {
		return func(raw any) error {
			n, err := cast.ToIntE(raw)
			if err == nil {
				*dst = n
			}
			return err
		}
	}
	boolean := func(dst *bool) func(any) error {
		return func(raw any) error {
			b, err := cast.ToBoolE(raw)
			if err == nil {
				*dst = b
			}
			return err
		}
	}

	set("scroll.direction", str(&cfg.Scroll.Direction))
	set("scroll.speed", func(raw any) error {
		f, err := cast.ToFloat64E(raw)
		if err == nil {
			cfg.Scroll.Speed = f
		}
		return err
	})
	set("scroll.wait", func(raw any) error {
		d, err := parseWait(raw)
		if err == nil {
			cfg.Scroll.Wait = Duration(d)
		}
		return err
	})
	set("scroll.wait_mode", str(&cfg.Scroll.WaitMode))
	set("scroll.load_count", integer(&cfg.Scroll.LoadCount))
	set("scroll.pause_on_hover", boolean(&cfg.Scroll.PauseOnHover))
	set("scroll.item_key", str(&cfg.Scroll.ItemKey))
	set("feed.format", str(&cfg.Feed.Format))
	set("feed.key_field", str(&cfg.Feed.KeyField))
	set("feed.text_field", str(&cfg.Feed.TextField))
	set("feed.follow", boolean(&cfg.Feed.Follow))
	set("ui.width", integer(&cfg.UI.Width))
	set("ui.height", integer(&cfg.UI.Height))
	set("ui.fps", integer(&cfg.UI.FPS))
	set("ui.show_help", boolean(&cfg.UI.ShowHelp))

	cfg.Normalize()
	return errors.Join(errs...)
}

// parseWait reads a wait time such as "500ms" or "2s". A bare number other
// than 0 is rejected: cast would read it as nanoseconds.
func parseWait(raw any) (time.Duration, error) {
	s, err := cast.ToStringE(raw)
	if err != nil {
		return 0, err
	}
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil && f != 0 {
		return 0, fmt.Errorf("duration %q needs a unit such as ms or s", s)
	}
	return cast.ToDurationE(s)
}
