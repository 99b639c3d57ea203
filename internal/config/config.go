package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/ykvlv/sunrise-countdown/internal/sunrise"
)

// Sunrise source names accepted in SUNRISE_SOURCE.
const (
	SourceAuto   = "auto" // api, then solar calculation
	SourceAPI    = "api"
	SourceSolar  = "solar"
	SourceManual = "manual" // only MANUAL_SUNRISE / chat input
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"` // debug|info|warn|error
	LogFile  string `envconfig:"LOG_FILE"`                 // stderr when empty
	DBPath   string `envconfig:"DB_PATH" default:"./data/countdown.db"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics, empty disables

	TickInterval time.Duration `envconfig:"TICK_INTERVAL" default:"1s"`
	NotifyWindow time.Duration `envconfig:"NOTIFY_WINDOW" default:"1s"`

	Latitude      string        `envconfig:"LATITUDE"`
	Longitude     string        `envconfig:"LONGITUDE"`
	SunriseSource string        `envconfig:"SUNRISE_SOURCE" default:"auto"`
	SunriseAPIURL string        `envconfig:"SUNRISE_API_URL" default:"https://api.sunrise-sunset.org/json"`
	FetchTimeout  time.Duration `envconfig:"FETCH_TIMEOUT" default:"10s"`
	ManualSunrise string        `envconfig:"MANUAL_SUNRISE"`                // HH:MM
	RefreshAt     string        `envconfig:"REFRESH_AT" default:"00:00:05"` // daily re-acquisition, local time

	Display  bool   `envconfig:"DISPLAY" default:"true"`
	BotToken string `envconfig:"BOT_TOKEN"`
	ChatID   int64  `envconfig:"CHAT_ID"`
}

// Load reads an optional .env file and then environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	if c.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	if c.NotifyWindow < c.TickInterval {
		return fmt.Errorf("NOTIFY_WINDOW (%s) must be at least TICK_INTERVAL (%s)", c.NotifyWindow, c.TickInterval)
	}
	switch c.SunriseSource {
	case SourceAuto, SourceAPI, SourceSolar, SourceManual:
	default:
		return fmt.Errorf("unknown SUNRISE_SOURCE %q", c.SunriseSource)
	}
	if _, _, _, err := c.RefreshTime(); err != nil {
		return err
	}
	if _, _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured coordinates; ok is false when either is unset.
func (c Config) Location() (loc sunrise.Location, ok bool, err error) {
	if c.Latitude == "" || c.Longitude == "" {
		return loc, false, nil
	}
	loc.Lat, err = strconv.ParseFloat(strings.TrimSpace(c.Latitude), 64)
	if err != nil {
		return loc, false, fmt.Errorf("LATITUDE: %w", err)
	}
	loc.Lon, err = strconv.ParseFloat(strings.TrimSpace(c.Longitude), 64)
	if err != nil {
		return loc, false, fmt.Errorf("LONGITUDE: %w", err)
	}
	if err := loc.Validate(); err != nil {
		return loc, false, err
	}
	return loc, true, nil
}

// RefreshTime parses REFRESH_AT as HH:MM:SS.
func (c Config) RefreshTime() (h, m, s uint, err error) {
	t, err := time.Parse("15:04:05", c.RefreshAt)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("REFRESH_AT: %w", err)
	}
	return uint(t.Hour()), uint(t.Minute()), uint(t.Second()), nil
}
