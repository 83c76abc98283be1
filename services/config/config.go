package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"hwpanel-go/errcode"
	"hwpanel-go/services/logging"
	"hwpanel-go/x/strx"
	"hwpanel-go/x/timex"
)

// -----------------------------------------------------------------------------
// String constants
// -----------------------------------------------------------------------------

const (
	DefaultDevice = "sim"
	envPrefix     = "HWPANEL"
)

// EmbeddedConfigLookup allows overriding how the built-in defaults are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Typed configuration
// -----------------------------------------------------------------------------

type Config struct {
	Device     string           `mapstructure:"device" yaml:"device"`
	Display    DisplayConfig    `mapstructure:"display" yaml:"display"`
	Render     RenderConfig     `mapstructure:"render" yaml:"render"`
	Touch      TouchConfig      `mapstructure:"touch" yaml:"touch"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
	Network    NetworkConfig    `mapstructure:"network" yaml:"network"`
	Time       TimeConfig       `mapstructure:"time" yaml:"time"`
	Watchdog   WatchdogConfig   `mapstructure:"watchdog" yaml:"watchdog"`
	Transition TransitionConfig `mapstructure:"transition" yaml:"transition"`
	Admin      AdminConfig      `mapstructure:"admin" yaml:"admin"`
	Heartbeat  HeartbeatConfig  `mapstructure:"heartbeat" yaml:"heartbeat"`
	Logging    logging.Config   `mapstructure:"logging" yaml:"logging"`
}

type DisplayConfig struct {
	Width          int16             `mapstructure:"width" yaml:"width"`
	Height         int16             `mapstructure:"height" yaml:"height"`
	Brightness     uint8             `mapstructure:"brightness" yaml:"brightness"`
	TouchThreshold int               `mapstructure:"touch_threshold" yaml:"touch_threshold"`
	Calibration    CalibrationConfig `mapstructure:"calibration" yaml:"calibration"`
}

type CalibrationConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	MinX    uint16 `mapstructure:"min_x" yaml:"min_x"`
	MaxX    uint16 `mapstructure:"max_x" yaml:"max_x"`
	MinY    uint16 `mapstructure:"min_y" yaml:"min_y"`
	MaxY    uint16 `mapstructure:"max_y" yaml:"max_y"`
	SwapXY  bool   `mapstructure:"swap_xy" yaml:"swap_xy"`
}

type RenderConfig struct {
	FPS         uint32        `mapstructure:"fps" yaml:"fps"`
	LockTimeout time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
}

// Period is the render context period derived from FPS.
func (r RenderConfig) Period() time.Duration { return timex.PeriodFromHz(r.FPS) }

type TouchConfig struct {
	Period         time.Duration `mapstructure:"period" yaml:"period"`
	Debounce       time.Duration `mapstructure:"debounce" yaml:"debounce"`
	WidgetDebounce time.Duration `mapstructure:"widget_debounce" yaml:"widget_debounce"`
}

type TelemetryConfig struct {
	URL              string        `mapstructure:"url" yaml:"url"`
	Interval         time.Duration `mapstructure:"interval" yaml:"interval"`
	PollPeriod       time.Duration `mapstructure:"poll_period" yaml:"poll_period"`
	StaleTimeout     time.Duration `mapstructure:"stale_timeout" yaml:"stale_timeout"`
	RequestTimeout   time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	FailureThreshold int           `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	Cores            int           `mapstructure:"cores" yaml:"cores"`
	UpwardFactor     float64       `mapstructure:"upward_factor" yaml:"upward_factor"`
	DownwardFactor   float64       `mapstructure:"downward_factor" yaml:"downward_factor"`
}

type NetworkConfig struct {
	ProbeURL           string        `mapstructure:"probe_url" yaml:"probe_url"`
	Retries            int           `mapstructure:"retries" yaml:"retries"`
	RetryDelay         time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

type TimeConfig struct {
	URL       string        `mapstructure:"url" yaml:"url"`
	Retries   int           `mapstructure:"retries" yaml:"retries"`
	BaseDelay time.Duration `mapstructure:"base_delay" yaml:"base_delay"`
	JitterMax time.Duration `mapstructure:"jitter_max" yaml:"jitter_max"`
	MinYear   int           `mapstructure:"min_year" yaml:"min_year"`
}

type WatchdogConfig struct {
	Enabled     bool          `mapstructure:"enabled" yaml:"enabled"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CheckPeriod time.Duration `mapstructure:"check_period" yaml:"check_period"`
}

type TransitionConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr" yaml:"addr"`
}

type HeartbeatConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

// -----------------------------------------------------------------------------
// Loading
// -----------------------------------------------------------------------------

// Options selects where configuration comes from.
type Options struct {
	Device string // embedded defaults to start from; DefaultDevice when empty
	File   string // optional file merged over the defaults
}

// Load resolves the configuration: embedded device defaults, then the
// optional file, then HWPANEL_* environment variables.
func Load(opts Options) (*Config, error) {
	device := strx.Coalesce(opts.Device, DefaultDevice)

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: "config.load", Msg: "no embedded config for device: " + device}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(raw)); err != nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "config.embedded", err)
	}
	v.Set("device", device)

	if opts.File != "" {
		if _, err := os.Stat(opts.File); err != nil {
			return nil, fmt.Errorf("config file %s: %w", opts.File, err)
		}
		v.SetConfigFile(opts.File)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("failed to merge config file %s: %w", opts.File, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errcode.Wrap(errcode.InvalidConfig, "config.unmarshal", err)
	}
	normalize(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func normalize(c *Config) {
	c.Network.ProbeURL = strx.Coalesce(c.Network.ProbeURL, c.Telemetry.URL)
	if c.Display.Brightness > 100 {
		c.Display.Brightness = 100
	}
}

// Validate checks the values the runtime cannot work around.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, msg string) {
		if !ok {
			errs = append(errs, errors.New(msg))
		}
	}
	check(c.Display.Width > 0 && c.Display.Height > 0, "display size must be positive")
	check(c.Render.FPS > 0 && c.Render.FPS <= 120, "render.fps must be in 1..120")
	check(c.Render.LockTimeout > 0, "render.lock_timeout must be positive")
	check(c.Touch.Period > 0, "touch.period must be positive")
	check(c.Telemetry.URL != "", "telemetry.url is required")
	check(c.Telemetry.Interval > 0, "telemetry.interval must be positive")
	check(c.Telemetry.PollPeriod > 0, "telemetry.poll_period must be positive")
	check(c.Telemetry.StaleTimeout > 0, "telemetry.stale_timeout must be positive")
	check(c.Telemetry.FailureThreshold > 0, "telemetry.failure_threshold must be positive")
	check(c.Telemetry.Cores > 0, "telemetry.cores must be positive")
	check(between01(c.Telemetry.UpwardFactor) && between01(c.Telemetry.DownwardFactor), "smoothing factors must be in [0,1]")
	check(c.Network.Retries > 0 && c.Time.Retries > 0, "retry counts must be positive")
	check(c.Transition.Timeout > 0, "transition.timeout must be positive")
	check(!c.Watchdog.Enabled || c.Watchdog.Timeout > 0, "watchdog.timeout must be positive")

	if len(errs) == 0 {
		return nil
	}
	return &errcode.E{C: errcode.InvalidConfig, Op: "config.validate", Err: errors.Join(errs...)}
}

func between01(f float64) bool { return f >= 0 && f <= 1 }
