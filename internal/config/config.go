// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire framework configuration. A Config is built once at
// startup (or explicitly rebuilt) and handed to components by reference; it is
// never mutated in place, so readers need no synchronization.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Driver   DriverConfig   `mapstructure:"driver" yaml:"driver"`
	Wait     WaitConfig     `mapstructure:"wait" yaml:"wait"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Runner   RunnerConfig   `mapstructure:"runner" yaml:"runner"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// DriverBackend selects how browser sessions are provisioned.
type DriverBackend string

const (
	// BackendWebDriver drives a remote browser through the WebDriver protocol
	// (a local driver binary or a Selenium grid).
	BackendWebDriver DriverBackend = "webdriver"
	// BackendCDP drives a locally launched Chrome through the DevTools protocol.
	BackendCDP DriverBackend = "cdp"
)

// DriverConfig holds settings for browser session provisioning.
type DriverConfig struct {
	Backend           DriverBackend `mapstructure:"backend" yaml:"backend"`
	Browser           string        `mapstructure:"browser" yaml:"browser"`
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	GridURL           string        `mapstructure:"grid_url" yaml:"grid_url"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
}

// WaitConfig is the default explicit-wait contract shared by all element
// interactions unless a page supplies its own override.
type WaitConfig struct {
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Poll    time.Duration `mapstructure:"poll" yaml:"poll"`
}

// DownloadTopology names where downloaded files become observable.
type DownloadTopology string

const (
	// TopologyLocal polls a directory on the machine running the tests.
	TopologyLocal DownloadTopology = "local"
	// TopologyRemoteManaged polls the remote session's managed-download
	// manifest and fetches chosen files to the local destination.
	TopologyRemoteManaged DownloadTopology = "remote_managed"
	// TopologyRemoteMounted polls a host directory that the remote browser's
	// download folder is mounted into.
	TopologyRemoteMounted DownloadTopology = "remote_mounted"
)

// DownloadConfig holds settings for the download completion detector.
type DownloadConfig struct {
	Topology DownloadTopology `mapstructure:"topology" yaml:"topology"`
	Dir      string           `mapstructure:"dir" yaml:"dir"`
	Timeout  time.Duration    `mapstructure:"timeout" yaml:"timeout"`
	Poll     time.Duration    `mapstructure:"poll" yaml:"poll"`
}

// RunnerConfig tunes parallel suite execution.
type RunnerConfig struct {
	Concurrency int  `mapstructure:"concurrency" yaml:"concurrency"`
	FailFast    bool `mapstructure:"fail_fast" yaml:"fail_fast"`
}

// ReportConfig holds settings for evidence recording.
type ReportConfig struct {
	Dir                 string `mapstructure:"dir" yaml:"dir"`
	ScreenshotOnFailure bool   `mapstructure:"screenshot_on_failure" yaml:"screenshot_on_failure"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uitest")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Driver --
	v.SetDefault("driver.backend", string(BackendCDP))
	v.SetDefault("driver.browser", "chrome")
	v.SetDefault("driver.headless", true)
	v.SetDefault("driver.grid_url", "")
	v.SetDefault("driver.navigation_timeout", "90s")
	v.SetDefault("driver.window_width", 1920)
	v.SetDefault("driver.window_height", 1080)

	// -- Wait --
	v.SetDefault("wait.timeout", 20*time.Second)
	v.SetDefault("wait.poll", 500*time.Millisecond)

	// -- Download --
	v.SetDefault("download.topology", string(TopologyLocal))
	v.SetDefault("download.dir", "downloads")
	v.SetDefault("download.timeout", 45*time.Second)
	v.SetDefault("download.poll", 300*time.Millisecond)

	// -- Runner --
	v.SetDefault("runner.concurrency", 4)
	v.SetDefault("runner.fail_fast", false)

	// -- Report --
	v.SetDefault("report.dir", "uitest-report")
	v.SetDefault("report.screenshot_on_failure", true)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Unreachable with defaults, but fail loudly rather than run misconfigured.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Expand "~" so download and report paths work when configured per user.
	var err error
	if cfg.Download.Dir, err = homedir.Expand(cfg.Download.Dir); err != nil {
		return nil, fmt.Errorf("invalid download.dir: %w", err)
	}
	if cfg.Report.Dir, err = homedir.Expand(cfg.Report.Dir); err != nil {
		return nil, fmt.Errorf("invalid report.dir: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.Driver.Backend {
	case BackendWebDriver, BackendCDP:
	default:
		return fmt.Errorf("driver.backend must be one of %q, %q", BackendWebDriver, BackendCDP)
	}
	if c.Driver.Backend == BackendWebDriver && c.Driver.GridURL == "" {
		return fmt.Errorf("driver.grid_url is required for the webdriver backend")
	}

	if c.Wait.Timeout <= 0 {
		return fmt.Errorf("wait.timeout must be a positive duration")
	}
	if c.Wait.Poll <= 0 || c.Wait.Poll > c.Wait.Timeout {
		return fmt.Errorf("wait.poll must be positive and no larger than wait.timeout")
	}

	switch c.Download.Topology {
	case TopologyLocal, TopologyRemoteManaged, TopologyRemoteMounted:
	default:
		return fmt.Errorf("download.topology must be one of %q, %q, %q",
			TopologyLocal, TopologyRemoteManaged, TopologyRemoteMounted)
	}
	if c.Download.Topology == TopologyRemoteManaged && c.Driver.Backend != BackendWebDriver {
		return fmt.Errorf("download.topology %q requires the webdriver backend", TopologyRemoteManaged)
	}
	if c.Download.Dir == "" {
		return fmt.Errorf("download.dir is a required configuration field")
	}
	if c.Download.Timeout <= 0 {
		return fmt.Errorf("download.timeout must be a positive duration")
	}
	if c.Download.Poll <= 0 || c.Download.Poll > c.Download.Timeout {
		return fmt.Errorf("download.poll must be positive and no larger than download.timeout")
	}

	if c.Runner.Concurrency <= 0 {
		return fmt.Errorf("runner.concurrency must be a positive integer")
	}
	return nil
}

// ParseTopology converts a raw string (flag or env value) to a DownloadTopology.
func ParseTopology(s string) (DownloadTopology, error) {
	switch DownloadTopology(strings.ToLower(strings.TrimSpace(s))) {
	case TopologyLocal:
		return TopologyLocal, nil
	case TopologyRemoteManaged:
		return TopologyRemoteManaged, nil
	case TopologyRemoteMounted:
		return TopologyRemoteMounted, nil
	default:
		return "", fmt.Errorf("unknown download topology %q", s)
	}
}
