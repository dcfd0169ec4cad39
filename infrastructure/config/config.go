package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"hometax_automation/domain/entities"
	"hometax_automation/infrastructure/browser"
)

const (
	appName = "hometax_automation"
	// EnvPrefix prefixes environment overrides, e.g. HOMETAX_HEADLESS=true
	EnvPrefix = "HOMETAX"
	// DefaultPortalURL is the Hometax entry page
	DefaultPortalURL = "https://www.hometax.go.kr/"
)

// Config is built once per run and passed explicitly
type Config struct {
	DownloadPath string `mapstructure:"download_path" yaml:"download_path"`
	Timeout      int    `mapstructure:"timeout" yaml:"timeout"`
	Headless     bool   `mapstructure:"headless" yaml:"headless"`
	Driver       string `mapstructure:"driver" yaml:"driver"`
	PortalURL    string `mapstructure:"portal_url" yaml:"portal_url"`
	ImagesDir    string `mapstructure:"images_dir" yaml:"images_dir"`
	Layout       string `mapstructure:"layout" yaml:"layout"`
	UserDataDir  string `mapstructure:"user_data_dir" yaml:"user_data_dir"`

	Locator LocatorConfig `mapstructure:"locator" yaml:"locator"`
	OCR     OCRConfig     `mapstructure:"ocr" yaml:"ocr"`
	Desktop DesktopConfig `mapstructure:"desktop" yaml:"desktop"`
	Triage  TriageConfig  `mapstructure:"triage" yaml:"triage"`
}

// LocatorConfig holds finder waits, in seconds unless noted
type LocatorConfig struct {
	StructuralWait int `mapstructure:"structural_wait" yaml:"structural_wait"`
	LinkTextWait   int `mapstructure:"link_text_wait" yaml:"link_text_wait"`
	PollIntervalMS int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
	PopupWait      int `mapstructure:"popup_wait" yaml:"popup_wait"`
}

// OCRConfig enables the OCR finder
type OCRConfig struct {
	Enabled       bool     `mapstructure:"enabled" yaml:"enabled"`
	Languages     []string `mapstructure:"languages" yaml:"languages"`
	MinConfidence float64  `mapstructure:"min_confidence" yaml:"min_confidence"`
}

// DesktopConfig switches coordinate finders from the viewport to the host screen
type DesktopConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	PauseMS int  `mapstructure:"pause_ms" yaml:"pause_ms"`
}

// TriageConfig selects downloaded files to file away
type TriageConfig struct {
	SourceDir     string   `mapstructure:"source_dir" yaml:"source_dir"`
	WindowMinutes int      `mapstructure:"window_minutes" yaml:"window_minutes"`
	SameDay       bool     `mapstructure:"same_day" yaml:"same_day"`
	Keywords      []string `mapstructure:"keywords" yaml:"keywords"`
}

// Default - returns the built-in configuration
func Default() Config {
	return Config{
		DownloadPath: "D:/홈택스_신고자료",
		Timeout:      30,
		Headless:     false,
		Driver:       string(browser.DriverPlaywright),
		PortalURL:    DefaultPortalURL,
		ImagesDir:    "images",
		Layout:       string(entities.LayoutDay),
		Locator: LocatorConfig{
			StructuralWait: 10,
			LinkTextWait:   5,
			PollIntervalMS: 250,
			PopupWait:      10,
		},
		OCR: OCRConfig{
			Languages:     []string{"kor", "eng"},
			MinConfidence: 40,
		},
		Desktop: DesktopConfig{
			PauseMS: 500,
		},
		Triage: TriageConfig{
			SourceDir:     xdg.UserDirs.Download,
			WindowMinutes: 30,
			Keywords:      []string{"신고", "hometax", "excel", "xls", "xlsx", "zip", "pdf", "납부"},
		},
	}
}

// DefaultPath - the config file location under the XDG config home
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// Load - reads .env, the config file and HOMETAX_* overrides.
// A missing config file is not an error; it is reported in the warnings.
func Load(path string) (*Config, []string, error) {
	var warnings []string
	if warn := loadDotEnv(".env"); warn != "" {
		warnings = append(warnings, warn)
	}

	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	read := true
	if path != "" {
		v.SetConfigFile(path)
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, fmt.Sprintf("config file %s not found, using defaults", path))
			read = false
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
	}

	if read {
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, warnings, fmt.Errorf("failed to read config file: %w", err)
			}
			warnings = append(warnings, "config.yaml not found, using defaults")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, warnings, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, warnings, err
	}
	return &cfg, warnings, nil
}

// loadDotEnv - loads an env file when present; existing variables win
func loadDotEnv(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Sprintf("failed to load %s: %v", path, err)
	}
	return ""
}

// setDefaults - registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("download_path", d.DownloadPath)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("headless", d.Headless)
	v.SetDefault("driver", d.Driver)
	v.SetDefault("portal_url", d.PortalURL)
	v.SetDefault("images_dir", d.ImagesDir)
	v.SetDefault("layout", d.Layout)
	v.SetDefault("user_data_dir", d.UserDataDir)

	v.SetDefault("locator.structural_wait", d.Locator.StructuralWait)
	v.SetDefault("locator.link_text_wait", d.Locator.LinkTextWait)
	v.SetDefault("locator.poll_interval_ms", d.Locator.PollIntervalMS)
	v.SetDefault("locator.popup_wait", d.Locator.PopupWait)

	v.SetDefault("ocr.enabled", d.OCR.Enabled)
	v.SetDefault("ocr.languages", d.OCR.Languages)
	v.SetDefault("ocr.min_confidence", d.OCR.MinConfidence)

	v.SetDefault("desktop.enabled", d.Desktop.Enabled)
	v.SetDefault("desktop.pause_ms", d.Desktop.PauseMS)

	v.SetDefault("triage.source_dir", d.Triage.SourceDir)
	v.SetDefault("triage.window_minutes", d.Triage.WindowMinutes)
	v.SetDefault("triage.same_day", d.Triage.SameDay)
	v.SetDefault("triage.keywords", d.Triage.Keywords)
}

// Validate - rejects values no run can work with
func (c Config) Validate() error {
	var problems []string
	if c.Timeout <= 0 {
		problems = append(problems, "timeout must be positive")
	}
	if _, err := browser.ParseDriver(c.Driver); err != nil {
		problems = append(problems, err.Error())
	}
	if _, err := entities.ParseLayout(c.Layout); err != nil {
		problems = append(problems, err.Error())
	}
	if c.Locator.StructuralWait <= 0 || c.Locator.LinkTextWait <= 0 || c.Locator.PopupWait <= 0 {
		problems = append(problems, "locator waits must be positive")
	}
	if c.Locator.PollIntervalMS <= 0 {
		problems = append(problems, "locator.poll_interval_ms must be positive")
	}
	if c.Triage.WindowMinutes <= 0 && !c.Triage.SameDay {
		problems = append(problems, "triage.window_minutes must be positive")
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		problems = append(problems, "ocr.min_confidence must be between 0 and 100")
	}
	if c.Desktop.PauseMS < 0 {
		problems = append(problems, "desktop.pause_ms must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// PageTimeout - bound for page loads
func (c Config) PageTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// BrowserOptions - session options derived from the config
func (c Config) BrowserOptions(downloadDir string) browser.Options {
	driver, _ := browser.ParseDriver(c.Driver)
	opts := browser.DefaultOptions()
	opts.Driver = driver
	opts.Headless = c.Headless
	opts.Timeout = c.PageTimeout()
	opts.DownloadDir = downloadDir
	opts.UserDataDir = c.UserDataDir
	return opts
}

// StructuralWaitDuration - default wait of the structural finder
func (l LocatorConfig) StructuralWaitDuration() time.Duration {
	return time.Duration(l.StructuralWait) * time.Second
}

// LinkTextWaitDuration - wait of the link-text finder
func (l LocatorConfig) LinkTextWaitDuration() time.Duration {
	return time.Duration(l.LinkTextWait) * time.Second
}

// PollInterval - interval between DOM probes
func (l LocatorConfig) PollInterval() time.Duration {
	return time.Duration(l.PollIntervalMS) * time.Millisecond
}

// PopupWaitDuration - how long to wait for a popup window
func (l LocatorConfig) PopupWaitDuration() time.Duration {
	return time.Duration(l.PopupWait) * time.Second
}

// Pause - delay after each desktop input
func (d DesktopConfig) Pause() time.Duration {
	return time.Duration(d.PauseMS) * time.Millisecond
}

// Window - how recent a download must be
func (t TriageConfig) Window() time.Duration {
	return time.Duration(t.WindowMinutes) * time.Minute
}
