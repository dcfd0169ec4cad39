package browser

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"hometax_automation/domain/entities"
)

// Environment overrides honoured before any well-known location
const (
	EnvDriverPath   = "BROWSER_DRIVER_PATH"
	EnvChromeBinary = "CHROME_BINARY_PATH"
)

var errNotFound = errors.New("not found in override, well-known locations or PATH")

// chromeSearch - resolves chromedriver and Chrome locations for one host OS
type chromeSearch struct {
	goos     string
	home     string
	getenv   func(string) string
	exists   func(string) bool
	lookPath func(string) (string, error)
}

// hostSearch - search bound to the running machine
func hostSearch() chromeSearch {
	home, _ := os.UserHomeDir()
	return chromeSearch{
		goos:   runtime.GOOS,
		home:   home,
		getenv: os.Getenv,
		exists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && !info.IsDir()
		},
		lookPath: exec.LookPath,
	}
}

// chromeDriver - override, then per-OS install locations, then PATH
func (s chromeSearch) chromeDriver() (string, error) {
	exe := "chromedriver"
	if s.goos == "windows" {
		exe = "chromedriver.exe"
	}
	if path, ok := s.resolve(EnvDriverPath, s.driverLocations(), exe); ok {
		return path, nil
	}
	return "", &entities.MissingDependencyError{
		Name:    "chromedriver",
		Install: chromedriverInstallHint(s.goos),
		Err:     errNotFound,
	}
}

// chromeBinary - an empty result lets chromedriver pick its own default
func (s chromeSearch) chromeBinary() (string, bool) {
	return s.resolve(EnvChromeBinary, s.chromeLocations(), "google-chrome", "google-chrome-stable", "chromium", "chromium-browser")
}

func (s chromeSearch) resolve(env string, locations []string, names ...string) (string, bool) {
	if path := s.getenv(env); path != "" && s.exists(path) {
		return path, true
	}
	for _, path := range locations {
		if s.exists(path) {
			return path, true
		}
	}
	for _, name := range names {
		if path, err := s.lookPath(name); err == nil {
			return path, true
		}
	}
	return "", false
}

func (s chromeSearch) driverLocations() []string {
	switch s.goos {
	case "darwin":
		return []string{"/opt/homebrew/bin/chromedriver", "/usr/local/bin/chromedriver"}
	case "windows":
		return []string{
			filepath.Join(s.getenv("LOCALAPPDATA"), "chromedriver", "chromedriver.exe"),
			`C:\chromedriver\chromedriver.exe`,
		}
	default:
		paths := []string{"/usr/bin/chromedriver", "/usr/local/bin/chromedriver", "/usr/lib/chromium/chromedriver"}
		if s.home != "" {
			paths = append(paths, filepath.Join(s.home, ".local", "bin", "chromedriver"))
		}
		return paths
	}
}

func (s chromeSearch) chromeLocations() []string {
	switch s.goos {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		return []string{
			filepath.Join(s.getenv("PROGRAMFILES"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(s.getenv("PROGRAMFILES(X86)"), "Google", "Chrome", "Application", "chrome.exe"),
			filepath.Join(s.getenv("LOCALAPPDATA"), "Google", "Chrome", "Application", "chrome.exe"),
		}
	default:
		return []string{"/usr/bin/google-chrome", "/usr/bin/google-chrome-stable", "/usr/bin/chromium", "/usr/bin/chromium-browser"}
	}
}

// chromedriverInstallHint - per-OS install command shown to the operator
func chromedriverInstallHint(goos string) string {
	switch goos {
	case "darwin":
		return "brew install --cask chromedriver (or set " + EnvDriverPath + ")"
	case "windows":
		return "winget install Chromium.ChromeDriver, or download the build matching Chrome from https://googlechromelabs.github.io/chrome-for-testing/ and set " + EnvDriverPath
	default:
		return "apt install chromium-driver (Debian/Ubuntu) or dnf install chromedriver (Fedora), or set " + EnvDriverPath
	}
}

// chromeInstallHint - per-OS install command for the browser itself
func chromeInstallHint(goos string) string {
	switch goos {
	case "darwin":
		return "brew install --cask google-chrome (or set " + EnvChromeBinary + ")"
	case "windows":
		return "winget install Google.Chrome (or set " + EnvChromeBinary + ")"
	default:
		return "apt install chromium (Debian/Ubuntu) or dnf install chromium (Fedora), or set " + EnvChromeBinary
	}
}
