package browser

import (
	"errors"
	"testing"

	"hometax_automation/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeSearch(goos string, env map[string]string, files []string, onPath map[string]string) chromeSearch {
	present := make(map[string]bool)
	for _, f := range files {
		present[f] = true
	}
	return chromeSearch{
		goos:   goos,
		home:   "/home/op",
		getenv: func(key string) string { return env[key] },
		exists: func(path string) bool { return present[path] },
		lookPath: func(name string) (string, error) {
			if path, ok := onPath[name]; ok {
				return path, nil
			}
			return "", errors.New("not on PATH")
		},
	}
}

func TestChromeDriverSearchOrder(t *testing.T) {
	tests := []struct {
		name   string
		goos   string
		env    map[string]string
		files  []string
		onPath map[string]string
		want   string
	}{
		{
			name:  "override wins",
			goos:  "linux",
			env:   map[string]string{EnvDriverPath: "/opt/cd"},
			files: []string{"/opt/cd", "/usr/bin/chromedriver"},
			want:  "/opt/cd",
		},
		{
			name:  "missing override falls through",
			goos:  "linux",
			env:   map[string]string{EnvDriverPath: "/gone"},
			files: []string{"/usr/bin/chromedriver"},
			want:  "/usr/bin/chromedriver",
		},
		{
			name:  "homebrew on darwin",
			goos:  "darwin",
			files: []string{"/opt/homebrew/bin/chromedriver", "/usr/bin/chromedriver"},
			want:  "/opt/homebrew/bin/chromedriver",
		},
		{
			name:   "windows looks up the exe on PATH",
			goos:   "windows",
			onPath: map[string]string{"chromedriver.exe": `C:\tools\chromedriver.exe`},
			want:   `C:\tools\chromedriver.exe`,
		},
		{
			name:  "user local bin on linux",
			goos:  "linux",
			files: []string{"/home/op/.local/bin/chromedriver"},
			want:  "/home/op/.local/bin/chromedriver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fakeSearch(tt.goos, tt.env, tt.files, tt.onPath).chromeDriver()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChromeDriverMissingCarriesInstallHint(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		t.Run(goos, func(t *testing.T) {
			_, err := fakeSearch(goos, nil, nil, nil).chromeDriver()

			var missing *entities.MissingDependencyError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, "chromedriver", missing.Name)
			assert.Equal(t, chromedriverInstallHint(goos), missing.Install)
			assert.Contains(t, missing.Install, EnvDriverPath)
		})
	}
}

func TestInstallHintsDifferPerOS(t *testing.T) {
	assert.Contains(t, chromedriverInstallHint("darwin"), "brew")
	assert.Contains(t, chromedriverInstallHint("windows"), "winget")
	assert.Contains(t, chromedriverInstallHint("linux"), "apt")
	assert.Contains(t, chromeInstallHint("darwin"), "brew")
	assert.Contains(t, chromeInstallHint("windows"), "Google.Chrome")
	assert.Contains(t, chromeInstallHint("linux"), EnvChromeBinary)
}

func TestChromeBinaryOptional(t *testing.T) {
	_, ok := fakeSearch("linux", nil, nil, nil).chromeBinary()
	assert.False(t, ok)

	got, ok := fakeSearch("linux", nil, nil, map[string]string{"chromium": "/snap/bin/chromium"}).chromeBinary()
	require.True(t, ok)
	assert.Equal(t, "/snap/bin/chromium", got)

	got, ok = fakeSearch("darwin", nil, []string{"/Applications/Chromium.app/Contents/MacOS/Chromium"}, nil).chromeBinary()
	require.True(t, ok)
	assert.Equal(t, "/Applications/Chromium.app/Contents/MacOS/Chromium", got)
}
