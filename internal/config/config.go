// Package config resolves console settings from flags, the environment and
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvBaseURL      = "XCONSOLE_BASE_URL"
	EnvSpecFile     = "XCONSOLE_SPEC_FILE"
	EnvSpecURL      = "XCONSOLE_SPEC_URL"
	EnvTimeout      = "XCONSOLE_TIMEOUT"
	EnvPollInterval = "XCONSOLE_POLL_INTERVAL"
	EnvListen       = "XCONSOLE_LISTEN"
	EnvDebug        = "XCONSOLE_DEBUG"
	EnvLogFile      = "XCONSOLE_LOG_FILE"
	EnvLogLevel     = "LOG_LEVEL"
	EnvEditor       = "XCONSOLE_EDITOR"
	EnvOrigin       = "XCONSOLE_ORIGIN_ALLOWED"

	DefaultBaseURL      = "http://localhost:8000/api/v1"
	DefaultTimeout      = 20 * time.Second
	DefaultPollInterval = 1500 * time.Millisecond
	DefaultListen       = "127.0.0.1:8080"
	DefaultLogFile      = "/tmp/xconsole.log"
	DefaultLogLevel     = "info"
)

type Config struct {
	BaseURL      string
	SpecURL      string
	SpecFile     string
	Timeout      time.Duration
	PollInterval time.Duration
	Listen       string
	Debug        bool
	LogFile      string
	LogLevel     string

	// OriginAllowed restricts CORS and WebSocket origins of the web surface.
	// Empty allows any origin.
	OriginAllowed string
}

func Defaults() Config {
	return Config{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Listen:       DefaultListen,
		LogFile:      DefaultLogFile,
		LogLevel:     DefaultLogLevel,
	}
}

// LoadDotEnv loads the given .env files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func (c Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.SpecURL != "" {
		u, err := url.Parse(c.SpecURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("spec url %q must be http or https", c.SpecURL)
		}
	}
	return nil
}

// Spec is the catalog location in the form catalog.Open expects: a URL,
// "@" followed by an absolute file path, or empty for the bundled catalog.
// A URL wins over a file.
func (c Config) Spec() string {
	if s := strings.TrimSpace(c.SpecURL); s != "" {
		return s
	}
	file := strings.TrimSpace(c.SpecFile)
	if file == "" {
		return ""
	}
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}
	return "@" + file
}

// ResolveBaseURL picks where requests go: the configured base URL, else the
// first concrete server of the catalog, else the directory the catalog was
// fetched from, else the default.
func (c Config) ResolveBaseURL(servers []string) string {
	if b := NormalizeBaseURL(c.BaseURL); b != "" {
		return b
	}
	for _, s := range servers {
		// Templated servers ({vars}) are not supported.
		if strings.Contains(s, "{") {
			continue
		}
		if u, err := url.Parse(s); err == nil && u.IsAbs() {
			return strings.TrimRight(s, "/")
		}
	}
	if b := BaseURLFromSpecURL(c.SpecURL); b != "" {
		return b
	}
	return DefaultBaseURL
}

// NormalizeBaseURL adds http:// to a bare host and drops the trailing slash.
func NormalizeBaseURL(in string) string {
	in = strings.TrimSpace(in)
	if in == "" {
		return ""
	}
	if !strings.HasPrefix(in, "http://") && !strings.HasPrefix(in, "https://") {
		in = "http://" + in
	}
	return strings.TrimRight(in, "/")
}

// BaseURLFromSpecURL is the directory the OpenAPI document was served from.
func BaseURLFromSpecURL(specURL string) string {
	specURL = strings.TrimSpace(specURL)
	if specURL == "" {
		return ""
	}
	u, err := url.Parse(specURL)
	if err != nil || !u.IsAbs() {
		return ""
	}
	u.Fragment = ""
	u.RawQuery = ""
	u.Path = path.Dir(u.Path)
	if u.Path == "." || u.Path == "/" {
		u.Path = ""
	}
	return strings.TrimRight(u.String(), "/")
}

// Editor is the command used to edit JSON fields.
func Editor() string {
	for _, k := range []string{EnvEditor, "EDITOR"} {
		if e := strings.TrimSpace(os.Getenv(k)); e != "" {
			return e
		}
	}
	return "vi"
}
