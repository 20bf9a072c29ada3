package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix selects the environment variables that override the file,
// e.g. MUST_BURN_COPY_BUFFER=4M or MUST_BURN_RELEASES__REPO=kairos.
const EnvPrefix = "MUST_BURN_"

// relative to the XDG config dirs
const configFile = "must-burn/config.toml"

type Releases struct {
	Owner    string        `koanf:"owner"`
	Repo     string        `koanf:"repo"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// Config is the resolved configuration. Buffer sizes keep their textual form
// ("1M", "64K") until Sizes is called.
type Config struct {
	CopyBuffer       string        `koanf:"copy_buffer"`
	VerifyBuffer     string        `koanf:"verify_buffer"`
	ProgressInterval time.Duration `koanf:"progress_interval"`
	Verify           bool          `koanf:"verify"`
	Unmount          bool          `koanf:"unmount"`
	Releases         Releases      `koanf:"releases"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"copy_buffer":        "1M",
		"verify_buffer":      "64K",
		"progress_interval":  "100ms",
		"verify":             true,
		"unmount":            false,
		"releases.owner":     "kairos-io",
		"releases.repo":      "kairos",
		"releases.cache_ttl": "1h",
	}
}

// Load layers defaults, the config file and the environment. An explicit
// path must exist; without one the XDG config dirs are searched and a
// missing file is fine.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		found, err := xdg.SearchConfigFile(configFile)
		if err == nil {
			path = found
		}
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if _, _, err := cfg.Sizes(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps MUST_BURN_RELEASES__CACHE_TTL to releases.cache_ttl.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// MaxBufferSize bounds the copy and verify buffers, which are allocated
// whole for every session.
const MaxBufferSize = 256 * 1024 * 1024

// Sizes parses the copy and verify buffer sizes.
func (c *Config) Sizes() (copyBuf, verifyBuf int, err error) {
	copyBuf, err = ParseBufferSize(c.CopyBuffer)
	if err != nil {
		return 0, 0, fmt.Errorf("copy_buffer: %w", err)
	}
	verifyBuf, err = ParseBufferSize(c.VerifyBuffer)
	if err != nil {
		return 0, 0, fmt.Errorf("verify_buffer: %w", err)
	}
	return copyBuf, verifyBuf, nil
}

// ParseBufferSize is ParseSize limited to MaxBufferSize.
func ParseBufferSize(s string) (int, error) {
	n, err := ParseSize(s)
	if err != nil {
		return 0, err
	}
	if n > MaxBufferSize {
		return 0, fmt.Errorf("buffer size %q exceeds the %dM limit", s, MaxBufferSize/(1024*1024))
	}
	return int(n), nil
}

var errEmptySize = errors.New("empty size")

// ParseSize reads sizes such as "512", "64k", "1M" or "1.5g" as bytes.
func ParseSize(s string) (int64, error) {
	ss := strings.TrimSpace(strings.ToLower(s))
	if ss == "" {
		return 0, errEmptySize
	}
	if t := strings.TrimSuffix(ss, "ib"); t != ss {
		ss = t
	} else {
		ss = strings.TrimSuffix(ss, "b")
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(ss, "k"):
		mult = 1024
		ss = strings.TrimSuffix(ss, "k")
	case strings.HasSuffix(ss, "m"):
		mult = 1024 * 1024
		ss = strings.TrimSuffix(ss, "m")
	case strings.HasSuffix(ss, "g"):
		mult = 1024 * 1024 * 1024
		ss = strings.TrimSuffix(ss, "g")
	}
	v, err := strconv.ParseFloat(ss, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	n := int64(v * float64(mult))
	if n <= 0 {
		return 0, fmt.Errorf("size %q must be positive", s)
	}
	return n, nil
}
