// Package config loads user defaults for wheeltag from a TOML file.
//
// The file lives at $XDG_CONFIG_HOME/wheeltag/config.toml, falling back to
// ~/.config/wheeltag/config.toml. A missing default file is not an error;
// a missing file named explicitly is.
//
//	dual_arch_type = "universal2"
//	wheel_dir      = "dist/fixed"
//	clobber        = true
//	plat_tags      = ["macosx_11_0_arm64"]
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/wheeltag/pkg/errors"
	"github.com/matzehuels/wheeltag/pkg/tags"
)

const (
	appName  = "wheeltag"
	fileName = "config.toml"
)

// Config holds defaults for the addplat command.
type Config struct {
	DualArchType string   `toml:"dual_arch_type"`
	WheelDir     string   `toml:"wheel_dir"`
	Clobber      bool     `toml:"clobber"`
	SkipErrors   bool     `toml:"skip_errors"`
	RmOrig       bool     `toml:"rm_orig"`
	UpdateRecord bool     `toml:"update_record"`
	PlatTags     []string `toml:"plat_tags"`

	// Path is the file the values came from, empty when none was read.
	Path string `toml:"-"`
}

// Dir returns the configuration directory using the XDG convention.
func Dir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultPath returns the path of the default configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// Load reads the configuration at path. An empty path loads the default file
// and returns an empty Config when it does not exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file not found").WithPath(path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WithPath(err, path)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML configuration data. Unknown keys and invalid values
// are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values of c.
func (c *Config) Validate() error {
	if c.DualArchType != "" && !tags.ValidDualArchs[c.DualArchType] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid dual_arch_type %q (must be %s or %s)", c.DualArchType, tags.DualArchIntel, tags.DualArchUniversal2)
	}
	for _, t := range c.PlatTags {
		if err := errors.ValidateSubTag(t); err != nil {
			return err
		}
	}
	return nil
}
