package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML config file:
//
//	databases:
//	  city: /var/lib/GeoIP/GeoLite2-City.mmdb
//	  asn: /var/lib/GeoIP/GeoLite2-ASN.mmdb
//	default: city
//	cache: /var/cache/mmdbval.db
type Config struct {
	Databases map[string]string `yaml:"databases"`
	Default   string            `yaml:"default"`
	Cache     string            `yaml:"cache"`
}

// loadConfig reads the config at path, or the default location when path
// is empty. A missing file is only an error when the path was given
// explicitly.
func loadConfig(path string) (Config, error) {
	explicit := path != ""
	if path == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return Config{}, nil
		}
		path = filepath.Join(base, "mmdbval", "config.yaml")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// resolveDatabase maps the --db flag (or the config's default) to a file
// path. A name matching a config alias resolves through it; anything else
// is taken as a path.
func (cfg *Config) resolveDatabase(flagValue string) (string, error) {
	name := flagValue
	if name == "" {
		name = cfg.Default
	}
	if name == "" {
		return "", errors.New("no database: pass --db or set a default in the config")
	}
	if path, ok := cfg.Databases[name]; ok {
		return path, nil
	}
	if flagValue == "" {
		return "", fmt.Errorf("default database %q is not defined under databases in the config", name)
	}
	return name, nil
}
