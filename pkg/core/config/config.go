// Package config loads runtime settings from .env, the environment, and
// an optional config.yaml. Precedence, lowest to highest: built-in
// defaults, config file, environment, CLI flags (applied by the caller).
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"holdings_pipeline/pkg/core/errs"
)

// DefaultOutputDir receives run artifacts when nothing else is
// configured.
const DefaultOutputDir = "13f_outputs"

// DefaultConfigFile is probed when no --config path is given.
const DefaultConfigFile = "config.yaml"

// Settings carries the tunables a run needs.
type Settings struct {
	SEC struct {
		Identity       string  `yaml:"identity"`
		RateLimit      float64 `yaml:"rate_limit"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"sec"`
	Extract struct {
		OffsetMargin int `yaml:"offset_margin"`
	} `yaml:"extract"`
	Output struct {
		Dir string `yaml:"dir"`
	} `yaml:"output"`
}

// Load reads settings. A missing .env is normal; a missing default
// config.yaml is too. An explicitly passed path that cannot be read is
// an error, since the user asked for that file.
func Load(path string) (*Settings, error) {
	_ = godotenv.Load()

	s := &Settings{}
	s.Output.Dir = DefaultOutputDir

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = ""
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errs.Wrapf(err, "read config %s", path)
		}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, errs.NewConfigf("malformed config %s: %v", path, err)
		}
	}

	if v := os.Getenv("SEC_IDENTITY"); v != "" {
		s.SEC.Identity = v
	}
	if v := os.Getenv("SEC_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.SEC.RateLimit = f
		}
	}

	if s.Output.Dir == "" {
		s.Output.Dir = DefaultOutputDir
	}
	return s, nil
}

// RequireIdentity rejects runs without an SEC identity. SEC blocks
// anonymous clients, so network commands enforce this before the first
// request rather than failing mid-run.
func (s *Settings) RequireIdentity() error {
	if s.SEC.Identity == "" {
		return errs.NewConfigf("SEC identity required: set --identity, SEC_IDENTITY, or sec.identity in config.yaml")
	}
	return nil
}
