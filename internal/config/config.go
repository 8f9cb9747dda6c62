package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	env "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/mnemohq/mnemo/internal/fsrs"
)

const envPrefix = "MNEMO_"

// Config is the application configuration, merged from flag defaults, an
// optional YAML file, MNEMO_* environment variables, and explicitly set
// flags, in that order of precedence (lowest first).
type Config struct {
	DBPath     string `koanf:"db" validate:"required"`
	ListenAddr string `koanf:"listen" validate:"required,hostname_port"`
	ReposDir   string `koanf:"repos_dir" validate:"required"`

	// Scheduling policy. Weights, when set, must be the full vector of 17.
	RequestRetention float64   `koanf:"request_retention" validate:"gt=0,lte=1"`
	MaximumInterval  int       `koanf:"maximum_interval" validate:"gte=1"`
	Weights          []float64 `koanf:"weights" validate:"omitempty,len=17"`
}

// Load merges all configuration layers and validates the result.
// configFile may be empty to skip the file layer.
func Load(configFile string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", configFile, err)
		}
	}

	err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
			return key, value
		},
	}), nil)
	if err != nil {
		return Config{}, fmt.Errorf("failed to load environment: %w", err)
	}

	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parameters returns the FSRS parameters implied by the config: stock
// weights unless a full override vector is present.
func (c Config) Parameters() fsrs.Parameters {
	params := fsrs.DefaultParameters()
	params.RequestRetention = c.RequestRetention
	params.MaximumInterval = c.MaximumInterval
	if len(c.Weights) == len(params.W) {
		copy(params.W[:], c.Weights)
	}
	return params
}
