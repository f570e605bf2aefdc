// Package config holds the run configuration: where the site lives, which bucket
// and distribution it goes to, and how Cache-Control values are assigned.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/OndrejSlamecka/s5upload/internal/cachecontrol"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "s5upload.yml"

// Rule is one cache-control rule. Value is used verbatim; otherwise MaxAge is
// rendered as "public,max-age=N".
type Rule struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern"`
	Value   string `yaml:"value,omitempty" mapstructure:"value"`
	MaxAge  *int   `yaml:"max_age,omitempty" mapstructure:"max_age"`
}

// CacheControl configures the rule list. Default, when set, becomes a trailing
// catch-all rule.
type CacheControl struct {
	IgnoreCase bool   `yaml:"ignore_case" mapstructure:"ignore_case"`
	Default    *int   `yaml:"default,omitempty" mapstructure:"default"`
	Rules      []Rule `yaml:"rules,omitempty" mapstructure:"rules"`
}

// Config is everything one sync run needs.
type Config struct {
	Bucket       string       `yaml:"bucket,omitempty" mapstructure:"bucket"`
	Dir          string       `yaml:"dir,omitempty" mapstructure:"dir"`
	Prefix       string       `yaml:"prefix,omitempty" mapstructure:"prefix"`
	Distribution string       `yaml:"distribution,omitempty" mapstructure:"distribution"`
	Region       string       `yaml:"region,omitempty" mapstructure:"region"`
	Profile      string       `yaml:"profile,omitempty" mapstructure:"profile"`
	Workers      int          `yaml:"workers,omitempty" mapstructure:"workers"`
	MaxTries     int          `yaml:"max_tries,omitempty" mapstructure:"max_tries"`
	Encrypt      bool         `yaml:"encrypt,omitempty" mapstructure:"encrypt"`
	Exclude      []string     `yaml:"exclude,omitempty" mapstructure:"exclude"`
	CacheControl CacheControl `yaml:"cache_control" mapstructure:"cache_control"`
}

func intp(v int) *int { return &v }

// Default returns the built-in configuration: images cached for a year, styles
// and scripts for a week, everything else for a day.
func Default() *Config {
	return &Config{
		Workers:  runtime.NumCPU() * 2,
		MaxTries: 5,
		Exclude:  []string{"**/.DS_Store", "**/Thumbs.db"},
		CacheControl: CacheControl{
			IgnoreCase: true,
			Default:    intp(86400),
			Rules: []Rule{
				{Pattern: `\.(ico|jpg|jpeg|png|gif|svg|webp)$`, MaxAge: intp(31536000)},
				{Pattern: `\.(css|js)$`, MaxAge: intp(604800)},
			},
		},
	}
}

// Load decodes the settings collected by v (config file, environment, flags) and
// fills in defaults for whatever was left unset.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	ignoreCase := cfg.CacheControl.IgnoreCase
	cfg.merge(*Default())
	if v.IsSet("cache_control.ignore_case") {
		cfg.CacheControl.IgnoreCase = ignoreCase
	}
	return cfg, nil
}

// merge copies fields of other that are unset in c.
func (c *Config) merge(other Config) {
	if c.Workers <= 0 {
		c.Workers = other.Workers
	}
	if c.MaxTries <= 0 {
		c.MaxTries = other.MaxTries
	}
	if c.Exclude == nil {
		c.Exclude = other.Exclude
	}
	if len(c.CacheControl.Rules) == 0 && c.CacheControl.Default == nil {
		c.CacheControl = other.CacheControl
	}
}

// Validate reports configuration the sync cannot run with. Missing bucket and
// directory are reported together.
func (c *Config) Validate() error {
	var errs []error
	if c.Dir == "" {
		errs = append(errs, errors.New("directory to upload was not specified, use --dir or 'dir:' in the config file"))
	}
	if c.Bucket == "" {
		errs = append(errs, errors.New("bucket to upload to was not specified, use --bucket or 'bucket:' in the config file"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if info, err := os.Stat(c.Dir); err != nil {
		return fmt.Errorf("directory %s: %w", c.Dir, err)
	} else if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.Dir)
	}

	rules, err := c.CacheRules()
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return errors.New("no cache_control rules configured")
	}
	if !cachecontrol.IsCatchAll(rules[len(rules)-1]) {
		slog.Warn("last cache_control rule is not a catch-all, unmatched files will abort the sync")
	}
	if c.Distribution == "" {
		slog.Warn("no CloudFront distribution configured, skipping invalidation")
	}

	return nil
}

// CacheRules compiles the cache-control rules in order, with Default last.
func (c *Config) CacheRules() (cachecontrol.Rules, error) {
	specs := make([]cachecontrol.RuleSpec, 0, len(c.CacheControl.Rules)+1)
	for i, r := range c.CacheControl.Rules {
		spec := cachecontrol.RuleSpec{Pattern: r.Pattern, Value: r.Value}
		switch {
		case spec.Value != "" && r.MaxAge != nil:
			return nil, fmt.Errorf("cache_control rule %d (%q) sets both value and max_age", i, r.Pattern)
		case spec.Value == "" && r.MaxAge == nil:
			return nil, fmt.Errorf("cache_control rule %d (%q) needs a value or max_age", i, r.Pattern)
		case spec.Value == "":
			spec.Value = cachecontrol.MaxAge(*r.MaxAge)
		}
		specs = append(specs, spec)
	}
	if d := c.CacheControl.Default; d != nil {
		specs = append(specs, cachecontrol.RuleSpec{Pattern: ".*", Value: cachecontrol.MaxAge(*d)})
	}

	return cachecontrol.Compile(specs, cachecontrol.CompileOptions{IgnoreCase: c.CacheControl.IgnoreCase})
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes c to path as YAML so that it can be reused as a config file.
func (c *Config) Save(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
