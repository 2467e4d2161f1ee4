// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlc

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-query-compiler/sql/analyzer"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/optimizer"
)

// EnvPrefix is the prefix of the environment variables overriding the
// configuration, as in SQLC_PLAN_CACHE_SIZE.
const EnvPrefix = "SQLC"

// ErrInvalidConfig is returned when a configuration value is out of range.
var ErrInvalidConfig = errors.NewKind("invalid configuration: %s")

// Config for the Engine.
type Config struct {
	// PlanCacheSize is the number of compiled statements kept by the
	// engine. Zero disables the cache.
	PlanCacheSize int
	// MaxPermutedTables is the largest join whose orders are all costed.
	MaxPermutedTables int
	// MaxAnalysisIterations bounds the batches run to a fixed point.
	MaxAnalysisIterations int
	// LikeRangeMaxWidth is the largest column width for which a LIKE with a
	// constant prefix is turned into a range.
	LikeRangeMaxWidth int
	// CompileParallelism bounds the statements CompileAll compiles at once.
	// Zero means no bound.
	CompileParallelism int
	// Debug logs every rule the analyzer applies.
	Debug bool
	// Verbose prints the tree after every rule that changed it.
	Verbose bool
	// LogLevel is a logrus level name.
	LogLevel string
	// LogFormat is either "text" or "json".
	LogFormat string
}

type setting struct {
	key   string
	flag  string
	def   interface{}
	usage string
}

var settings = []setting{
	{"plan_cache_size", "plan-cache-size", 128, "number of compiled statements to cache"},
	{"max_permuted_tables", "max-permuted-tables", optimizer.DefaultMaxPermutedTables, "largest join whose orders are all costed"},
	{"max_analysis_iterations", "max-analysis-iterations", analyzer.DefaultMaxAnalysisIterations, "passes after which a rule batch gives up"},
	{"like_range_max_width", "like-range-max-width", 1024, "widest column for which LIKE prefixes become ranges"},
	{"compile_parallelism", "compile-parallelism", 4, "statements compiled at once by CompileAll, 0 for no bound"},
	{"debug", "debug", false, "log every analyzer rule"},
	{"verbose", "verbose", false, "print the tree after every rule that changed it"},
	{"log_level", "log-level", "info", "log level"},
	{"log_format", "log-format", "text", "log format, text or json"},
}

// DefaultConfig returns the configuration used when nothing overrides it.
func DefaultConfig() Config {
	cfg, _ := configFrom(newViper(false))
	return cfg
}

// BindFlags registers a flag for every configuration setting on fs.
func BindFlags(fs *pflag.FlagSet) {
	for _, s := range settings {
		switch def := s.def.(type) {
		case int:
			fs.Int(s.flag, def, s.usage)
		case bool:
			fs.Bool(s.flag, def, s.usage)
		case string:
			fs.String(s.flag, def, s.usage)
		}
	}
}

// LoadConfig reads the configuration. Values come, by increasing priority,
// from the defaults, the YAML file at path if path is not empty, the SQLC_
// environment variables and the flags of fs that were set. fs may be nil.
func LoadConfig(path string, fs *pflag.FlagSet) (Config, error) {
	v := newViper(true)
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	if fs != nil {
		for _, s := range settings {
			if f := fs.Lookup(s.flag); f != nil {
				if err := v.BindPFlag(s.key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	return configFrom(v)
}

func newViper(env bool) *viper.Viper {
	v := viper.New()
	for _, s := range settings {
		v.SetDefault(s.key, s.def)
	}
	if !env {
		return v
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func configFrom(v *viper.Viper) (Config, error) {
	cfg := Config{
		PlanCacheSize:         v.GetInt("plan_cache_size"),
		MaxPermutedTables:     v.GetInt("max_permuted_tables"),
		MaxAnalysisIterations: v.GetInt("max_analysis_iterations"),
		LikeRangeMaxWidth:     v.GetInt("like_range_max_width"),
		CompileParallelism:    v.GetInt("compile_parallelism"),
		Debug:                 v.GetBool("debug"),
		Verbose:               v.GetBool("verbose"),
		LogLevel:              v.GetString("log_level"),
		LogFormat:             v.GetString("log_format"),
	}
	return cfg, cfg.Validate()
}

// Validate checks that every value of the configuration is usable.
func (c Config) Validate() error {
	switch {
	case c.PlanCacheSize < 0:
		return ErrInvalidConfig.New("plan cache size must not be negative")
	case c.MaxPermutedTables < 1:
		return ErrInvalidConfig.New("max permuted tables must be positive")
	case c.MaxAnalysisIterations < 1:
		return ErrInvalidConfig.New("max analysis iterations must be positive")
	case c.LikeRangeMaxWidth < 0:
		return ErrInvalidConfig.New("like range max width must not be negative")
	case c.CompileParallelism < 0:
		return ErrInvalidConfig.New("compile parallelism must not be negative")
	}
	if _, err := newLogger(c); err != nil {
		return err
	}
	return nil
}

func (c Config) applyGlobals() {
	expression.MaxLikeRangeWidth = c.LikeRangeMaxWidth
}
