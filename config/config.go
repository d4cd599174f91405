// Package config reads the YAML configuration shared by the commands.
package config

import (
	"fmt"
	"io/ioutil"

	"github.com/Comcast/sweep/crew"

	"github.com/jsccast/yaml"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log configures logging.
type Log struct {
	// Level is a zap level name: debug, info, warn or error.
	Level string `json:"level" yaml:"level"`

	// Development selects zap's development configuration.
	Development bool `json:"development,omitempty" yaml:"development,omitempty"`
}

// Config is what a configuration file holds.
type Config struct {
	// Argv initialises engines.  Argv[0] is the program name.
	Argv []string `json:"argv,omitempty" yaml:"argv,omitempty"`

	// Consult lists the source files every session loads.
	Consult []string `json:"consult,omitempty" yaml:"consult,omitempty"`

	// Store is the bolt file for persistent predicates.  Empty
	// means nothing persists.
	Store string `json:"store,omitempty" yaml:"store,omitempty"`

	// Interpreter names the host interpreter.
	Interpreter string `json:"interpreter" yaml:"interpreter"`

	// Listen is the address of the WebSocket service.
	Listen string `json:"listen" yaml:"listen"`

	InferenceLimit int64 `json:"inferenceLimit,omitempty" yaml:"inferenceLimit,omitempty"`

	// Watch reconsults changed source files in the REPL.
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`

	Log Log `json:"log" yaml:"log"`
}

// Default returns the configuration used when there is no file.
func Default() *Config {
	return &Config{
		Argv:        []string{"sweep", "-q"},
		Interpreter: "lisp",
		Listen:      ":8080",
		Log: Log{
			Level: "info",
		},
	}
}

// Read parses the file over the defaults.
func Read(filename string) (*Config, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Parse(bs)
}

// Parse parses YAML over the defaults.
func Parse(bs []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(bs, c); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the fields that have a fixed set of values.
func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log level: %w", err)
	}
	if c.InferenceLimit < 0 {
		return fmt.Errorf("config: negative inferenceLimit %d", c.InferenceLimit)
	}
	return nil
}

// Crew is the session configuration.
func (c *Config) Crew() *crew.Conf {
	return &crew.Conf{
		Argv:           c.Argv,
		Consult:        c.Consult,
		Interpreter:    c.Interpreter,
		InferenceLimit: c.InferenceLimit,
	}
}

// Logger builds the logger.  Verbose forces debug level.
func (c *Config) Logger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

// YAML renders the configuration.
func (c *Config) YAML() (string, error) {
	bs, err := yaml.Marshal(c)
	return string(bs), err
}
