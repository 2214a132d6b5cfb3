// Package config holds the user-editable pish configuration.
package config

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config is the on-disk shell configuration. Every field is optional;
// zero values fall back to built-in defaults.
type Config struct {
	// Motd is printed once before the first interactive prompt and at
	// the start of every served SSH session.
	Motd string `json:"motd"`
	// Prompt overrides the default PROMPT template. The template is
	// expanded by the interpreter before every read, so it may
	// reference variables like ${PWD}.
	Prompt string `json:"prompt"`
	// HistoryFile persists interactive line history between sessions.
	HistoryFile string `json:"history_file"`
	// Source lists files sourced before the first prompt.
	Source []string `json:"source"`

	// SSHPort is the listen port for the serve subcommand.
	SSHPort int `json:"ssh_port" validate:"gte=0,lte=65535"`
	// HostKeyPath points at a PEM private key for the SSH server. When
	// empty a throwaway key is generated at startup.
	HostKeyPath string `json:"host_key"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		SSHPort: 2222,
	}
}

// Validate the configuration for basic semantic errors.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	return validate.Struct(c)
}
