// Package config holds the process configuration. It is read once at startup
// and passed explicitly to the components that need it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultRoleName  = "BedrockCrossAccount2"
	DefaultLogGroup  = "BedrockModelInvocationLogGroup"
	DefaultRegion    = "us-east-1"
	DefaultTransport = "stdio"
	DefaultAddr      = ":8080"
)

// Transports accepted by the MCP server.
var Transports = []string{"stdio", "sse", "http"}

// Config is the effective configuration.
type Config struct {
	// CrossAccountRoleName is the role assumed in a target account when a
	// caller asks about an account other than its own.
	CrossAccountRoleName string `json:"crossAccountRoleName" yaml:"cross_account_role_name"`
	LogGroupName         string `json:"logGroupName" yaml:"bedrock_log_group_name"`
	Region               string `json:"region" yaml:"default_region"`
	Transport            string `json:"transport" yaml:"mcp_transport"`
	Addr                 string `json:"addr" yaml:"mcp_addr"`
	Profile              string `json:"profile,omitempty" yaml:"aws_profile,omitempty"`
	Debug                bool   `json:"debug" yaml:"debug"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		CrossAccountRoleName: DefaultRoleName,
		LogGroupName:         DefaultLogGroup,
		Region:               DefaultRegion,
		Transport:            DefaultTransport,
		Addr:                 DefaultAddr,
	}
}

// SetDefaults registers defaults and env bindings on v. The env names match
// the ones operators already export for the Bedrock tooling.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("cross_account_role_name", d.CrossAccountRoleName)
	v.SetDefault("bedrock_log_group_name", d.LogGroupName)
	v.SetDefault("default_region", d.Region)
	v.SetDefault("mcp_transport", d.Transport)
	v.SetDefault("mcp_addr", d.Addr)

	v.BindEnv("cross_account_role_name", "CROSS_ACCOUNT_ROLE_NAME")
	v.BindEnv("bedrock_log_group_name", "BEDROCK_LOG_GROUP_NAME")
	v.BindEnv("default_region", "AWS_REGION", "AWS_DEFAULT_REGION")
	v.BindEnv("mcp_transport", "MCP_TRANSPORT")
	v.BindEnv("mcp_addr", "MCP_ADDR")
	v.BindEnv("aws_profile", "AWS_PROFILE")
}

// FromViper builds a validated Config from v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		CrossAccountRoleName: strings.TrimSpace(v.GetString("cross_account_role_name")),
		LogGroupName:         strings.TrimSpace(v.GetString("bedrock_log_group_name")),
		Region:               strings.TrimSpace(v.GetString("default_region")),
		Transport:            strings.ToLower(strings.TrimSpace(v.GetString("mcp_transport"))),
		Addr:                 strings.TrimSpace(v.GetString("mcp_addr")),
		Profile:              strings.TrimSpace(v.GetString("aws_profile")),
		Debug:                v.GetBool("debug"),
	}
	return cfg, cfg.Validate()
}

// Validate reports configuration that cannot work.
func (c Config) Validate() error {
	if c.CrossAccountRoleName == "" {
		return errors.New("cross_account_role_name must not be empty")
	}
	if c.LogGroupName == "" {
		return errors.New("bedrock_log_group_name must not be empty")
	}
	if c.Region == "" {
		return errors.New("default_region must not be empty")
	}
	for _, t := range Transports {
		if c.Transport == t {
			return nil
		}
	}
	return fmt.Errorf("unsupported mcp_transport %q (want one of %s)", c.Transport, strings.Join(Transports, ", "))
}

// LoadDotEnv loads KEY=VALUE pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
