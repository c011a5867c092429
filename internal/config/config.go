// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
// Package config loads layered runtime configuration: defaults, an optional
// config file, environment variables, then CLI flags, in that order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// Config is the resolved runtime configuration for one worker process.
type Config struct {
	DataDir         string  `mapstructure:"data_dir"`
	Provider        string  `mapstructure:"provider"`
	Model           string  `mapstructure:"model"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	BedrockRegion   string  `mapstructure:"bedrock_region"`
	ProcessSocket   string  `mapstructure:"process_socket"`
	MaxOutputTokens int     `mapstructure:"max_output_tokens"`
	Temperature     float64 `mapstructure:"temperature"`
}

const keyringService = "loomspine"

// DataDir returns the directory holding per-worker persistence and the
// process-server socket, honoring LOOMSPINE_DATA_DIR and falling back to
// ~/.loomspine.
func DataDir() string {
	if dir := os.Getenv("LOOMSPINE_DATA_DIR"); dir != "" {
		return expandPath(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".loomspine"
	}
	return filepath.Join(home, ".loomspine")
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// Load builds a Config from defaults, an optional config file under DataDir,
// the LOOMSPINE_* environment, and any flags already bound to v.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("data_dir", DataDir())
	v.SetDefault("provider", "anthropic")
	v.SetDefault("model", "claude-sonnet-4-5-20250929")
	v.SetDefault("bedrock_region", "us-west-2")
	v.SetDefault("max_output_tokens", 4096)
	v.SetDefault("temperature", 1.0)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DataDir())
	v.SetEnvPrefix("LOOMSPINE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ProcessSocket = filepath.Join(cfg.DataDir, "process-server.sock")

	if cfg.AnthropicAPIKey == "" {
		cfg.AnthropicAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.AnthropicAPIKey == "" {
		if secret, err := keyring.Get(keyringService, "anthropic_api_key"); err == nil {
			cfg.AnthropicAPIKey = secret
		}
	}

	return cfg, nil
}

// SaveAPIKey stores an API key in the OS credential store so it need not be
// repeated in the config file or the environment on subsequent runs.
func SaveAPIKey(key string) error {
	return keyring.Set(keyringService, "anthropic_api_key", key)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(dir, 0o750)
}
