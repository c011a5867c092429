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
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bigmoostache/loomspine/internal/config"
	"github.com/bigmoostache/loomspine/internal/log"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "loomspine",
	Short: "Loomspine - a terminal-based LLM agent workbench",
	Long:  `loomspine runs a single agent worker over a panel-backed context window, with pluggable tool modules, cache-aware result panels, and guard-railed autonomous continuation.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogging)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $LOOMSPINE_DATA_DIR/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding worker state and the process-server socket")
	rootCmd.PersistentFlags().String("provider", "", "LLM provider (anthropic, bedrock)")
	rootCmd.PersistentFlags().String("model", "", "model id")
	rootCmd.PersistentFlags().String("anthropic-key", "", "Anthropic API key (or use keyring/env)")
	rootCmd.PersistentFlags().Float64("temperature", 1.0, "LLM temperature")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "maximum output tokens per request")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("anthropic_api_key", rootCmd.PersistentFlags().Lookup("anthropic-key"))
	_ = viper.BindPFlag("temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("max_output_tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(runCmd, resetCmd, exportCmd, importCmd, processServerCmd)
}

func initConfig() {
	v := viper.GetViper()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	}
	c, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loomspine: loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = c
}

func initLogging() {
	level := viper.GetString("log_level")
	zcfg := zap.NewDevelopmentConfig()
	if l, err := zap.ParseAtomicLevel(level); err == nil {
		zcfg.Level = l
	}
	logger, err := zcfg.Build()
	if err != nil {
		return
	}
	log.SetLogger(logger)
}
