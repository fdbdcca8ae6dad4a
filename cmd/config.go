// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

// fileConfig mirrors the persistent flags. Values from the file act as
// defaults; flags given on the command line win.
type fileConfig struct {
	Port        string `toml:"port"`
	Baud        int    `toml:"baud"`
	URL         string `toml:"url"`
	Username    string `toml:"username"`
	NoSSLVerify bool   `toml:"no_ssl_verify"`
	Definitions string `toml:"definitions"`
	MTU         int    `toml:"mtu"`
}

// applyConfigFile loads the TOML config file, if any, before every command.
func applyConfigFile(cmd *cobra.Command, args []string) error {
	path := configPath
	explicit := path != ""
	if !explicit {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		path = filepath.Join(home, ".config", "aviary.toml")
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config %s: %v", path, err)
	}

	flags := rootCmd.PersistentFlags()
	if cfg.Port != "" && !flags.Changed("port") {
		portName = cfg.Port
	}
	if cfg.Baud != 0 && !flags.Changed("baud") {
		baudRate = cfg.Baud
	}
	if cfg.URL != "" && !flags.Changed("url") {
		wsURL = cfg.URL
	}
	if cfg.Username != "" && !flags.Changed("username") {
		wsUsername = cfg.Username
	}
	if cfg.NoSSLVerify && !flags.Changed("no-ssl-verify") {
		wsNoSSLVerify = true
	}
	if cfg.Definitions != "" && !flags.Changed("definitions") {
		definitionsPath = cfg.Definitions
	}
	if cfg.MTU != 0 && !flags.Changed("mtu") {
		linkMTU = cfg.MTU
	}
	return nil
}
