// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Protocol flags
	configPath      string
	definitionsPath string
	linkMTU         int
)

var rootCmd = &cobra.Command{
	Use:   "aviary",
	Short: "SkyTalk Ground Station Toolkit",
	Long: `Aviary - A CLI toolkit for talking SkyTalk to a flight controller.

Provides commands for live telemetry monitoring, object requests and updates,
flight log recording/replay, and an MQTT telemetry bridge.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 57600]
  WebSocket: --url ws://host/path [--username user]

For WebSocket authentication, the password is read from the AVIARY_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.

Object definitions default to a built-in set; point --definitions at a YAML
file matching your firmware's object layout. Defaults for every flag can be
placed in a TOML config file (--config, or ~/.config/aviary.toml).`,
	Version: "1.2.0",
}

func init() {
	rootCmd.PersistentPreRunE = applyConfigFile

	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 57600, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Protocol flags
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "TOML config file (default ~/.config/aviary.toml)")
	rootCmd.PersistentFlags().StringVar(&definitionsPath, "definitions", "", "YAML object definition file (default: built-in set)")
	rootCmd.PersistentFlags().IntVar(&linkMTU, "mtu", 64, "Maximum bytes per transport write")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
