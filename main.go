// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 The Aviary Authors
//
// Aviary - SkyTalk Ground Control Station
//
// A CLI tool for monitoring, recording, and commanding flight controllers
// over the SkyTalk telemetry protocol.

package main

import (
	"os"

	"github.com/aviary-gcs/aviary/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
