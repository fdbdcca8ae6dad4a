// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/aviary-gcs/aviary/pkg/uavobject"
	"github.com/spf13/cobra"
)

var monitorStatsInterval int

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Display decoded object updates as they arrive",
	Long: `Continuously decode and display SkyTalk object updates from the link.

Each update is shown with a timestamp, the object name, instance ID, and the
decoded field values. Link statistics (bytes, objects, framing errors) are
printed at the configured interval and on exit.

Supports both serial and WebSocket connections.`,
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().IntVar(&monitorStatsInterval, "stats-interval", 10, "Statistics print interval in seconds (0 to disable)")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	fmt.Printf("Aviary - Telemetry Monitor\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Objects: %d definitions loaded\n", len(l.reg.Definitions()))
	fmt.Printf("Press Ctrl+C to exit\n\n")

	l.reg.SetUpdateFunc(func(def *uavobject.Definition, instID uint16, data []byte) {
		timestamp := time.Now().Format("15:04:05.000")
		if def.SingleInstance {
			fmt.Printf("[%s] %-20s %s\n", timestamp, def.Name, def.FormatValues(data))
		} else {
			fmt.Printf("[%s] %-20s #%d %s\n", timestamp, def.Name, instID, def.FormatValues(data))
		}
	})

	readErr := l.startReader()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	var ticker *time.Ticker
	var tick <-chan time.Time
	if monitorStatsInterval > 0 {
		ticker = time.NewTicker(time.Duration(monitorStatsInterval) * time.Second)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-sig:
			fmt.Printf("\nFinal stats: %s\n", l.talk.Stats())
			return nil
		case <-tick:
			fmt.Printf("--- %s ---\n", l.talk.Stats())
		case err := <-readErr:
			if err == errLinkClosed {
				log.Printf("Connection closed")
				return nil
			}
			return fmt.Errorf("read error: %v", err)
		}
	}
}
