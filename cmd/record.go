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
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

// logRecord is one decoded object update in a telemetry log. Records are
// appended to the log file as a plain CBOR stream, one map per update.
// Data holds the packed payload so a replay is byte-exact regardless of
// definition changes to display formatting.
type logRecord struct {
	Time     time.Time `cbor:"t"`
	Object   string    `cbor:"o"`
	ObjectID uint32    `cbor:"i"`
	Instance uint16    `cbor:"n"`
	Data     []byte    `cbor:"d"`
}

var recordQuiet bool

var recordCmd = &cobra.Command{
	Use:   "record <file>",
	Short: "Record decoded object updates to a log file",
	Long: `Append every decoded object update on the link to a CBOR stream log.

Each record carries the receive timestamp, object name and ID, instance,
and the raw packed payload. Use 'aviary replay' to play a log back onto a
link, or any CBOR tool to inspect it.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().BoolVarP(&recordQuiet, "quiet", "q", false, "Do not echo updates to the terminal")
}

func runRecord(cmd *cobra.Command, args []string) error {
	f, err := os.OpenFile(args[0], os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	fmt.Printf("Aviary - Telemetry Recorder\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Recording to: %s\n", args[0])
	fmt.Printf("Press Ctrl+C to exit\n\n")

	enc := cbor.NewEncoder(f)

	var recorded uint64
	// The callback runs on the reader goroutine; nothing else writes the
	// encoder, so no locking is needed.
	l.reg.SetUpdateFunc(func(def *uavobject.Definition, instID uint16, data []byte) {
		rec := logRecord{
			Time:     time.Now(),
			Object:   def.Name,
			ObjectID: def.ID,
			Instance: instID,
			Data:     data,
		}
		if err := enc.Encode(rec); err != nil {
			log.Printf("Write error: %v", err)
			return
		}
		recorded++
		if !recordQuiet {
			fmt.Printf("[%s] %-20s %s\n", rec.Time.Format("15:04:05.000"), def.Name, def.FormatValues(data))
		}
	})

	readErr := l.startReader()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	select {
	case <-sig:
	case err := <-readErr:
		if err != errLinkClosed {
			fmt.Printf("\nRecorded %d updates\n", recorded)
			return fmt.Errorf("read error: %v", err)
		}
	}

	fmt.Printf("\nRecorded %d updates\n", recorded)
	return nil
}
