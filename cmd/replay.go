// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
)

var (
	replaySpeed   float64
	replayNoDelay bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Play a recorded telemetry log back onto the link",
	Long: `Read a CBOR stream log produced by 'aviary record' and send each object
update over the link as a plain (unacknowledged) update.

By default the original inter-record timing is reproduced. --speed scales
it (2 plays twice as fast); --no-delay sends records back to back.

Records whose object ID is not in the loaded definitions are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "Timing scale factor")
	replayCmd.Flags().BoolVar(&replayNoDelay, "no-delay", false, "Send records without pacing")
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	if replaySpeed <= 0 {
		return fmt.Errorf("--speed must be positive")
	}

	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	// Keep draining inbound bytes so the peer's acks and requests do not
	// stall the transport.
	l.startReader()

	fmt.Printf("Aviary - Telemetry Replay\n")
	fmt.Printf("Connection: %s\n", l.info)
	fmt.Printf("Replaying: %s\n\n", args[0])

	dec := cbor.NewDecoder(f)

	var sent, skipped uint64
	var prev time.Time
	for {
		var rec logRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode record %d: %v", sent+skipped+1, err)
		}

		def, ok := l.reg.Definition(rec.ObjectID)
		if !ok {
			skipped++
			continue
		}

		if !replayNoDelay && !prev.IsZero() {
			gap := rec.Time.Sub(prev)
			if gap > 0 {
				time.Sleep(time.Duration(float64(gap) / replaySpeed))
			}
		}
		prev = rec.Time

		if err := l.reg.SetInstance(def.ID, rec.Instance, rec.Data); err != nil {
			skipped++
			continue
		}
		if err := l.talk.SendObject(def.ID, rec.Instance, false, 0); err != nil {
			return fmt.Errorf("send %s: %v", def.Name, err)
		}
		sent++
	}

	fmt.Printf("Replayed %d updates (%d skipped)\n", sent, skipped)
	return nil
}
