// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	sendInstance int
	sendAcked    bool
	sendTimeout  time.Duration
)

var sendCmd = &cobra.Command{
	Use:   "send <object> [field=value ...]",
	Short: "Send an object update to the flight controller",
	Long: `Set fields of an object and send it over the link.

Fields not named on the command line keep their current local value (zero
unless previously received or set). Array fields take comma-separated
element lists; enum fields accept option names or numeric indices.

With --ack, the command waits for the firmware's acknowledgment and fails
on timeout.

Examples:
  aviary send TelemetrySettings Speed=57600 UpdatePeriod=250 --ack
  aviary send ActuatorCommand --instance 0 Channel=1500,1500,1000,1000,0,0,0,0`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().IntVar(&sendInstance, "instance", 0, "Instance ID")
	sendCmd.Flags().BoolVar(&sendAcked, "ack", false, "Require an acknowledgment")
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 2*time.Second, "Acknowledgment timeout (with --ack)")
}

func runSend(cmd *cobra.Command, args []string) error {
	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	def, err := l.resolveObject(args[0])
	if err != nil {
		return err
	}

	instID := uint16(sendInstance)
	if def.SingleInstance {
		instID = 0
	}

	// Start from the current local value, apply the field assignments.
	data, ok := l.reg.Instance(def.ID, instID)
	if !ok {
		data = make([]byte, def.NumBytes())
	}
	for _, arg := range args[1:] {
		name, value, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("expected field=value, got %q", arg)
		}
		if err := def.SetField(data, name, value); err != nil {
			return err
		}
	}
	if err := l.reg.SetInstance(def.ID, instID, data); err != nil {
		return err
	}

	l.startReader()

	if err := l.talk.SendObject(def.ID, instID, sendAcked, sendTimeout); err != nil {
		return fmt.Errorf("send %s: %v", def.Name, err)
	}

	if sendAcked {
		fmt.Printf("%s acknowledged\n", def.Name)
	} else {
		fmt.Printf("%s sent\n", def.Name)
	}
	return nil
}
