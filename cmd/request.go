// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"fmt"
	"time"

	"github.com/aviary-gcs/aviary/pkg/skytalk"
	"github.com/spf13/cobra"
)

var (
	requestInstance int
	requestTimeout  time.Duration
)

var requestCmd = &cobra.Command{
	Use:   "request <object>",
	Short: "Request an object's current value from the flight controller",
	Long: `Request the current value of an object and print it.

The object may be given by name (as in the definition file) or by numeric ID
(decimal or 0x-prefixed hex). For multi-instance objects, --instance selects
one instance; the default requests all instances.

The command waits up to --timeout for the response; a timeout usually means
the link is down or the firmware does not know the object.`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.Flags().IntVar(&requestInstance, "instance", -1, "Instance ID (default: all instances)")
	requestCmd.Flags().DurationVar(&requestTimeout, "timeout", 2*time.Second, "Response timeout")
}

func runRequest(cmd *cobra.Command, args []string) error {
	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	def, err := l.resolveObject(args[0])
	if err != nil {
		return err
	}

	instID := skytalk.AllInstances
	if requestInstance >= 0 {
		instID = uint16(requestInstance)
	}
	if def.SingleInstance {
		instID = 0
	}

	l.startReader()

	if err := l.talk.RequestObject(def.ID, instID, requestTimeout); err != nil {
		return fmt.Errorf("request %s: %v", def.Name, err)
	}

	// The response has been unpacked into the local registry.
	count := l.reg.InstanceCount(def.ID)
	for i := 0; i < count; i++ {
		data, ok := l.reg.Instance(def.ID, uint16(i))
		if !ok {
			continue
		}
		if def.SingleInstance {
			fmt.Printf("%s: %s\n", def.Name, def.FormatValues(data))
		} else {
			fmt.Printf("%s #%d: %s\n", def.Name, i, def.FormatValues(data))
		}
	}
	return nil
}
