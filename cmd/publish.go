// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 The Aviary Authors

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/aviary-gcs/aviary/pkg/uavobject"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	publishBroker      string
	publishTopicPrefix string
	publishClientID    string
	publishUsername    string
	publishPassword    string
	publishQOS         int
	publishVerbose     bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Bridge decoded object updates onto an MQTT broker",
	Long: `Decode object updates from the link and publish each one to an MQTT
broker as a JSON document of field values.

Topics take the form <prefix>/<object> for single-instance objects and
<prefix>/<object>/<instance> otherwise. Intended to run unattended, the
bridge logs structured events rather than raw telemetry.`,
	RunE: runPublish,
}

func init() {
	rootCmd.AddCommand(publishCmd)
	publishCmd.Flags().StringVar(&publishBroker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	publishCmd.Flags().StringVar(&publishTopicPrefix, "topic-prefix", "aviary", "Topic prefix for published objects")
	publishCmd.Flags().StringVar(&publishClientID, "client-id", "aviary-publish", "MQTT client ID")
	publishCmd.Flags().StringVar(&publishUsername, "mqtt-username", "", "MQTT username")
	publishCmd.Flags().StringVar(&publishPassword, "mqtt-password", "", "MQTT password")
	publishCmd.Flags().IntVar(&publishQOS, "qos", 0, "MQTT QoS level (0-2)")
	publishCmd.Flags().BoolVarP(&publishVerbose, "verbose", "v", false, "Log every published update")
}

// objectDocument is the JSON payload published per update.
type objectDocument struct {
	Time     time.Time              `json:"time"`
	Object   string                 `json:"object"`
	ObjectID uint32                 `json:"object_id"`
	Instance uint16                 `json:"instance"`
	Values   map[string]interface{} `json:"values"`
}

func runPublish(cmd *cobra.Command, args []string) error {
	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Str("app", "aviary-publish").Logger()
	if publishVerbose {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	if publishQOS < 0 || publishQOS > 2 {
		return fmt.Errorf("--qos must be 0, 1 or 2")
	}

	opts := paho.NewClientOptions().
		AddBroker(publishBroker).
		SetClientID(publishClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	if publishUsername != "" {
		opts.SetUsername(publishUsername)
		opts.SetPassword(publishPassword)
	}
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Warn().Err(err).Msg("broker connection lost")
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Info().Str("broker", publishBroker).Msg("broker connected")
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect broker: %v", err)
	}
	defer client.Disconnect(250)

	l, err := openLink()
	if err != nil {
		return err
	}
	defer l.close()

	logger.Info().
		Str("connection", l.info).
		Str("prefix", publishTopicPrefix).
		Int("objects", len(l.reg.Definitions())).
		Msg("bridge started")

	var published uint64
	l.reg.SetUpdateFunc(func(def *uavobject.Definition, instID uint16, data []byte) {
		values, err := def.Values(data)
		if err != nil {
			logger.Error().Err(err).Str("object", def.Name).Msg("decode failed")
			return
		}

		doc := objectDocument{
			Time:     time.Now(),
			Object:   def.Name,
			ObjectID: def.ID,
			Instance: instID,
			Values:   values,
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			logger.Error().Err(err).Str("object", def.Name).Msg("marshal failed")
			return
		}

		topic := fmt.Sprintf("%s/%s", publishTopicPrefix, def.Name)
		if !def.SingleInstance {
			topic = fmt.Sprintf("%s/%d", topic, instID)
		}
		// Retained, so subscribers get the last value on connect. Fire
		// and forget; the paho client queues internally, so the reader
		// goroutine never blocks on the broker.
		client.Publish(topic, byte(publishQOS), true, payload)
		published++
		if publishVerbose {
			logger.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("published")
		}
	})

	readErr := l.startReader()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			logger.Info().Uint64("published", published).Msg("bridge stopped")
			return nil
		case <-ticker.C:
			stats := l.talk.Stats()
			logger.Info().
				Uint64("published", published).
				Uint32("rx_objects", stats.RxObjects).
				Uint32("rx_errors", stats.RxErrors).
				Msg("bridge stats")
		case err := <-readErr:
			if err == errLinkClosed {
				logger.Info().Uint64("published", published).Msg("link closed")
				return nil
			}
			return fmt.Errorf("read error: %v", err)
		}
	}
}
