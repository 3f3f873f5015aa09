package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/config"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/domain"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/simulator"
	"github.com/ANIKETSHETTY47/ecobin-smart-trash-system/internal/telemetry"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	config.SetupLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	topics := telemetry.TopicsFor(config.MQTTTopicPrefix(), config.BinID())
	fw := simulator.New(simulator.DefaultOptions())

	opts := mqtt.NewClientOptions().
		AddBroker(config.MQTTBroker()).
		SetClientID("ecobin-sim-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetOnConnectHandler(func(c mqtt.Client) {
			token := c.Subscribe(topics.Control, 0, func(_ mqtt.Client, msg mqtt.Message) {
				cmd := string(msg.Payload())
				if !fw.HandleCommand(cmd) {
					log.Warn().Str("command", cmd).Msg("unknown command")
					return
				}
				log.Info().Str("command", cmd).Msg("lid command")
			})
			if token.Wait() && token.Error() != nil {
				log.Error().Err(token.Error()).Str("topic", topics.Control).Msg("subscribe failed")
			}
		})
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	log.Info().Str("topic", topics.Telemetry).Dur("interval", config.SimInterval()).Msg("simulating bin")

	ticker := time.NewTicker(config.SimInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("simulation stopped")
			return
		case <-ticker.C:
			r := fw.Step()
			if r.Emptied {
				publish(client, topics.Event, telemetry.EventPayload{Event: domain.EventEmptied})
				log.Info().Msg("bin emptied")
			}
			publish(client, topics.Telemetry, r.Telemetry)
		}
	}
}

func publish(client mqtt.Client, topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("encode payload")
		return
	}
	token := client.Publish(topic, 0, false, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Warn().Err(token.Error()).Str("topic", topic).Msg("publish failed")
	}
}
