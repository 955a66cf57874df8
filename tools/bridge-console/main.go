// Package main implements a local bridge console for development. It plays
// the cloud side of the MQTT bridge against a plain broker such as mosquitto,
// printing telemetry and state published by devices and pushing config and
// command messages down to them, without requiring the real bridge or device
// credentials.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
	"unicode/utf8"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	connectTimeout = 10 * time.Second
	publishTimeout = 10 * time.Second
)

func main() {
	broker := flag.String("broker", "tcp://localhost:1883", "broker URL")
	device := flag.String("device", "", "device id to talk to")
	config := flag.String("config", "", "config payload to push (retained, delivered on device subscribe)")
	command := flag.String("command", "", "command payload to push")
	subfolder := flag.String("subfolder", "", "command subfolder")
	watch := flag.Bool("watch", true, "subscribe to the device's events and state topics and print messages")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	if *device == "" {
		logger.Error("missing required -device flag")
		os.Exit(1)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID("bridge-console-" + strconv.FormatInt(int64(os.Getpid()), 16)).
		SetCleanSession(true).
		SetConnectTimeout(connectTimeout)

	client := mqtt.NewClient(opts)

	tok := client.Connect()
	if !tok.WaitTimeout(connectTimeout) || tok.Error() != nil {
		logger.Error("connecting to broker", "broker", *broker, "error", tok.Error())
		os.Exit(1)
	}
	defer client.Disconnect(250)
	logger.Info("connected", "broker", *broker, "device", *device)

	if *watch {
		for _, topic := range []string{
			deviceTopic(*device, "events"),
			deviceTopic(*device, "state"),
		} {
			tok := client.Subscribe(topic, 1, func(_ mqtt.Client, msg mqtt.Message) {
				logger.Info("message",
					"topic", msg.Topic(),
					"payload", payloadPreview(msg.Payload()),
				)
			})
			if !tok.WaitTimeout(publishTimeout) || tok.Error() != nil {
				logger.Error("subscribe failed", "topic", topic, "error", tok.Error())
				os.Exit(1)
			}
			logger.Info("watching", "topic", topic)
		}
	}

	if *config != "" {
		// Retained so a device connecting later still receives the latest
		// config, like the real bridge's delivery on subscribe.
		publish(logger, client, deviceTopic(*device, "config"), *config, true)
	}

	if *command != "" {
		publish(logger, client, commandTopic(*device, *subfolder), *command, false)
	}

	if !*watch {
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("bye")
}

func publish(logger *slog.Logger, client mqtt.Client, topic, payload string, retained bool) {
	tok := client.Publish(topic, 1, retained, []byte(payload))
	if !tok.WaitTimeout(publishTimeout) || tok.Error() != nil {
		logger.Error("publish failed", "topic", topic, "error", tok.Error())
		os.Exit(1)
	}
	logger.Info("published", "topic", topic, "retained", retained)
}

func deviceTopic(deviceID, kind string) string {
	return fmt.Sprintf("/devices/%s/%s", deviceID, kind)
}

func commandTopic(deviceID, subfolder string) string {
	base := deviceTopic(deviceID, "commands")
	if subfolder == "" {
		return base
	}
	return base + "/" + subfolder
}

func payloadPreview(p []byte) string {
	if utf8.Valid(p) {
		return string(p)
	}
	return fmt.Sprintf("<%d bytes>", len(p))
}
