// Package device implements the MQTT device client: bridge connection and
// JWT credentials, the telemetry publish loop, periodic state reports, and
// the inbound config/command subscriptions.
package device

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamahiro5/iotlab-edge/internal/auth"
	"github.com/tamahiro5/iotlab-edge/internal/journal"
	"github.com/tamahiro5/iotlab-edge/internal/metrics"
	"github.com/tamahiro5/iotlab-edge/internal/telemetry"
	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

// Bridge and loop defaults.
const (
	DefaultBridgeHost = "mqtt.googleapis.com"
	DefaultBridgePort = 8883

	// Publish pacing when unset: state documents change less often than
	// telemetry, so state sessions run at half the event rate.
	DefaultPublishInterval      = 5 * time.Second
	DefaultStatePublishInterval = 10 * time.Second

	// Cadence of the background state reporter.
	DefaultStateInterval = 25 * time.Second
)

const (
	// The bridge ignores the username field but requires it non-empty.
	mqttUsername = "unused"

	qosAtMostOnce  byte = 0
	qosAtLeastOnce byte = 1

	connectTimeout   = 20 * time.Second
	subscribeTimeout = 10 * time.Second
	publishTimeout   = 30 * time.Second

	// Milliseconds granted to in-flight work on Disconnect, per paho's API.
	disconnectQuiesce = 250

	// How close to token expiry the client proactively reconnects. Must be
	// smaller than the token source's refresh buffer so the reconnect is
	// guaranteed to mint a fresh credential.
	tokenRefreshSlack = 5 * time.Minute
)

var errPublishTimeout = errors.New("publish not acknowledged before timeout")

// tokenValidity is satisfied by token sources that expose their expiry.
type tokenValidity interface {
	ValidUntil() time.Time
}

// Config carries everything needed to run one device session.
type Config struct {
	ProjectID string
	Region    string
	Registry  string
	DeviceID  string

	// Module is stamped into each telemetry document; defaults to DeviceID.
	Module string

	BridgeHost string
	BridgePort int

	// CACerts is a PEM bundle path for the bridge connection; empty uses
	// the system roots.
	CACerts string

	// DisableTLS connects in plaintext. Local broker testing only.
	DisableTLS bool

	MessageType domain.MessageType

	// NumMessages bounds the publish loop; zero runs until canceled.
	NumMessages int

	PublishInterval time.Duration
	StateInterval   time.Duration
}

func (c *Config) applyDefaults() {
	if c.Module == "" {
		c.Module = c.DeviceID
	}
	if c.BridgeHost == "" {
		c.BridgeHost = DefaultBridgeHost
	}
	if c.BridgePort == 0 {
		c.BridgePort = DefaultBridgePort
	}
	if c.MessageType == "" {
		c.MessageType = domain.MessageEvent
	}
	if c.PublishInterval == 0 {
		c.PublishInterval = DefaultPublishInterval
		if c.MessageType == domain.MessageState {
			c.PublishInterval = DefaultStatePublishInterval
		}
	}
	if c.StateInterval == 0 {
		c.StateInterval = DefaultStateInterval
	}
}

func (c *Config) validate() error {
	var errs []error

	if c.ProjectID == "" {
		errs = append(errs, errors.New("project_id is required"))
	}
	if c.Region == "" {
		errs = append(errs, errors.New("cloud_region is required"))
	}
	if c.Registry == "" {
		errs = append(errs, errors.New("registry_id is required"))
	}
	if c.DeviceID == "" {
		errs = append(errs, errors.New("device_id is required"))
	}
	if _, err := domain.ParseMessageType(string(c.MessageType)); err != nil {
		errs = append(errs, err)
	}
	if c.BridgePort < 1 || c.BridgePort > 65535 {
		errs = append(errs, fmt.Errorf("bridge port %d out of range", c.BridgePort))
	}
	if c.NumMessages < 0 {
		errs = append(errs, errors.New("num_messages must not be negative"))
	}

	return errors.Join(errs...)
}

// Client is one device session against the MQTT bridge.
type Client struct {
	cfg     Config
	topics  Topics
	tokens  auth.TokenSource
	sim     *telemetry.Simulator
	handler MessageHandler
	journal Recorder
	log     *slog.Logger
	nowFunc func() time.Time

	mqtt  mqtt.Client
	pacer *Pacer
	track *tracker
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// WithHandler sets the inbound message handler.
func WithHandler(h MessageHandler) ClientOption {
	return func(c *Client) {
		c.handler = h
	}
}

// WithJournal enables publish journaling through r.
func WithJournal(r Recorder) ClientOption {
	return func(c *Client) {
		c.journal = r
	}
}

// WithNowFunc overrides the time function for testing.
func WithNowFunc(f func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = f
	}
}

// WithMQTTClient substitutes the underlying MQTT client, primarily for
// testing against a fake.
func WithMQTTClient(m mqtt.Client) ClientOption {
	return func(c *Client) {
		c.mqtt = m
	}
}

// New builds a Client. The bridge connection is configured but not opened;
// Run does the connecting.
func New(
	cfg Config,
	tokens auth.TokenSource,
	sim *telemetry.Simulator,
	opts ...ClientOption,
) (*Client, error) {
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:     cfg,
		topics:  NewTopics(cfg.ProjectID, cfg.Region, cfg.Registry, cfg.DeviceID),
		tokens:  tokens,
		sim:     sim,
		log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.handler == nil {
		c.handler = NewLogHandler(c.log)
	}

	c.pacer = NewPacer(cfg.PublishInterval)
	c.track = newTracker(cfg.ProjectID, cfg.Region, cfg.Registry, cfg.DeviceID, c.nowFunc())
	c.track.recordTemperature(sim.Temperature())

	if c.mqtt == nil {
		m, err := c.buildMQTT()
		if err != nil {
			return nil, err
		}
		c.mqtt = m
	}

	return c, nil
}

func (c *Client) buildMQTT() (mqtt.Client, error) {
	tlsCfg, err := c.tlsConfig()
	if err != nil {
		return nil, err
	}

	scheme := "tls"
	if c.cfg.DisableTLS {
		scheme = "tcp"
	}

	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, c.cfg.BridgeHost, c.cfg.BridgePort)).
		SetClientID(c.topics.ClientID()).
		SetProtocolVersion(4).
		SetCredentialsProvider(c.credentials).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(time.Minute).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(60 * time.Second).
		SetCleanSession(true).
		SetOrderMatters(false).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(c.onConnectionLost)

	if tlsCfg != nil {
		opts.SetTLSConfig(tlsCfg)
	}

	return mqtt.NewClient(opts), nil
}

func (c *Client) tlsConfig() (*tls.Config, error) {
	if c.cfg.DisableTLS {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if c.cfg.CACerts != "" {
		pemBytes, err := os.ReadFile(c.cfg.CACerts)
		if err != nil {
			return nil, fmt.Errorf("reading CA bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("no certificates parsed from %s", c.cfg.CACerts)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// credentials is consulted by paho on every connection attempt, so each
// reconnect picks up a fresh token automatically.
func (c *Client) credentials() (string, string) {
	token, err := c.tokens.Token()
	if err != nil {
		c.log.Error("minting device token", "error", err)
		return mqttUsername, ""
	}
	if vs, ok := c.tokens.(tokenValidity); ok {
		c.track.recordTokenValidity(vs.ValidUntil())
	}
	return mqttUsername, token
}

// Run connects to the bridge and drives the publish loop until the context
// is canceled or the configured message budget is spent. Cancellation is a
// normal stop and returns nil.
func (c *Client) Run(ctx context.Context) error {
	c.log.Info("device starting",
		"device_id", c.cfg.DeviceID,
		"registry_id", c.cfg.Registry,
		"bridge", fmt.Sprintf("%s:%d", c.cfg.BridgeHost, c.cfg.BridgePort),
		"message_type", string(c.cfg.MessageType),
	)

	if err := c.connect(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	defer c.disconnect()

	reporter, err := newStateReporter(c, c.cfg.StateInterval, c.log)
	if err != nil {
		return fmt.Errorf("starting state reporter: %w", err)
	}
	reporter.Start()
	defer func() { <-reporter.Stop().Done() }()

	// attempts counts loop iterations, successful or not, against the
	// message budget.
	attempts := 0
	for {
		if err := c.pacer.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				c.log.Info("device stopping", "published", attempts)
				return nil
			}
			return err
		}

		c.maybeRefreshToken(ctx)

		if err := c.PublishEvent(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.log.Error("publish failed", "error", err)
		}

		attempts++
		if c.cfg.NumMessages > 0 && attempts >= c.cfg.NumMessages {
			c.log.Info("message budget spent", "published", attempts)
			return nil
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	tok := c.mqtt.Connect()
	select {
	case <-tok.Done():
		if err := tok.Error(); err != nil {
			return fmt.Errorf("connecting to bridge: %w", err)
		}
		return nil
	case <-ctx.Done():
		c.mqtt.Disconnect(0)
		return ctx.Err()
	}
}

func (c *Client) disconnect() {
	c.log.Info("disconnecting from bridge")
	c.mqtt.Disconnect(disconnectQuiesce)
	metrics.Connected.Set(0)
	c.track.setConnected(false)
}

// maybeRefreshToken bounces the connection shortly before the current token
// expires. The bridge drops connections with expired credentials, so it is
// better to reconnect on our schedule than on its.
func (c *Client) maybeRefreshToken(ctx context.Context) {
	vs, ok := c.tokens.(tokenValidity)
	if !ok {
		return
	}
	until := vs.ValidUntil()
	if until.IsZero() || c.nowFunc().Before(until.Add(-tokenRefreshSlack)) {
		return
	}

	c.log.Info("device token near expiry, reconnecting", "valid_until", until)
	metrics.TokenRefreshesTotal.Inc()

	c.mqtt.Disconnect(disconnectQuiesce)
	if err := c.connect(ctx); err != nil {
		c.log.Error("reconnect after token refresh failed", "error", err)
	}
}

// PublishEvent generates the next telemetry document and publishes it to
// the topic selected by the configured message type.
func (c *Client) PublishEvent(ctx context.Context) error {
	point := c.sim.Next()
	c.track.recordTemperature(c.sim.Temperature())

	payload, err := json.Marshal(point)
	if err != nil {
		return fmt.Errorf("encoding telemetry: %w", err)
	}

	return c.publish(ctx, c.cfg.MessageType, c.loopTopic(), payload)
}

// PublishState publishes the device state document.
func (c *Client) PublishState(ctx context.Context) error {
	payload, err := json.Marshal(domain.NewDeviceState())
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}

	return c.publish(ctx, domain.MessageState, c.topics.State(), payload)
}

func (c *Client) publish(ctx context.Context, mt domain.MessageType, topic string, payload []byte) error {
	start := time.Now()

	tok := c.mqtt.Publish(topic, qosAtLeastOnce, false, payload)
	acked := tok.WaitTimeout(publishTimeout)

	err := tok.Error()
	if err == nil && !acked {
		err = errPublishTimeout
	}

	if err == nil {
		metrics.PublishesTotal.WithLabelValues(string(mt)).Inc()
		metrics.PublishDuration.Observe(time.Since(start).Seconds())
	} else {
		metrics.PublishFailuresTotal.WithLabelValues(string(mt)).Inc()
	}

	at := c.nowFunc()
	c.track.recordPublish(mt, at, err == nil)
	c.journalEntry(ctx, mt, topic, payload, at, err)

	if err != nil {
		return fmt.Errorf("publishing %s: %w", mt, err)
	}

	c.log.Debug("published", "topic", topic, "bytes", len(payload))
	return nil
}

func (c *Client) journalEntry(
	ctx context.Context,
	mt domain.MessageType,
	topic string,
	payload []byte,
	at time.Time,
	pubErr error,
) {
	if c.journal == nil {
		return
	}

	e := &journal.Entry{
		At:       at,
		DeviceID: c.cfg.DeviceID,
		Type:     string(mt),
		Topic:    topic,
		Payload:  payload,
		OK:       pubErr == nil,
	}
	if pubErr != nil {
		e.Error = pubErr.Error()
	}

	if err := c.journal.Append(ctx, e); err != nil {
		metrics.JournalErrorsTotal.Inc()
		c.log.Warn("journal append failed", "error", err)
		return
	}
	metrics.JournalAppendsTotal.Inc()
}

func (c *Client) loopTopic() string {
	if c.cfg.MessageType == domain.MessageState {
		return c.topics.State()
	}
	return c.topics.Events()
}

// Snapshot returns the current device status view.
func (c *Client) Snapshot() Snapshot {
	return c.track.view()
}

// Connected reports whether the bridge connection is up.
func (c *Client) Connected() bool {
	return c.track.view().Connected
}

func (c *Client) onConnect(client mqtt.Client) {
	metrics.ConnectsTotal.Inc()
	metrics.Connected.Set(1)
	c.track.setConnected(true)
	c.log.Info("connected to bridge", "client_id", c.topics.ClientID())

	c.subscribe(client, c.topics.Config(), qosAtLeastOnce, c.onConfigMessage)
	c.subscribe(client, c.topics.Commands(), qosAtMostOnce, c.onCommandMessage)
}

func (c *Client) subscribe(client mqtt.Client, topic string, qos byte, cb mqtt.MessageHandler) {
	c.log.Info("subscribing", "topic", topic, "qos", qos)

	tok := client.Subscribe(topic, qos, cb)
	if !tok.WaitTimeout(subscribeTimeout) || tok.Error() != nil {
		c.log.Error("subscribe failed", "topic", topic, "error", tok.Error())
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	metrics.ConnectionLostTotal.Inc()
	metrics.Connected.Set(0)
	c.track.setConnected(false)
	c.log.Warn("connection to bridge lost", "error", err)
}

func (c *Client) onConfigMessage(_ mqtt.Client, msg mqtt.Message) {
	upd := domain.ConfigUpdate{
		Payload:    append([]byte(nil), msg.Payload()...),
		ReceivedAt: c.nowFunc(),
	}

	metrics.ConfigUpdatesTotal.Inc()
	c.track.recordConfig(upd)
	c.handler.HandleConfig(context.Background(), upd)
}

func (c *Client) onCommandMessage(_ mqtt.Client, msg mqtt.Message) {
	subfolder := strings.TrimPrefix(msg.Topic(), c.topics.commandPrefix())
	subfolder = strings.TrimPrefix(subfolder, "/")

	cmd := domain.Command{
		Subfolder:  subfolder,
		Payload:    append([]byte(nil), msg.Payload()...),
		ReceivedAt: c.nowFunc(),
	}

	metrics.CommandsTotal.Inc()
	c.track.recordCommand(cmd)
	c.handler.HandleCommand(context.Background(), cmd)
}
