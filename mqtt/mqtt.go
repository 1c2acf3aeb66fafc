// Package mqtt carries the terminal's telemetry and control traffic over
// the fleet broker. Topics follow the tap scheme:
//
//	tap/status/node/<client_id>/<kind>   terminal to fleet
//	tap/control/node/<client_id>/<kind>  fleet to terminal
//
// A terminal with no broker host configured gets a disabled client whose
// whole surface is a no-op, so call sites never branch on availability.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Config holds broker connection settings.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Host != "" }

// StatusTopic names the outbound telemetry topic of the given kind for one
// terminal.
func StatusTopic(clientID, kind string) string {
	return fmt.Sprintf("tap/status/node/%s/%s", clientID, kind)
}

// ControlTopic names the inbound control topic of the given kind for one
// terminal.
func ControlTopic(clientID, kind string) string {
	return fmt.Sprintf("tap/control/node/%s/%s", clientID, kind)
}

// Handlers holds the callbacks the client invokes from the paho network
// goroutine. Fields may be nil.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()
	OnMessage    func(topic string, payload []byte)
}

// Client wraps the paho client for one terminal.
type Client struct {
	client   paho.Client
	clientID string
	enabled  bool
	logger   *slog.Logger
	handlers Handlers
}

// New creates the client. With no host configured it returns a disabled
// client and no error.
func New(cfg Config, clientID string, handlers Handlers) (*Client, error) {
	c := &Client{
		clientID: clientID,
		logger:   slog.Default().With("component", "mqtt"),
		handlers: handlers,
	}

	if !cfg.Enabled() {
		c.logger.Info("broker not configured, telemetry disabled")
		return c, nil
	}
	c.enabled = true

	broker, tlsConfig, err := brokerURL(cfg)
	if err != nil {
		return nil, err
	}
	c.logger.Info("broker configured", "url", broker)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect).
		SetDefaultPublishHandler(c.handleMessage)
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}
	c.client = paho.NewClient(opts)

	// paho logs through its own package-level loggers.
	paho.ERROR = log.New(os.Stdout, "[MQTT ERROR] ", 0)
	paho.CRITICAL = log.New(os.Stdout, "[MQTT CRIT] ", 0)

	return c, nil
}

// brokerURL picks the scheme and port from the certificate settings: any
// certificate material means TLS on 8883, none means plain TCP on 1883.
func brokerURL(cfg Config) (string, *tls.Config, error) {
	port := cfg.Port

	if cfg.CACert == "" && cfg.ClientCert == "" {
		if port == 0 {
			port = 1883
		}
		return fmt.Sprintf("tcp://%s:%d", cfg.Host, port), nil, nil
	}

	tlsConfig, err := buildTLSConfig(cfg)
	if err != nil {
		return "", nil, fmt.Errorf("build TLS config: %w", err)
	}
	if port == 0 {
		port = 8883
	}
	return fmt.Sprintf("ssl://%s:%d", cfg.Host, port), tlsConfig, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		caPool.AppendCertsFromPEM(caCert)
		tlsConfig.RootCAs = caPool
	}

	if cfg.ClientCert != "" && cfg.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCert, cfg.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

// Connect dials the broker. On a disabled client the connect callback still
// fires, so startup proceeds the same with or without a broker.
func (c *Client) Connect() error {
	if !c.enabled {
		if c.handlers.OnConnect != nil {
			c.handlers.OnConnect()
		}
		return nil
	}

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	c.logger.Info("connected", "client_id", c.clientID)
	return nil
}

// Disconnect drops the broker connection. No-op if disabled.
func (c *Client) Disconnect() {
	if !c.enabled || c.client == nil {
		return
	}
	c.client.Disconnect(250)
}

// Subscribe subscribes to a topic at QoS 0. No-op if disabled.
func (c *Client) Subscribe(topic string) error {
	if !c.enabled {
		return nil
	}
	if token := c.client.Subscribe(topic, 0, nil); token.Wait() && token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	return nil
}

// Publish sends a raw payload. No-op if disabled.
func (c *Client) Publish(topic string, payload string) {
	if !c.enabled {
		return
	}
	c.client.Publish(topic, 0, false, payload)
}

// PublishJSON marshals v and sends it. No-op if disabled.
func (c *Client) PublishJSON(topic string, v any) {
	if !c.enabled {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("marshal failed", "topic", topic, "error", err)
		return
	}
	c.client.Publish(topic, 0, false, data)
}

// IsEnabled reports whether a broker connection is configured.
func (c *Client) IsEnabled() bool { return c.enabled }

func (c *Client) handleConnect(client paho.Client) {
	c.logger.Info("connection established")
	if c.handlers.OnConnect != nil {
		c.handlers.OnConnect()
	}
}

func (c *Client) handleConnectionLost(client paho.Client, err error) {
	c.logger.Warn("connection lost", "error", err)
	if c.handlers.OnDisconnect != nil {
		c.handlers.OnDisconnect()
	}
}

func (c *Client) handleMessage(client paho.Client, msg paho.Message) {
	if c.handlers.OnMessage != nil {
		c.handlers.OnMessage(msg.Topic(), msg.Payload())
	}
}
