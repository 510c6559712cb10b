// Package mqtt publishes encoder and timer events and receives remote
// commands.
package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const topicRoot = "worktimer"

// Config holds MQTT connection settings.
type Config struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	CACert     string `yaml:"ca_cert"`
	ClientCert string `yaml:"client_cert"`
	ClientKey  string `yaml:"client_key"`
}

// Handlers holds callback functions for MQTT events.
type Handlers struct {
	OnConnect    func()
	OnDisconnect func()
	// OnCommand receives each non-empty line of a payload published to
	// the node's command topic.
	OnCommand func(line string)
}

// Client wraps the MQTT client with the node's topic layout.
type Client struct {
	client       paho.Client
	clientID     string
	enabled      bool
	onConnect    func()
	onDisconnect func()
	onCommand    func(line string)
}

// KnobEvent is published for each batch of detents turned.
type KnobEvent struct {
	Cycles int `json:"cycles"`
}

// TimerEvent is published when the work timer starts or stops.
type TimerEvent struct {
	Running bool   `json:"running"`
	Elapsed string `json:"elapsed"`
}

// New creates a new MQTT client. Returns a disabled no-op client if host is empty.
func New(cfg Config, clientID string, handlers Handlers) (*Client, error) {
	c := &Client{
		clientID:     clientID,
		onConnect:    handlers.OnConnect,
		onDisconnect: handlers.OnDisconnect,
		onCommand:    handlers.OnCommand,
	}

	if cfg.Host == "" {
		log.Println("MQTT disabled (no host configured)")
		return c, nil
	}
	c.enabled = true

	var broker string
	var tlsConfig *tls.Config

	if cfg.CACert != "" || cfg.ClientCert != "" {
		if cfg.Port == 0 {
			cfg.Port = 8883
		}
		broker = fmt.Sprintf("ssl://%s:%d", cfg.Host, cfg.Port)

		var err error
		tlsConfig, err = buildTLSConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("build TLS config: %w", err)
		}
	} else {
		if cfg.Port == 0 {
			cfg.Port = 1883
		}
		broker = fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port)
		log.Println("MQTT using non-TLS connection")
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetKeepAlive(60 * time.Second).
		SetConnectionLostHandler(c.handleConnectionLost).
		SetOnConnectHandler(c.handleConnect)

	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	c.client = paho.NewClient(opts)

	paho.ERROR = log.New(os.Stdout, "[MQTT ERROR] ", 0)
	paho.CRITICAL = log.New(os.Stdout, "[MQTT CRIT] ", 0)
	paho.WARN = log.New(os.Stdout, "[MQTT WARN] ", 0)

	return c, nil
}

func buildTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{}

	if cfg.CACert != "" {
		caCert, err := os.ReadFile(cfg.CACert)
		if err != nil {
			return nil, fmt.Errorf("read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates in %s", cfg.CACert)
		}
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

// Connect connects to the MQTT broker. If disabled, calls onConnect immediately.
func (c *Client) Connect() error {
	if !c.enabled {
		// Report a connection so indicators leave the ConnectionLost state.
		if c.onConnect != nil {
			c.onConnect()
		}
		return nil
	}

	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("connect: %w", token.Error())
	}
	log.Println("MQTT connected")
	return nil
}

// Disconnect disconnects from the MQTT broker. No-op if disabled.
func (c *Client) Disconnect() {
	if !c.enabled || c.client == nil {
		return
	}
	c.client.Disconnect(250)
}

// IsEnabled returns whether MQTT is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// StatusTopic returns worktimer/status/node/<id>/<leaf>.
func (c *Client) StatusTopic(leaf string) string {
	return fmt.Sprintf("%s/status/node/%s/%s", topicRoot, c.clientID, leaf)
}

// CommandTopic returns the topic remote commands arrive on.
func (c *Client) CommandTopic() string {
	return fmt.Sprintf("%s/control/node/%s/command", topicRoot, c.clientID)
}

// PublishKnob publishes a detent count.
func (c *Client) PublishKnob(cycles int) {
	c.publishJSON("knob", KnobEvent{Cycles: cycles})
}

// PublishTimer publishes the timer state.
func (c *Client) PublishTimer(running bool, elapsed string) {
	c.publishJSON("timer", TimerEvent{Running: running, Elapsed: elapsed})
}

// Ping publishes a liveness message.
func (c *Client) Ping() {
	c.publish(c.StatusTopic("ping"), `{"status":"ok"}`)
}

func (c *Client) publishJSON(leaf string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("MQTT encode %s: %v", leaf, err)
		return
	}
	c.publish(c.StatusTopic(leaf), string(b))
}

func (c *Client) publish(topic, payload string) {
	if !c.enabled {
		return
	}
	c.client.Publish(topic, 0, false, payload)
}

func (c *Client) handleConnect(client paho.Client) {
	log.Println("MQTT connection established")
	topic := c.CommandTopic()
	if token := client.Subscribe(topic, 0, c.handleCommand); token.Wait() && token.Error() != nil {
		log.Printf("MQTT subscribe %s: %v", topic, token.Error())
	}
	if c.onConnect != nil {
		c.onConnect()
	}
}

func (c *Client) handleConnectionLost(client paho.Client, err error) {
	log.Printf("MQTT connection lost: %v", err)
	if c.onDisconnect != nil {
		c.onDisconnect()
	}
}

func (c *Client) handleCommand(client paho.Client, msg paho.Message) {
	c.dispatch(msg.Payload())
}

func (c *Client) dispatch(payload []byte) {
	if c.onCommand == nil {
		return
	}
	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			c.onCommand(line)
		}
	}
}
