package bridge

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.BridgeService/client"
	config "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Config"
	logger "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Logger"
	irrmodels "gitlab.com/verdantsense1/irr.pump_server/src/production/IRR.Models"
)

// Bridge subscribes to the telemetry topic on an MQTT broker and forwards
// every well-formed reading into the API service's ingestion endpoint. It
// exists for deployments where the sensor firmware speaks MQTT rather than
// HTTP; the control pipeline stays identical either way.
type Bridge struct {
	cfg        *config.BridgeConfig
	apiClient  *client.APIClient
	mqttClient mqtt.Client
	msgCh      chan irrmodels.TelemetryRequest
	done       chan struct{}
	wg         sync.WaitGroup
	logger     *logger.Logger
}

func New(cfg *config.BridgeConfig, apiClient *client.APIClient, log *logger.Logger) *Bridge {
	return &Bridge{
		cfg:       cfg,
		apiClient: apiClient,
		msgCh:     make(chan irrmodels.TelemetryRequest, 4096),
		done:      make(chan struct{}),
		logger:    log.WithComponent("bridge"),
	}
}

func (b *Bridge) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(b.cfg.GetMQTTBrokerURL()).
		SetClientID(b.cfg.MQTT.ClientID).
		SetOrderMatters(true).
		SetKeepAlive(b.cfg.MQTT.KeepAlive).
		SetPingTimeout(b.cfg.MQTT.PingTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetCleanSession(false)

	if b.cfg.MQTT.BrokerUser != "" {
		opts.SetUsername(b.cfg.MQTT.BrokerUser)
		opts.SetPassword(b.cfg.MQTT.BrokerPass)
	}

	if b.cfg.MQTT.UseTLS {
		tlsCfg, err := b.tlsConfig(b.cfg.MQTT.CACertPath)
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}

	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		b.logger.Logger.Error().Err(err).Msg("MQTT connection lost")
	}
	opts.OnConnect = func(c mqtt.Client) {
		topic := b.cfg.MQTT.Topic
		b.logger.Logger.Info().Str("topic", topic).Msg("MQTT connected, subscribing to topic")
		if token := c.Subscribe(topic, 1, b.onMessage); token.Wait() && token.Error() != nil {
			b.logger.Logger.Error().Err(token.Error()).Str("topic", topic).Msg("Failed to subscribe to MQTT topic")
		}
	}

	b.mqttClient = mqtt.NewClient(opts)
	if tk := b.mqttClient.Connect(); tk.Wait() && tk.Error() != nil {
		return tk.Error()
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.forwarder(ctx)
	}()

	return nil
}

func (b *Bridge) Stop() {
	if b.mqttClient != nil && b.mqttClient.IsConnected() {
		b.mqttClient.Disconnect(500)
	}
	// msgCh stays open: Disconnect only bounds the wait for in-flight
	// handlers, so one may still be blocked sending into the queue. The done
	// channel releases it and the forwarder instead.
	close(b.done)
	b.wg.Wait()
}

func (b *Bridge) IsConnected() bool {
	return b.mqttClient != nil && b.mqttClient.IsConnected()
}

func (b *Bridge) onMessage(_ mqtt.Client, m mqtt.Message) {
	b.logger.Logger.Debug().Str("topic", m.Topic()).Str("payload", string(m.Payload())).Msg("Received MQTT message")

	var req irrmodels.TelemetryRequest
	if err := json.Unmarshal(m.Payload(), &req); err != nil {
		b.logger.Logger.Warn().Err(err).Str("topic", m.Topic()).Msg("Dropping malformed telemetry payload")
		return
	}
	if req.Humidity == nil || req.PumpOn == nil || req.Timestamp == nil {
		b.logger.Logger.Warn().Str("topic", m.Topic()).Msg("Dropping telemetry payload with missing fields")
		return
	}

	select {
	case b.msgCh <- req:
	case <-b.done:
	}
}

// forwarder drains the queue one message at a time. Readings from the single
// device must reach the API in receipt order, so there is exactly one worker.
func (b *Bridge) forwarder(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.done:
			return
		case req := <-b.msgCh:
			resp, err := b.apiClient.PostTelemetry(ctx, req)
			if err != nil {
				b.logger.Logger.Error().Err(err).Msg("Failed to forward telemetry to API service")
				continue
			}
			b.logger.Logger.Debug().Bool("pump_on", resp.PumpOn).Msg("Telemetry forwarded")
		}
	}
}

func (b *Bridge) tlsConfig(caFile string) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile == "" {
		return cfg, nil
	}
	ca, err := os.ReadFile(caFile)
	if err != nil {
		return nil, err
	}
	cp := x509.NewCertPool()
	if !cp.AppendCertsFromPEM(ca) {
		return nil, fmt.Errorf("bad CA file")
	}
	cfg.RootCAs = cp
	return cfg, nil
}
