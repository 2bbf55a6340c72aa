// Package mqtt publishes meter readings to a broker. Topic layout:
//
//	<base>/<meter-id>/data    full reading JSON
//	<base>/<meter-id>/status  online/offline, retained (offline is the LWT)
//	<base>/<meter-id>/error   last error text
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sahasra-iot/meterlink/config"
	"github.com/sahasra-iot/meterlink/meterdata"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"

	connectTimeout = 10 * time.Second
	publishTimeout = 5 * time.Second
)

type Publisher struct {
	client  paho.Client
	cfg     config.MQTTConfig
	meterID string
	logger  *zap.SugaredLogger
}

func OptsFromConfig(cfg config.MQTTConfig, meterID string) *paho.ClientOptions {
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetClientID(fmt.Sprintf("%s_%s", cfg.ClientID, meterID))
	if cfg.Username != "" && cfg.Password != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(PayloadOffline)
	opts.WillRetained = true
	opts.WillTopic = StatusTopic(cfg.BaseTopic, meterID)
	opts.WillQos = 0
	opts.SetAutoReconnect(true)
	return opts
}

func New(cfg config.MQTTConfig, meterID string, logger *zap.SugaredLogger) *Publisher {
	return &Publisher{
		client:  paho.NewClient(OptsFromConfig(cfg, meterID)),
		cfg:     cfg,
		meterID: meterID,
		logger:  logger,
	}
}

func DataTopic(base, meterID string) string {
	return fmt.Sprintf("%s/%s/data", base, meterID)
}

func StatusTopic(base, meterID string) string {
	return fmt.Sprintf("%s/%s/status", base, meterID)
}

func ErrorTopic(base, meterID string) string {
	return fmt.Sprintf("%s/%s/error", base, meterID)
}

func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connect to %s:%d timed out", p.cfg.Host, p.cfg.Port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	return p.publish(StatusTopic(p.cfg.BaseTopic, p.meterID), PayloadOnline, true)
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		_ = p.publish(StatusTopic(p.cfg.BaseTopic, p.meterID), PayloadOffline, true)
		p.client.Disconnect(250)
	}
}

func (p *Publisher) publish(topic, payload string, retained bool) error {
	token := p.client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// PublishReading sends the record JSON to the data topic.
func (p *Publisher) PublishReading(rec *meterdata.Record) error {
	payload, err := rec.JSON(true)
	if err != nil {
		return err
	}
	if p.logger != nil {
		p.logger.Debugf("publishing %d bytes to %s", len(payload), DataTopic(p.cfg.BaseTopic, p.meterID))
	}
	return p.publish(DataTopic(p.cfg.BaseTopic, p.meterID), string(payload), false)
}

// PublishError reports a failed collection cycle.
func (p *Publisher) PublishError(msg string) error {
	return p.publish(ErrorTopic(p.cfg.BaseTopic, p.meterID), msg, false)
}
