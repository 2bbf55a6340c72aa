package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sahasra-iot/meterlink/config"
)

func TestTopics(t *testing.T) {
	assert.Equal(t, "dlms/meter/EM1/data", DataTopic("dlms/meter", "EM1"))
	assert.Equal(t, "dlms/meter/EM1/status", StatusTopic("dlms/meter", "EM1"))
	assert.Equal(t, "dlms/meter/EM1/error", ErrorTopic("dlms/meter", "EM1"))
}

func TestOptsFromConfig(t *testing.T) {
	cfg := config.MQTTConfig{
		Host:      "broker.example.net",
		Port:      1883,
		BaseTopic: "dlms/meter",
		ClientID:  "meterlink",
		Username:  "u",
		Password:  "p",
	}
	opts := OptsFromConfig(cfg, "EM1")

	assert.Equal(t, "tcp://broker.example.net:1883", opts.Servers[0].String())
	assert.Equal(t, "meterlink_EM1", opts.ClientID)
	assert.Equal(t, "u", opts.Username)
	assert.True(t, opts.WillEnabled)
	assert.Equal(t, "dlms/meter/EM1/status", opts.WillTopic)
	assert.Equal(t, []byte(PayloadOffline), opts.WillPayload)
	assert.True(t, opts.WillRetained)
}
