// Package config loads the reader configuration: defaults, an optional
// YAML file and METERLINK_* environment overrides, in that order.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/sahasra-iot/meterlink/base"
	"github.com/sahasra-iot/meterlink/hdlc"
	"github.com/sahasra-iot/meterlink/session"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Device string `mapstructure:"device"`
	Baud   int    `mapstructure:"baud"`

	DlmsPassword     string `mapstructure:"dlms_password"`
	ClientSAP        uint8  `mapstructure:"client_sap"`
	ServerSAP        uint8  `mapstructure:"server_sap"`
	MaxFrameSize     int    `mapstructure:"max_frame_size"`
	CommandTimeoutMs int    `mapstructure:"command_timeout_ms"`
	DtrWakeDelayMs   int    `mapstructure:"dtr_wake_delay_ms"`

	Collect CollectConfig `mapstructure:"collect"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
}

type CollectConfig struct {
	ReadIntervalS        int `mapstructure:"read_interval_s"`
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors"`
	RecoveryDelayS       int `mapstructure:"recovery_delay_s"`
	RestartThreshold     int `mapstructure:"restart_threshold"`
}

type MQTTConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	BaseTopic string `mapstructure:"base_topic"`
	ClientID  string `mapstructure:"client_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("device", "/dev/ttyUSB0")
	v.SetDefault("baud", 9600)

	v.SetDefault("dlms_password", "1111111111111111")
	v.SetDefault("client_sap", hdlc.ClientSAP)
	v.SetDefault("server_sap", hdlc.ServerSAP)
	v.SetDefault("max_frame_size", hdlc.MaxFrameSize)
	v.SetDefault("command_timeout_ms", 2000)
	v.SetDefault("dtr_wake_delay_ms", 500)

	v.SetDefault("collect.read_interval_s", 60)
	v.SetDefault("collect.max_consecutive_errors", 5)
	v.SetDefault("collect.recovery_delay_s", 10)
	v.SetDefault("collect.restart_threshold", 10)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.host", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.base_topic", "dlms/meter")
	v.SetDefault("mqtt.client_id", "meterlink")
}

// Load reads the configuration. file may be empty, in which case defaults
// and environment variables alone apply.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("meterlink")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if len(c.DlmsPassword) != hdlc.PasswordLength {
		return fmt.Errorf("dlms_password must be %d characters, got %d", hdlc.PasswordLength, len(c.DlmsPassword))
	}
	if c.MaxFrameSize < hdlc.MaxFrameSize {
		return fmt.Errorf("max_frame_size %d below the protocol minimum %d", c.MaxFrameSize, hdlc.MaxFrameSize)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive")
	}
	return nil
}

// ZapLevel parses log_level, falling back to info.
func (c *Config) ZapLevel() zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.Set(c.LogLevel); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// SessionSettings maps the configuration onto the protocol knobs.
func (c *Config) SessionSettings() *session.Settings {
	s := session.DefaultSettings()
	s.Password = []byte(c.DlmsPassword)
	s.ClientSAP = c.ClientSAP
	s.ServerSAP = c.ServerSAP
	s.MaxFrameSize = c.MaxFrameSize
	s.CommandTimeout = time.Duration(c.CommandTimeoutMs) * time.Millisecond
	s.DTRWakeDelay = time.Duration(c.DtrWakeDelayMs) * time.Millisecond
	return s
}

// SerialSettings maps the configuration onto the line parameters.
func (c *Config) SerialSettings() base.SerialSettings {
	s := base.DefaultSerialSettings(c.Device)
	s.BaudRate = c.Baud
	return s
}
