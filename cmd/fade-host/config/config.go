package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"fadecode-go/services/fade/hal"
	"fadecode-go/services/telemetry"
	"fadecode-go/x/strx"

	"github.com/womat/debug"
	"gopkg.in/yaml.v2"
	"periph.io/x/conn/v3/physic"
)

// Config defines the struct of global config and the struct of the configuration file.
// The ramp itself (period, range, threshold) is fixed and not configurable.
type Config struct {
	Sim       bool            `yaml:"sim"`
	Console   bool            `yaml:"console"`
	PWM       PWMConfig       `yaml:"pwm"`
	Companion CompanionConfig `yaml:"companion"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Flag      FlagConfig      `yaml:"-"`
	Debug     DebugConfig     `yaml:"debug"`
	Webserver WebserverConfig `yaml:"webserver"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	ConfigFile string
	LogLevel   string
	Sim        bool
}

// PWMConfig selects the ramp output.
type PWMConfig struct {
	Driver    string `yaml:"driver"` // native | pca9633
	Pin       string `yaml:"pin"`
	Frequency int    `yaml:"frequency"` // Hz, native driver only
	I2CBus    string `yaml:"i2cbus"`
	Address   uint16 `yaml:"address"`
	Channel   uint8  `yaml:"channel"`
	Invert    bool   `yaml:"invert"`
}

// CompanionConfig selects the companion output: a periph pin name, or a
// line of a GPIO character device when Chip is set.
type CompanionConfig struct {
	Pin  string `yaml:"pin"`
	Chip string `yaml:"chip"`
	Line int    `yaml:"line"`
}

// HeartbeatConfig defines the heartbeat interval in seconds.
type HeartbeatConfig struct {
	Interval int `yaml:"interval"`
}

// WebserverConfig defines the struct of the webserver and webservice configuration.
type WebserverConfig struct {
	URL         string          `yaml:"url"`
	Webservices map[string]bool `yaml:"webservices"`
}

// MQTTConfig defines the telemetry broker. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker     string        `yaml:"broker"`
	ClientID   string        `yaml:"clientid"`
	Prefix     string        `yaml:"prefix"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	TimeoutInt int           `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-"`
	Flag       int            `yaml:"-"`
	FlagString string         `yaml:"flag"`
	FileString string         `yaml:"file"`
}

func NewConfig() *Config {
	return &Config{
		Console: true,
		PWM: PWMConfig{
			Driver:    hal.DriverNative,
			Pin:       "GPIO18",
			Frequency: 1000,
			Address:   0x62,
		},
		Companion: CompanionConfig{Pin: "GPIO23"},
		Heartbeat: HeartbeatConfig{Interval: 1},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
		Webserver: WebserverConfig{
			URL: "http://0.0.0.0:4000",
			Webservices: map[string]bool{
				"version": true,
				"health":  true,
				"state":   true,
			},
		},
		MQTT: MQTTConfig{
			ClientID:   "fade-host",
			Prefix:     "fadecode/",
			TimeoutInt: 5,
		},
	}
}

// LoadConfig reads the configuration file (if any) and applies the flags.
func (c *Config) LoadConfig() error {
	if c.Flag.ConfigFile != "" {
		if err := c.readConfigFile(); err != nil {
			return fmt.Errorf("error reading config file %q: %w", c.Flag.ConfigFile, err)
		}
	}

	if c.Flag.LogLevel != "" {
		c.Debug.FlagString = c.Flag.LogLevel
	}
	if c.Flag.Sim {
		c.Sim = true
	}
	if err := c.setDebugConfig(); err != nil {
		return fmt.Errorf("unable to open debug file %q: %w", c.Debug.FileString, err)
	}

	c.MQTT.Timeout = time.Duration(c.MQTT.TimeoutInt) * time.Second
	c.PWM.Driver = strx.Coalesce(c.PWM.Driver, hal.DriverNative)
	return nil
}

func (c *Config) readConfigFile() error {
	file, err := os.Open(c.Flag.ConfigFile)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	decoder := yaml.NewDecoder(file)
	if err = decoder.Decode(c); err != nil {
		return err
	}

	return nil
}

func (c *Config) setDebugConfig() (err error) {
	switch c.Debug.FlagString {
	case "trace", "full":
		c.Debug.Flag = debug.Full
	case "debug":
		c.Debug.Flag = debug.Warning | debug.Info | debug.Error | debug.Fatal | debug.Debug
	case "standard":
		c.Debug.Flag = debug.Standard
	case "error":
		c.Debug.Flag = debug.Error | debug.Fatal
	default:
		return fmt.Errorf("unknown log level %q", c.Debug.FlagString)
	}

	switch c.Debug.FileString {
	case "stderr":
		c.Debug.File = os.Stderr
	case "stdout":
		c.Debug.File = os.Stdout
	default:
		if c.Debug.File, err = os.OpenFile(c.Debug.FileString, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666); err != nil {
			return
		}
	}

	return
}

// HostConfig converts the pin section to the platform builder's form.
func (c *Config) HostConfig() hal.HostConfig {
	return hal.HostConfig{
		Driver:        c.PWM.Driver,
		RampPin:       c.PWM.Pin,
		PWMFrequency:  physic.Frequency(c.PWM.Frequency) * physic.Hertz,
		I2CBus:        c.PWM.I2CBus,
		I2CAddr:       c.PWM.Address,
		Channel:       c.PWM.Channel,
		Invert:        c.PWM.Invert,
		CompanionPin:  c.Companion.Pin,
		CompanionChip: c.Companion.Chip,
		CompanionLine: c.Companion.Line,
	}
}

// MQTTSinkConfig converts the mqtt section for the telemetry sink.
func (c *Config) MQTTSinkConfig() telemetry.MQTTConfig {
	return telemetry.MQTTConfig{
		Broker:   c.MQTT.Broker,
		ClientID: c.MQTT.ClientID,
		Prefix:   c.MQTT.Prefix,
		Username: c.MQTT.Username,
		Password: c.MQTT.Password,
		Timeout:  c.MQTT.Timeout,
	}
}
