package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fadecode-go/services/fade/hal"

	"periph.io/x/conn/v3/physic"
)

const sample = `
pwm:
  driver: pca9633
  i2cbus: "1"
  address: 0x60
  channel: 2
companion:
  chip: gpiochip0
  line: 17
mqtt:
  broker: 10.0.0.2:1883
  prefix: lab/
  timeout: 2
debug:
  file: stdout
  flag: debug
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fade-host.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, sample)
	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	h := c.HostConfig()
	want := hal.HostConfig{
		Driver:        hal.DriverPCA9633,
		RampPin:       "GPIO18",
		PWMFrequency:  1000 * physic.Hertz,
		I2CBus:        "1",
		I2CAddr:       0x60,
		Channel:       2,
		CompanionPin:  "GPIO23",
		CompanionChip: "gpiochip0",
		CompanionLine: 17,
	}
	if h != want {
		t.Fatalf("host config\n got %+v\nwant %+v", h, want)
	}

	m := c.MQTTSinkConfig()
	if m.Broker != "10.0.0.2:1883" || m.Prefix != "lab/" || m.Timeout != 2*time.Second || m.ClientID != "fade-host" {
		t.Fatalf("mqtt config %+v", m)
	}
	if c.Debug.File != os.Stdout || c.Debug.Flag == 0 {
		t.Fatalf("debug config %+v", c.Debug)
	}
	// Defaults survive a partial file.
	if !c.Webserver.Webservices["state"] || c.Heartbeat.Interval != 1 {
		t.Fatalf("defaults lost: %+v %+v", c.Webserver, c.Heartbeat)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeConfig(t, "sim: false\ndebug:\n  flag: debug\n")
	c.Flag.LogLevel = "standard"
	c.Flag.Sim = true
	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !c.Sim || c.Debug.FlagString != "standard" {
		t.Fatalf("flags not applied: sim=%v log=%q", c.Sim, c.Debug.FlagString)
	}
}

func TestNoConfigFileUsesDefaults(t *testing.T) {
	c := NewConfig()
	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.PWM.Driver != hal.DriverNative || c.MQTT.Timeout != 5*time.Second {
		t.Fatalf("defaults %+v %+v", c.PWM, c.MQTT)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	if err := c.LoadConfig(); err == nil {
		t.Fatal("missing file accepted")
	}

	c = NewConfig()
	c.Flag.LogLevel = "loud"
	if err := c.LoadConfig(); err == nil {
		t.Fatal("unknown log level accepted")
	}
}
