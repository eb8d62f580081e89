package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.bug.st/serial"
)

// Profile names a device setup
type Profile string

const (
	// ProfileLoopback - no hardware, codes echo back (tests, dry runs)
	ProfileLoopback Profile = "loopback"

	// ProfileBlasterUSB - USB/TTL blaster on a high-speed port
	ProfileBlasterUSB Profile = "blaster-usb"

	// ProfileBlasterArduino - Arduino-based blaster on a CDC-ACM port
	ProfileBlasterArduino Profile = "blaster-arduino"
)

// DeviceProfile holds profile-specific device configuration
type DeviceProfile struct {
	Name        Profile `mapstructure:"name"`
	Description string  `mapstructure:"description"`

	// Connection
	Type     string `mapstructure:"type"` // loopback | serial
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`

	// Capture behavior
	ReceiveTimeoutSec int `mapstructure:"receive_timeout_sec"`
	ReceiveCount      int `mapstructure:"receive_count"` // 0 = until interrupted
}

// GetDefaultProfiles returns the default profile configurations
func GetDefaultProfiles() map[Profile]*DeviceProfile {
	return map[Profile]*DeviceProfile{
		ProfileLoopback: {
			Name:              ProfileLoopback,
			Description:       "No hardware; transmitted codes echo back",
			Type:              "loopback",
			ReceiveTimeoutSec: 0,
			ReceiveCount:      1,
		},
		ProfileBlasterUSB: {
			Name:              ProfileBlasterUSB,
			Description:       "USB/TTL IR blaster (/dev/ttyUSB0 at 115200)",
			Type:              "serial",
			Port:              "/dev/ttyUSB0",
			BaudRate:          115200,
			ReceiveTimeoutSec: 60,
			ReceiveCount:      1,
		},
		ProfileBlasterArduino: {
			Name:              ProfileBlasterArduino,
			Description:       "Arduino IR blaster (/dev/ttyACM0 at 9600)",
			Type:              "serial",
			Port:              "/dev/ttyACM0",
			BaudRate:          9600,
			ReceiveTimeoutSec: 60,
			ReceiveCount:      1,
		},
	}
}

// LoadProfile loads a profile configuration
func LoadProfile(profileName string) (*DeviceProfile, error) {
	profile := Profile(profileName)

	defaults := GetDefaultProfiles()
	defaultConfig, exists := defaults[profile]
	if !exists {
		return nil, fmt.Errorf("unknown profile: %s", profileName)
	}

	// Try to load custom profile configuration
	v := viper.New()
	v.SetConfigName(fmt.Sprintf("profile-%s", profileName))
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(getConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read profile config: %w", err)
		}
		// Use defaults if no custom config
		return defaultConfig, nil
	}

	var cfg DeviceProfile
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile config: %w", err)
	}

	mergeProfileConfig(&cfg, defaultConfig)

	return &cfg, nil
}

// DetectProfile picks the best profile for the attached hardware by
// enumerating serial ports.
func DetectProfile() Profile {
	ports, err := serial.GetPortsList()
	if err != nil {
		return ProfileLoopback
	}
	for _, p := range ports {
		if strings.Contains(p, "ttyACM") {
			return ProfileBlasterArduino
		}
	}
	for _, p := range ports {
		if strings.Contains(p, "ttyUSB") || strings.Contains(p, "usbserial") {
			return ProfileBlasterUSB
		}
	}
	return ProfileLoopback
}

// Spec renders the profile as a "type:args" connection string for the
// device registry.
func (p *DeviceProfile) Spec() string {
	switch p.Type {
	case "serial":
		return fmt.Sprintf("serial:%s:%d", p.Port, p.BaudRate)
	default:
		return "loopback:"
	}
}

// mergeProfileConfig fills any zero fields of cfg from the defaults
func mergeProfileConfig(cfg, defaults *DeviceProfile) {
	if cfg.Name == "" {
		cfg.Name = defaults.Name
	}
	if cfg.Description == "" {
		cfg.Description = defaults.Description
	}
	if cfg.Type == "" {
		cfg.Type = defaults.Type
	}
	if cfg.Port == "" {
		cfg.Port = defaults.Port
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = defaults.BaudRate
	}
	if cfg.ReceiveTimeoutSec == 0 {
		cfg.ReceiveTimeoutSec = defaults.ReceiveTimeoutSec
	}
	if cfg.ReceiveCount == 0 {
		cfg.ReceiveCount = defaults.ReceiveCount
	}
}
