package server

import "fmt"

// Config holds HTTP server configuration.
type Config struct {
	// Host is the bind address.
	Host string `yaml:"host" mapstructure:"host"`
	// Port is the listen port.
	Port int `yaml:"port" mapstructure:"port"`
	// Mode is the gin mode (debug, release, test).
	Mode string `yaml:"mode" mapstructure:"mode"`
	// MaxUploadBytes caps the accepted audio file size.
	MaxUploadBytes int64 `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.Mode == "" {
		c.Mode = "release"
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 500 << 20 // 500MB
	}
}

// Validate checks configuration sanity.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("server.port must be in 1..65535 (got: %d)", c.Port)
	}
	switch c.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test (got: %s)", c.Mode)
	}
	return nil
}

// Addr returns the host:port bind address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
