// Package config loads service configuration from YAML, .env, and the
// environment, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skillsenselab/scribeq/internal/engines"
	"github.com/skillsenselab/scribeq/internal/logger"
	"github.com/skillsenselab/scribeq/internal/observability"
	"github.com/skillsenselab/scribeq/internal/queue"
	"github.com/skillsenselab/scribeq/internal/redis"
	"github.com/skillsenselab/scribeq/internal/server"
)

// Config is the full service configuration for both binaries.
type Config struct {
	Server  server.Config        `yaml:"server" mapstructure:"server"`
	Logging logger.Config        `yaml:"logging" mapstructure:"logging"`
	Redis   redis.Config         `yaml:"redis" mapstructure:"redis"`
	Queue   queue.Config         `yaml:"queue" mapstructure:"queue"`
	Uploads UploadsConfig        `yaml:"uploads" mapstructure:"uploads"`
	Engines engines.Config       `yaml:"engines" mapstructure:"engines"`
	Metrics observability.Config `yaml:"metrics" mapstructure:"metrics"`
	Jobs    JobsConfig           `yaml:"jobs" mapstructure:"jobs"`
	Worker  WorkerConfig         `yaml:"worker" mapstructure:"worker"`
}

// UploadsConfig configures scratch upload storage.
type UploadsConfig struct {
	// Dir is the directory uploads are stored in until processed.
	Dir string `yaml:"dir" mapstructure:"dir"`
	// AllowedFormats is the accepted audio file extensions.
	AllowedFormats []string `yaml:"allowed_formats" mapstructure:"allowed_formats"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *UploadsConfig) ApplyDefaults() {
	if c.Dir == "" {
		c.Dir = filepath.Join(os.TempDir(), "uploads")
	}
	if len(c.AllowedFormats) == 0 {
		c.AllowedFormats = []string{"mp3", "wav", "m4a", "flac"}
	}
}

// JobsConfig configures the job record store.
type JobsConfig struct {
	// TerminalTTL expires finished/failed records. Zero keeps them.
	TerminalTTL time.Duration `yaml:"terminal_ttl" mapstructure:"terminal_ttl"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *JobsConfig) ApplyDefaults() {
	if c.TerminalTTL == 0 {
		c.TerminalTTL = 24 * time.Hour
	}
}

// WorkerConfig configures which engine queues a worker consumes.
type WorkerConfig struct {
	// Engines lists the engine names this worker can run. A worker only
	// consumes queues for engines it is capable of.
	Engines []string `yaml:"engines" mapstructure:"engines"`
}

// ApplyDefaults sets sensible defaults for zero-valued fields.
func (c *WorkerConfig) ApplyDefaults() {
	if len(c.Engines) == 0 {
		c.Engines = []string{"whisperx", "timestamped"}
	}
}

// ApplyDefaults applies defaults to every section.
func (c *Config) ApplyDefaults() {
	c.Server.ApplyDefaults()
	c.Logging.ApplyDefaults()
	c.Redis.ApplyDefaults()
	c.Queue.ApplyDefaults()
	c.Uploads.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Jobs.ApplyDefaults()
	c.Worker.ApplyDefaults()
}

// Validate validates every section.
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Queue.Validate(); err != nil {
		return err
	}
	for _, engine := range c.Worker.Engines {
		if engine != "whisperx" && engine != "timestamped" {
			return fmt.Errorf("worker.engines contains unknown engine %q", engine)
		}
	}
	return nil
}
