package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLinkMode        = "tcp-listen"
	DefaultLinkAddr        = ":5277"
	DefaultReadBufferSize  = 512 * 1024
	DefaultPollInterval    = 10 * time.Millisecond
	DefaultJoinTimeout     = 500 * time.Millisecond
	DefaultAudioCapacity   = 64
	DefaultVideoCapacity   = 30
	DefaultControlCapacity = 64
	DefaultMonitorPort     = 8457
	DefaultStreamInterval  = 1 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 4
	DefaultMinConns        = 1
	DefaultSampleInterval  = 1 * time.Second
	DefaultBatchSize       = 100
	DefaultFlushInterval   = 5 * time.Second
)

func (c *Config) applyDefaults() {
	// Link defaults
	if c.Link.Mode == "" {
		c.Link.Mode = DefaultLinkMode
	}
	if c.Link.Addr == "" {
		c.Link.Addr = DefaultLinkAddr
	}
	if c.Link.ReadBufferSize == 0 {
		c.Link.ReadBufferSize = DefaultReadBufferSize
	}

	// Dispatch defaults
	if c.Dispatch.PollInterval == 0 {
		c.Dispatch.PollInterval = DefaultPollInterval
	}
	if c.Dispatch.JoinTimeout == 0 {
		c.Dispatch.JoinTimeout = DefaultJoinTimeout
	}
	if c.Dispatch.Audio.Capacity == 0 {
		c.Dispatch.Audio.Capacity = DefaultAudioCapacity
	}
	if c.Dispatch.Video.Capacity == 0 {
		c.Dispatch.Video.Capacity = DefaultVideoCapacity
	}
	if c.Dispatch.Control.Capacity == 0 {
		c.Dispatch.Control.Capacity = DefaultControlCapacity
	}

	// Monitor defaults
	if c.Monitor.Port == 0 {
		c.Monitor.Port = DefaultMonitorPort
	}
	if c.Monitor.StreamInterval == 0 {
		c.Monitor.StreamInterval = DefaultStreamInterval
	}

	// Record defaults
	if c.Record.Enabled {
		applyDBDefaults(&c.Record.Database)
	}
	if c.Record.SampleInterval == 0 {
		c.Record.SampleInterval = DefaultSampleInterval
	}
	if c.Record.BatchSize == 0 {
		c.Record.BatchSize = DefaultBatchSize
	}
	if c.Record.FlushInterval == 0 {
		c.Record.FlushInterval = DefaultFlushInterval
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
