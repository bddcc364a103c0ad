package config

import "time"

// Config is the root configuration for a head-unit link host.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Link     LinkConfig     `yaml:"link"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Monitor  MonitorConfig  `yaml:"monitor"`
	Record   RecordConfig   `yaml:"record"`
}

// InstanceConfig identifies this head unit.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// LinkConfig holds link transport settings.
//
// Mode selects how the framed byte stream is obtained:
//   - "tcp-listen": accept wireless-mode sessions on Addr
//   - "tcp-dial":   connect out to a device endpoint at Addr
//   - "fd":         adopt an already-open stream on file descriptor FD
//     (the platform layer opens the USB bulk endpoint and passes it down)
type LinkConfig struct {
	Mode           string `yaml:"mode"`
	Addr           string `yaml:"addr"`
	FD             int    `yaml:"fd"`
	ReadBufferSize int    `yaml:"read_buffer_size"`
}

// DispatchConfig holds per-lane dispatch settings.
type DispatchConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	JoinTimeout  time.Duration `yaml:"join_timeout"`
	Audio        LaneConfig    `yaml:"audio"`
	Video        LaneConfig    `yaml:"video"`
	Control      LaneConfig    `yaml:"control"`
}

// LaneConfig sizes one lane's queue.
type LaneConfig struct {
	Capacity int `yaml:"capacity"`
}

// MonitorConfig holds the diagnostics server settings.
type MonitorConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Port           int           `yaml:"port"`
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// RecordConfig holds session telemetry recording settings.
type RecordConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Database       DBConfig      `yaml:"database"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	BatchSize      int           `yaml:"batch_size"`
	FlushInterval  time.Duration `yaml:"flush_interval"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}
