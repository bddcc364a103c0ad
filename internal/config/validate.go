package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	switch c.Link.Mode {
	case "tcp-listen", "tcp-dial":
		if c.Link.Addr == "" {
			return fmt.Errorf("link.addr is required for mode %q", c.Link.Mode)
		}
	case "fd":
		if c.Link.FD < 3 {
			return fmt.Errorf("link.fd must be an inherited descriptor (>= 3), got %d", c.Link.FD)
		}
	default:
		return fmt.Errorf("link.mode must be tcp-listen, tcp-dial or fd, got %q", c.Link.Mode)
	}

	if c.Dispatch.Audio.Capacity < 1 {
		return errors.New("dispatch.audio.capacity must be >= 1")
	}
	if c.Dispatch.Video.Capacity < 1 {
		return errors.New("dispatch.video.capacity must be >= 1")
	}
	if c.Dispatch.Control.Capacity < 1 {
		return errors.New("dispatch.control.capacity must be >= 1")
	}
	if c.Dispatch.PollInterval <= 0 {
		return errors.New("dispatch.poll_interval must be > 0")
	}
	if c.Dispatch.JoinTimeout <= 0 {
		return errors.New("dispatch.join_timeout must be > 0")
	}

	if c.Monitor.Enabled {
		if c.Monitor.Port < 1 || c.Monitor.Port > 65535 {
			return fmt.Errorf("monitor.port must be between 1 and 65535, got %d", c.Monitor.Port)
		}
	}

	if c.Record.Enabled {
		if err := c.Record.Database.validate("record.database"); err != nil {
			return err
		}
		if c.Record.BatchSize < 1 {
			return errors.New("record.batch_size must be >= 1")
		}
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
