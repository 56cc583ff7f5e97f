// Package config loads the simulator/debugger's optional JSON
// configuration file (§4.11), matching the defaults the simulator uses
// when no file is given.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds the simulator/debugger's tunable knobs.
type Config struct {
	// EnableDelaySlots turns on delay-slot semantics for jumps and
	// branches. Default: false, matching toolchain-assembled code.
	EnableDelaySlots bool `json:"enable_delay_slots"`

	// MemoryPageSize overrides the simulator's lazy-allocation page size,
	// in bytes. Default: 1 MiB (1048576).
	MemoryPageSize uint32 `json:"memory_page_size"`

	// StdinBufferSize sizes the buffered reader wrapping READ_INT/READ_STR's
	// stdin. Default: 4096.
	StdinBufferSize int `json:"stdin_buffer_size"`

	// StdoutUnbuffered disables buffering on PRINT_INT/PRINT_STR's writer
	// when true. Default: false.
	StdoutUnbuffered bool `json:"stdout_unbuffered"`
}

// defaultPageSize matches emu.DefaultPageSize; duplicated here rather
// than imported so config has no dependency on the simulator package.
const defaultPageSize = 1 << 20

// Default returns the configuration the simulator uses when no file is
// given, exactly matching §4.8.
func Default() *Config {
	return &Config{
		EnableDelaySlots: false,
		MemoryPageSize:   defaultPageSize,
		StdinBufferSize:  4096,
		StdoutUnbuffered: false,
	}
}

// Load reads a JSON configuration file, starting from Default and
// overlaying whichever fields path's JSON sets.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as indented JSON.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: serialize: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate rejects a page size that is zero or not a power of two, the
// only shape the memory model's masking arithmetic can use.
func (c *Config) Validate() error {
	if c.MemoryPageSize == 0 || c.MemoryPageSize&(c.MemoryPageSize-1) != 0 {
		return fmt.Errorf("config: memory_page_size must be a nonzero power of two, got %d", c.MemoryPageSize)
	}
	if c.StdinBufferSize <= 0 {
		return fmt.Errorf("config: stdin_buffer_size must be > 0")
	}
	return nil
}
