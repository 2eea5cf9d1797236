// Package config holds the simulator configuration and its JSON form.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

// Config holds the settings of a simulated board.
type Config struct {
	// MemorySize is the size of physical RAM in bytes, starting at
	// address 0. Default: 64 MiB.
	MemorySize uint64 `json:"memory_size"`

	// ROMBase is the physical address raw ROM images are loaded at.
	// Default: 0xFFF00000, so the reset vector 0xFFFFFF00 lies inside.
	ROMBase uint32 `json:"rom_base"`

	// ROMSize is the size of the ROM window. Default: 1 MiB.
	ROMSize uint64 `json:"rom_size"`

	// ConsoleMailboxes are the virtual addresses whose integer stores are
	// decoded as console commands.
	ConsoleMailboxes []uint32 `json:"console_mailboxes"`

	// SourceExceptionTraps makes frcp/frsqr on an invalid source trap when
	// FSR.FTE is set. Default: false.
	SourceExceptionTraps bool `json:"source_exception_traps"`

	// AlignmentTraps makes misaligned data accesses raise a data access
	// trap. Default: true.
	AlignmentTraps bool `json:"alignment_traps"`

	// TLBEntries is the number of cached translations, a multiple of 4.
	// Zero disables the TLB and walks the page tables on every access.
	TLBEntries int `json:"tlb_entries"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level"`

	// Trace logs every executed instruction at debug level.
	Trace bool `json:"trace"`

	// MaxInstructions stops Run after this many instructions. Zero means
	// no limit.
	MaxInstructions uint64 `json:"max_instructions"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		MemorySize:       64 << 20,
		ROMBase:          0xFFF00000,
		ROMSize:          1 << 20,
		ConsoleMailboxes: []uint32{0xF83FE800, 0xF80FF800},
		AlignmentTraps:   true,
		LogLevel:         "info",
	}
}

// Load reads a configuration from a JSON file. Fields missing from the
// file keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := Default()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return c, nil
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration for values the simulator cannot use.
func (c *Config) Validate() error {
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	if c.MemorySize > 1<<32 {
		return fmt.Errorf("memory_size must fit in the 32-bit address space")
	}
	if c.ROMSize == 0 {
		return fmt.Errorf("rom_size must be > 0")
	}
	if uint64(c.ROMBase)+c.ROMSize > 1<<32 {
		return fmt.Errorf("rom window must end within the 32-bit address space")
	}
	if c.MemorySize > uint64(c.ROMBase) {
		return fmt.Errorf("memory_size overlaps the rom window at 0x%08X", c.ROMBase)
	}
	if c.TLBEntries < 0 || c.TLBEntries%4 != 0 {
		return fmt.Errorf("tlb_entries must be a non-negative multiple of 4")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.ConsoleMailboxes = append([]uint32(nil), c.ConsoleMailboxes...)
	return &clone
}
