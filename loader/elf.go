// Package loader places i860 ELF executables and raw ROM images into
// simulated memory.
package loader

import (
	"debug/elf"
	"fmt"
	"io"
	"os"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// Target is the memory a program is loaded into. Addresses are physical.
type Target interface {
	Load(addr uint32, data []byte) error
}

// Segment represents a loadable segment from an ELF binary.
type Segment struct {
	// VirtAddr is the address the program expects the segment at.
	VirtAddr uint32
	// PhysAddr is where the segment is placed in physical memory.
	PhysAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a parsed i860 executable.
type Program struct {
	// EntryPoint is the address execution should begin at.
	EntryPoint uint32
	// BigEndian is set when the file's data is big-endian, in which case
	// the core should run with EPSR.BE set.
	BigEndian bool
	// Segments contains all loadable segments from the ELF file.
	Segments []Segment
}

// Load parses an i860 ELF32 executable.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}
	if f.Machine != elf.EM_860 {
		return nil, fmt.Errorf("not an i860 ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		BigEndian:  f.Data == elf.ELFDATA2MSB,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}
		if phdr.Filesz > phdr.Memsz {
			return nil, fmt.Errorf("segment at 0x%x: file size 0x%x exceeds memory size 0x%x",
				phdr.Vaddr, phdr.Filesz, phdr.Memsz)
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			PhysAddr: uint32(phdr.Paddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// LoadInto copies every segment to its physical address and zero-fills
// the remainder of each segment's memory image.
func (p *Program) LoadInto(t Target) error {
	for _, seg := range p.Segments {
		image := make([]byte, seg.MemSize)
		copy(image, seg.Data)
		if len(image) == 0 {
			continue
		}
		if err := t.Load(seg.PhysAddr, image); err != nil {
			return fmt.Errorf("segment at 0x%08x: %w", seg.VirtAddr, err)
		}
	}
	return nil
}

// LoadROM copies a raw image file to base.
func LoadROM(path string, t Target, base uint32) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read ROM image: %w", err)
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("ROM image %s is empty", path)
	}
	if err := t.Load(base, data); err != nil {
		return 0, fmt.Errorf("failed to load ROM image: %w", err)
	}
	return len(data), nil
}
