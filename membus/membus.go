// Package membus provides the physical memory map of a simulated i860
// board, backed by Akita storage.
package membus

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/sarchlab/akita/v4/mem/mem"
	"github.com/sirupsen/logrus"
)

// region is a contiguous window of physical addresses.
type region struct {
	name     string
	base     uint32
	size     uint64
	storage  *mem.Storage
	readOnly bool
}

func (r *region) contains(addr uint32) bool {
	return addr >= r.base && uint64(addr-r.base) < r.size
}

// Bus routes physical accesses to RAM and ROM regions. Reads from
// unmapped addresses return zero and writes to them are dropped.
type Bus struct {
	regions []*region
	log     *logrus.Entry
}

// New creates an empty bus.
func New(log *logrus.Entry) *Bus {
	return &Bus{log: log}
}

// MapRAM adds a writable region.
func (b *Bus) MapRAM(name string, base uint32, size uint64) error {
	return b.add(&region{name: name, base: base, size: size})
}

// MapROM adds a region that only Load can write.
func (b *Bus) MapROM(name string, base uint32, size uint64) error {
	return b.add(&region{name: name, base: base, size: size, readOnly: true})
}

func (b *Bus) add(r *region) error {
	if r.size == 0 || uint64(r.base)+r.size > 1<<32 {
		return fmt.Errorf("region %s: invalid window 0x%08X+0x%X", r.name, r.base, r.size)
	}
	for _, o := range b.regions {
		if uint64(r.base) < uint64(o.base)+o.size && uint64(o.base) < uint64(r.base)+r.size {
			return fmt.Errorf("region %s overlaps %s", r.name, o.name)
		}
	}

	r.storage = mem.NewStorage(r.size)
	b.regions = append(b.regions, r)
	sort.Slice(b.regions, func(i, j int) bool {
		return b.regions[i].base < b.regions[j].base
	})
	return nil
}

func (b *Bus) find(addr uint32) *region {
	for _, r := range b.regions {
		if r.contains(addr) {
			return r
		}
	}
	return nil
}

// Load copies data into memory at addr, including ROM regions.
func (b *Bus) Load(addr uint32, data []byte) error {
	for len(data) > 0 {
		r := b.find(addr)
		if r == nil {
			return fmt.Errorf("load at 0x%08X: address not mapped", addr)
		}
		off := uint64(addr - r.base)
		n := uint64(len(data))
		if n > r.size-off {
			n = r.size - off
		}
		if err := r.storage.Write(off, data[:n]); err != nil {
			return fmt.Errorf("load at 0x%08X: %w", addr, err)
		}
		data = data[n:]
		addr += uint32(n)
	}
	return nil
}

// ReadBlock copies len(dst) bytes starting at addr into dst.
func (b *Bus) ReadBlock(addr uint32, dst []byte) {
	r := b.find(addr)
	if r != nil && uint64(addr-r.base)+uint64(len(dst)) <= r.size {
		data, err := r.storage.Read(uint64(addr-r.base), uint64(len(dst)))
		if err == nil {
			copy(dst, data)
			return
		}
	}

	for i := range dst {
		dst[i] = b.readByte(addr + uint32(i))
	}
}

func (b *Bus) readByte(addr uint32) byte {
	r := b.find(addr)
	if r == nil {
		b.log.WithField("addr", fmt.Sprintf("0x%08X", addr)).Debug("read from unmapped address")
		return 0
	}
	data, err := r.storage.Read(uint64(addr-r.base), 1)
	if err != nil {
		b.log.WithError(err).WithFields(logrus.Fields{
			"addr":   fmt.Sprintf("0x%08X", addr),
			"region": r.name,
		}).Error("storage read failed")
		return 0
	}
	return data[0]
}

// WriteBlock copies src to memory starting at addr.
func (b *Bus) WriteBlock(addr uint32, src []byte) {
	r := b.find(addr)
	if r != nil && !r.readOnly && uint64(addr-r.base)+uint64(len(src)) <= r.size {
		if err := r.storage.Write(uint64(addr-r.base), src); err == nil {
			return
		}
	}

	for i, v := range src {
		b.writeByte(addr+uint32(i), v)
	}
}

func (b *Bus) writeByte(addr uint32, v byte) {
	r := b.find(addr)
	switch {
	case r == nil:
		b.log.WithField("addr", fmt.Sprintf("0x%08X", addr)).Debug("write to unmapped address")
	case r.readOnly:
		b.log.WithFields(logrus.Fields{
			"addr":   fmt.Sprintf("0x%08X", addr),
			"region": r.name,
		}).Warn("write to read-only region dropped")
	default:
		if err := r.storage.Write(uint64(addr-r.base), []byte{v}); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"addr":   fmt.Sprintf("0x%08X", addr),
				"region": r.name,
			}).Error("storage write failed")
		}
	}
}

// Read returns a 1, 2 or 4 byte value stored at addr in the given byte
// order.
func (b *Bus) Read(addr uint32, size int, order binary.ByteOrder) uint32 {
	var buf [4]byte
	b.ReadBlock(addr, buf[:size])

	switch size {
	case 1:
		return uint32(buf[0])
	case 2:
		return uint32(order.Uint16(buf[:2]))
	default:
		return order.Uint32(buf[:4])
	}
}

// Write stores the low size bytes of v at addr in the given byte order.
func (b *Bus) Write(addr uint32, size int, v uint32, order binary.ByteOrder) {
	var buf [4]byte

	switch size {
	case 1:
		buf[0] = byte(v)
	case 2:
		order.PutUint16(buf[:2], uint16(v))
	default:
		order.PutUint32(buf[:4], v)
	}
	b.WriteBlock(addr, buf[:size])
}
