package emu

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// TLB geometry of the i860XR.
const (
	TLBWays        = 4
	DefaultTLBSize = 64

	tlbPageSize = 4096
	tlbPageMask = ^uint32(tlbPageSize - 1)
)

// tlbEntry keeps the page directory and page table entries that produced
// a translation so later hits can repeat the protection checks.
type tlbEntry struct {
	pde, pte uint32
}

// TLB caches page translations in a set-associative directory with LRU
// replacement. Entries are only dropped by Invalidate, so page table
// edits are not seen until software sets DIRBASE.ITI.
type TLB struct {
	directory *akitacache.DirectoryImpl
	entries   []tlbEntry

	hits, misses uint64
}

// NewTLB creates a TLB with the given number of entries. The size is
// rounded up to whole sets of TLBWays entries, with at least one set.
func NewTLB(size int) *TLB {
	sets := (size + TLBWays - 1) / TLBWays
	if sets < 1 {
		sets = 1
	}
	return &TLB{
		directory: akitacache.NewDirectory(sets, TLBWays, tlbPageSize,
			akitacache.NewLRUVictimFinder()),
		entries: make([]tlbEntry, sets*TLBWays),
	}
}

func (t *TLB) index(b *akitacache.Block) int {
	return b.SetID*TLBWays + b.WayID
}

func (t *TLB) lookup(vaddr uint32) (*tlbEntry, bool) {
	block := t.directory.Lookup(0, uint64(vaddr&tlbPageMask))
	if block == nil || !block.IsValid {
		t.misses++
		return nil, false
	}
	t.hits++
	t.directory.Visit(block)
	return &t.entries[t.index(block)], true
}

func (t *TLB) insert(vaddr, pde, pte uint32) {
	tag := uint64(vaddr & tlbPageMask)
	victim := t.directory.FindVictim(tag)
	if victim == nil {
		return
	}
	victim.Tag = tag
	victim.IsValid = true
	t.entries[t.index(victim)] = tlbEntry{pde: pde, pte: pte}
	t.directory.Visit(victim)
}

func (t *TLB) drop(vaddr uint32) {
	block := t.directory.Lookup(0, uint64(vaddr&tlbPageMask))
	if block != nil {
		block.IsValid = false
	}
}

// Invalidate drops every cached translation.
func (t *TLB) Invalidate() {
	t.directory.Reset()
}

// Size returns the number of entries.
func (t *TLB) Size() int {
	return len(t.entries)
}

// Stats returns the hit and miss counts.
func (t *TLB) Stats() (hits, misses uint64) {
	return t.hits, t.misses
}
