package emu

import "math"

// Stage is one pipeline slot or holding register. It carries 64 raw bits
// and a tag telling whether they hold a double. A single occupies the low
// 32 bits; writing one leaves the high bits untouched.
type Stage struct {
	Bits   uint64
	Double bool
}

func (s *Stage) setSingle(bits uint32) {
	s.Bits = s.Bits&^0xFFFFFFFF | uint64(bits)
	s.Double = false
}

func (s *Stage) setDouble(bits uint64) {
	s.Bits = bits
	s.Double = true
}

func (s *Stage) set(bits uint64, double bool) {
	if double {
		s.setDouble(bits)
	} else {
		s.setSingle(uint32(bits))
	}
}

// raw reads the stage at the given precision regardless of its tag.
func (s Stage) raw(double bool) uint64 {
	if double {
		return s.Bits
	}
	return s.Bits & 0xFFFFFFFF
}

// tagged reads the stage at the given precision, or 0 when the tag does
// not match.
func (s Stage) tagged(double bool) uint64 {
	if s.Double != double {
		return 0
	}
	return s.raw(double)
}

// Float64 interprets the stage as a double.
func (s Stage) Float64() float64 {
	return math.Float64frombits(s.Bits)
}

// Float32 interprets the low word of the stage as a single.
func (s Stage) Float32() float32 {
	return math.Float32frombits(uint32(s.Bits))
}

// PipelineDepth is the number of stages held by every pipeline array.
const PipelineDepth = 3

// Pipeline is a fixed array of stages. Stage 0 receives new results.
type Pipeline struct {
	stages [PipelineDepth]Stage
}

// Stage returns stage i.
func (p *Pipeline) Stage(i int) Stage {
	return p.stages[i]
}

// advance shifts the first depth stages one step toward the end and
// writes the new result into stage 0.
func (p *Pipeline) advance(depth int, bits uint64, double bool) {
	for i := depth - 1; i > 0; i-- {
		p.stages[i] = p.stages[i-1]
	}
	p.stages[0].set(bits, double)
}

func (p *Pipeline) reset() {
	p.stages = [PipelineDepth]Stage{}
}
