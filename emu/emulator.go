package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/config"
	"github.com/sarchlab/i860sim/insts"
	"github.com/sarchlab/i860sim/membus"
)

// Reset values.
const (
	ResetPC      uint32 = TrapVector
	resetPattern uint32 = 0x55AA5500
	resetEPSR    uint32 = 0x00040701 // XR type and stepping
	resetDIRBASE uint32 = DirbaseCS8
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once the core has stopped; Err tells why.
	Halted bool

	// Trapped is true if the step ended in trap entry.
	Trapped bool

	// Fault is the memory path that caused the trap, if any.
	Fault AccessKind

	// Err is set if the core halted or could not step.
	Err error
}

// Emulator executes i860XR instructions functionally.
type Emulator struct {
	regFile *RegFile
	bus     Bus
	host    Host
	log     *logrus.Entry
	cfg     *config.Config
	out     io.Writer

	decoder *insts.Decoder
	traps   *trapState
	mmu     *MMU
	memory  *Memory
	console *Console

	// Execution units
	alu *ALU
	lsu *LoadStoreUnit
	fpu *FPU

	// Per-instruction state
	pcUpdated   bool
	inDelaySlot bool

	firGetsTrapAddr bool
	intLatched      bool
	dim             int

	halted  bool
	haltErr error

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithBus sets the physical bus. Without it the emulator builds RAM and
// ROM from the configuration.
func WithBus(bus Bus) EmulatorOption {
	return func(e *Emulator) {
		e.bus = bus
	}
}

// WithHost sets the receiver of halt and breakpoint notifications.
func WithHost(host Host) EmulatorOption {
	return func(e *Emulator) {
		e.host = host
	}
}

// WithLogger sets the log entry every component logs through.
func WithLogger(log *logrus.Entry) EmulatorOption {
	return func(e *Emulator) {
		e.log = log
	}
}

// WithConfig sets the configuration. The emulator keeps its own copy.
func WithConfig(cfg *config.Config) EmulatorOption {
	return func(e *Emulator) {
		e.cfg = cfg.Clone()
	}
}

// WithConsole sets the writer console messages are appended to.
func WithConsole(w io.Writer) EmulatorOption {
	return func(e *Emulator) {
		e.out = w
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new i860XR emulator in its reset state.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		host:    nopHost{},
		log:     logrus.NewEntry(logrus.StandardLogger()),
		cfg:     config.Default(),
		out:     os.Stdout,
		decoder: insts.NewDecoder(),
		traps:   &trapState{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.bus == nil {
		e.bus = newDefaultBus(e.cfg, e.log)
	}
	if e.maxInstructions == 0 {
		e.maxInstructions = e.cfg.MaxInstructions
	}

	e.mmu = newMMU(e.regFile, e.bus, e.traps)
	if e.cfg.TLBEntries > 0 {
		e.mmu.SetTLB(NewTLB(e.cfg.TLBEntries))
	}

	e.console = NewConsole(e.out, e.host, e.log)
	if len(e.cfg.ConsoleMailboxes) > 0 {
		e.console.SetMailboxes(e.cfg.ConsoleMailboxes)
	}

	e.memory = newMemory(e.regFile, e.bus, e.mmu, e.traps)
	e.memory.console = e.console
	e.memory.alignmentTraps = e.cfg.AlignmentTraps

	e.fpu = newFPU(e.regFile, e.traps, e.log)
	e.fpu.sourceExceptionTraps = e.cfg.SourceExceptionTraps

	e.alu = NewALU(e.regFile)
	e.lsu = newLoadStoreUnit(e.regFile, e.memory, e.fpu, e.log)

	e.Reset()
	return e
}

// newDefaultBus maps RAM at address 0 and the ROM window.
func newDefaultBus(cfg *config.Config, log *logrus.Entry) Bus {
	bus := membus.New(log)
	if err := bus.MapRAM("ram", 0, cfg.MemorySize); err != nil {
		log.WithError(err).Error("mapping ram")
	}
	if err := bus.MapROM("rom", cfg.ROMBase, cfg.ROMSize); err != nil {
		log.WithError(err).Error("mapping rom")
	}
	return bus
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// FPU returns the floating-point unit.
func (e *Emulator) FPU() *FPU {
	return e.fpu
}

// Memory returns the emulator's view of memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// MMU returns the address translator.
func (e *Emulator) MMU() *MMU {
	return e.mmu
}

// Bus returns the physical bus.
func (e *Emulator) Bus() Bus {
	return e.bus
}

// Console returns the console mailbox decoder.
func (e *Emulator) Console() *Console {
	return e.console
}

// InstructionCount returns the number of instructions executed.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Halted reports whether the core has stopped.
func (e *Emulator) Halted() bool {
	return e.halted
}

// PendingTraps returns the traps raised by the last instruction run
// through Execute. Step consumes them during trap entry.
func (e *Emulator) PendingTraps() TrapFlags {
	return e.traps.pending
}

// DualInstructionMode returns the dual-instruction mode counter (0 to 2).
func (e *Emulator) DualInstructionMode() int {
	return e.dim
}

// Reset puts the core in its power-on state. Memory is left untouched.
func (e *Emulator) Reset() {
	rf := e.regFile

	rf.PC = ResetPC
	for i := range rf.R {
		rf.R[i] = resetPattern | uint32(i)
	}
	rf.R[0] = 0
	rf.F = [32]uint32{}

	rf.CR = [NumCRegs]uint32{}
	rf.CR[CRegFIR] = resetPattern
	rf.CR[CRegFSR] = resetPattern
	rf.CR[CRegEPSR] = resetEPSR
	rf.CR[CRegDIRBASE] = resetDIRBASE

	e.fpu.reset()
	e.fpu.Merge = uint64(resetPattern)

	if tlb := e.mmu.TLB(); tlb != nil {
		tlb.Invalidate()
	}

	e.traps.clear()
	e.pcUpdated = false
	e.inDelaySlot = false
	e.firGetsTrapAddr = false
	e.intLatched = false
	e.dim = 0
	e.halted = false
	e.haltErr = nil
	e.instructionCount = 0
}

// Step executes a single instruction and performs trap entry if it
// trapped. A pending external interrupt is taken before anything runs.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true, Err: ErrHalted}
	}
	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: ErrMaxInstructions}
	}

	pc := e.regFile.PC
	if e.intLatched {
		e.enterTrap(pc)
		return StepResult{Trapped: true}
	}

	e.traps.clear()
	word, ok := e.memory.Fetch(pc)
	if !ok {
		fault := e.traps.fault
		e.enterTrap(pc)
		return StepResult{Trapped: true, Fault: fault}
	}

	e.execute(word)
	e.instructionCount++

	if e.halted {
		return StepResult{Halted: true, Err: e.haltErr}
	}
	if e.traps.pending != 0 {
		fault := e.traps.fault
		e.enterTrap(pc)
		return StepResult{Trapped: true, Fault: fault}
	}
	return StepResult{}
}

// Run executes instructions until the core halts or the instruction
// limit is reached.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
	}
}

// Execute runs word as if it had been fetched from PC. There is no trap
// entry: raised traps stay visible through PendingTraps and PC is left
// at the faulting instruction.
func (e *Emulator) Execute(word uint32) StepResult {
	e.traps.clear()
	e.execute(word)
	e.instructionCount++

	return StepResult{
		Halted:  e.halted,
		Trapped: e.traps.pending != 0,
		Fault:   e.traps.fault,
		Err:     e.haltErr,
	}
}

// execute dispatches word and advances PC unless the instruction
// redirected it, trapped or halted.
func (e *Emulator) execute(word uint32) {
	e.pcUpdated = false
	e.dispatch(word)

	if !e.pcUpdated && e.traps.pending == 0 && !e.halted {
		e.regFile.PC += 4
	}
}

// dispatch decodes and executes one instruction without touching PC.
func (e *Emulator) dispatch(word uint32) {
	if word>>26 == insts.PrimaryFPEscape {
		e.updateDIM(word)
	}

	var inst insts.Instruction
	e.decoder.DecodeInto(word, &inst)

	handler := handlers[inst.Op]
	if handler == nil {
		e.unrecognized(&inst)
		return
	}

	if e.inDelaySlot && insts.IsControlTransfer(inst.Op) {
		e.log.WithFields(e.instFields(&inst)).Warn("control transfer in delay slot (ignored)")
		return
	}

	if e.cfg.Trace {
		e.log.WithFields(e.instFields(&inst)).Debug("exec")
	}

	handler(e, &inst)
}

func (e *Emulator) updateDIM(word uint32) {
	if word&insts.FPDualInst != 0 {
		if e.dim < 2 {
			e.dim++
		}
	} else if e.dim > 0 {
		e.dim--
	}
}

func (e *Emulator) unrecognized(inst *insts.Instruction) {
	e.log.WithFields(e.instFields(inst)).Error("unrecognized opcode")
	e.halt(fmt.Errorf("[%08X] %08X: %w", e.regFile.PC, inst.Word, ErrUnrecognizedOpcode))
}

func (e *Emulator) halt(err error) {
	if e.halted {
		return
	}
	e.halted = true
	e.haltErr = err
	e.host.Halt(err)
}

// enterTrap saves the trap state and vectors to the trap handler. fir is
// the address the handler returns to.
func (e *Emulator) enterTrap(fir uint32) {
	rf := e.regFile

	e.log.WithFields(logrus.Fields{
		"fir":   hex(fir),
		"psr":   hex(rf.CR[CRegPSR]),
		"fault": e.traps.fault.String(),
	}).Debug("trap")

	rf.CR[CRegFIR] = fir
	e.firGetsTrapAddr = true

	rf.SetPSRBit(PSRPU, rf.PSRBit(PSRU))
	rf.SetPSRBit(PSRPIM, rf.PSRBit(PSRIM))
	rf.CR[CRegPSR] &^= PSRU | PSRIM | PSRDIM | PSRDS

	rf.PC = TrapVector
	e.traps.clear()
	e.intLatched = false
}

// RaiseExternalInterrupt asserts the interrupt input. When interrupts are
// enabled the next Step enters the trap handler.
func (e *Emulator) RaiseExternalInterrupt() {
	e.regFile.SetEPSRBit(EPSRINT, true)
	if e.regFile.PSRBit(PSRIM) {
		e.regFile.SetPSRBit(PSRIN, true)
		e.intLatched = true
	}
}

// ClearInterrupt deasserts the interrupt input. An interrupt that has
// not been taken yet is dropped.
func (e *Emulator) ClearInterrupt() {
	e.regFile.SetEPSRBit(EPSRINT, false)
	if e.intLatched {
		e.intLatched = false
		e.regFile.SetPSRBit(PSRIN, false)
	}
}

func (e *Emulator) instFields(inst *insts.Instruction) logrus.Fields {
	return logrus.Fields{
		"pc":   hex(e.regFile.PC),
		"word": hex(inst.Word),
		"op":   inst.Op.String(),
	}
}

func hex(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
