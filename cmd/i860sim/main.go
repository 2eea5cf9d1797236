// Package main provides the command-line front end for i860sim, an
// instruction-set simulator for the Intel i860XR.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/i860sim/config"
	"github.com/sarchlab/i860sim/emu"
	"github.com/sarchlab/i860sim/loader"
	"github.com/sarchlab/i860sim/membus"
)

var (
	configPath = flag.String("config", "", "Path to board configuration JSON file")
	romPath    = flag.String("rom", "", "Raw ROM image loaded at the configured ROM base")
	maxInstr   = flag.Uint64("max-instructions", 0, "Stop after this many instructions (0 = use config)")
	logLevel   = flag.String("log-level", "", "Log level, overriding the config")
	trace      = flag.Bool("trace", false, "Log every executed instruction at debug level")
	tlbEntries = flag.Int("tlb", -1, "Number of TLB entries (-1 = use config, 0 = off)")
	cpuProfile = flag.String("cpuprofile", "", "Write a CPU profile to file")
	verbose    = flag.Bool("v", false, "Print a register summary when the run ends")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 && *romPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: i860sim [options] [program.elf]\n")
		fmt.Fprintf(os.Stderr, "\nAt least one of -rom or an ELF program is required.\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	cfg, err := buildConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %v\n", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error starting CPU profile: %v\n", err)
			os.Exit(1)
		}
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	code := run(cfg, flag.Arg(0), *romPath, os.Stdout, logrus.NewEntry(logger))
	pprof.StopCPUProfile()
	os.Exit(code)
}

// buildConfig loads the configuration file, if any, and applies the
// command-line overrides.
func buildConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return nil, err
		}
	}

	if *maxInstr != 0 {
		cfg.MaxInstructions = *maxInstr
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *trace {
		cfg.Trace = true
	}
	if *tlbEntries >= 0 {
		cfg.TLBEntries = *tlbEntries
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// run simulates until the core halts, the board kernel exits or the
// instruction limit is reached, and returns the process exit code.
func run(cfg *config.Config, elfPath, rom string, out io.Writer, log *logrus.Entry) int {
	s, err := newSession(cfg, elfPath, rom, out, log)
	if err != nil {
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}

	err = s.run()

	if *verbose {
		printSummary(out, s.emulator)
	}

	switch {
	case err == nil:
		fmt.Fprintf(out, "Kernel exited after %d instructions\n", s.emulator.InstructionCount())
		return 0
	case errors.Is(err, emu.ErrMaxInstructions):
		fmt.Fprintf(out, "Stopped after %d instructions\n", s.emulator.InstructionCount())
		return 0
	default:
		fmt.Fprintf(out, "Halted: %v\n", err)
		return 2
	}
}

// cliHost turns core side effects into log records and notes when the
// board kernel reports that it exited.
type cliHost struct {
	log    *logrus.Entry
	exited bool
}

func (h *cliHost) Halt(reason error) {
	h.log.WithError(reason).Warn("core halted")
}

func (h *cliHost) Breakpoint(kind emu.BreakKind, msg string) {
	h.log.WithField("kind", string(kind)).Info(msg)
	if kind == emu.BreakKernel && msg == "NeXTdimension Exit" {
		h.exited = true
	}
}

// session is a configured board ready to run.
type session struct {
	emulator *emu.Emulator
	host     *cliHost
}

func newSession(cfg *config.Config, elfPath, rom string, out io.Writer, log *logrus.Entry) (*session, error) {
	bus := membus.New(log)
	if err := bus.MapRAM("ram", 0, cfg.MemorySize); err != nil {
		return nil, err
	}
	if err := bus.MapROM("rom", cfg.ROMBase, cfg.ROMSize); err != nil {
		return nil, err
	}

	if rom != "" {
		n, err := loader.LoadROM(rom, bus, cfg.ROMBase)
		if err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"path": rom,
			"size": n,
			"base": fmt.Sprintf("0x%08X", cfg.ROMBase),
		}).Info("loaded ROM image")
	}

	host := &cliHost{log: log}
	e := emu.NewEmulator(
		emu.WithBus(bus),
		emu.WithConfig(cfg),
		emu.WithHost(host),
		emu.WithLogger(log),
		emu.WithConsole(out),
	)

	if elfPath != "" {
		prog, err := loader.Load(elfPath)
		if err != nil {
			return nil, fmt.Errorf("loading program: %w", err)
		}
		if err := prog.LoadInto(bus); err != nil {
			return nil, fmt.Errorf("loading program: %w", err)
		}
		e.RegFile().PC = prog.EntryPoint
		e.RegFile().SetEPSRBit(emu.EPSRBE, prog.BigEndian)
		log.WithFields(logrus.Fields{
			"path":     elfPath,
			"entry":    fmt.Sprintf("0x%08X", prog.EntryPoint),
			"segments": len(prog.Segments),
		}).Info("loaded program")
	}

	return &session{emulator: e, host: host}, nil
}

func (s *session) run() error {
	for !s.host.exited {
		if result := s.emulator.Step(); result.Err != nil {
			return result.Err
		}
	}
	return nil
}

func printSummary(w io.Writer, e *emu.Emulator) {
	rf := e.RegFile()

	fmt.Fprintf(w, "PC: 0x%08X  instructions: %d\n", rf.PC, e.InstructionCount())
	for i := 0; i < 32; i += 4 {
		fmt.Fprintf(w, "r%-2d 0x%08X  r%-2d 0x%08X  r%-2d 0x%08X  r%-2d 0x%08X\n",
			i, rf.R[i], i+1, rf.R[i+1], i+2, rf.R[i+2], i+3, rf.R[i+3])
	}
	fmt.Fprintf(w, "psr 0x%08X  epsr 0x%08X  fsr 0x%08X  dirbase 0x%08X\n",
		rf.CR[emu.CRegPSR], rf.CR[emu.CRegEPSR], rf.CR[emu.CRegFSR], rf.CR[emu.CRegDIRBASE])
}
