package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ga68/genie/internal/coerce"
	"github.com/ga68/genie/internal/diag"
	"github.com/ga68/genie/internal/genie"
	"github.com/ga68/genie/internal/lexer"
	"github.com/ga68/genie/internal/mode"
	"github.com/ga68/genie/internal/modecheck"
	"github.com/ga68/genie/internal/node"
	"github.com/ga68/genie/internal/parser"
	"github.com/ga68/genie/internal/prelude"
	"github.com/ga68/genie/internal/repl"
	"github.com/ga68/genie/internal/runtime"
	"github.com/ga68/genie/internal/session"
	"github.com/ga68/genie/internal/soid"
)

var (
	// Version info, set by ldflags during build.
	Version = "dev"
	Commit  = "unknown"

	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func main() {
	cfg := session.DefaultConfig()
	var (
		checkFlag     = flag.Bool("check", false, "type-check only, do not run (--norun is an alias)")
		norunFlag     = flag.Bool("norun", false, "alias for --check")
		strictFlag    = flag.Bool("strict", false, "reject non-portable extensions")
		portcheckFlag = flag.Bool("portcheck", false, "warn on constructs a68g would treat as non-standard")
		stackFlag     = flag.Int("stack", cfg.StackSize, "expression stack size, in values")
		frameFlag     = flag.Int("frame", cfg.FrameSize, "frame stack depth")
		heapFlag      = flag.Int("heap", cfg.HeapSize, "heap size, in cells")
		handlesFlag   = flag.Int("handles", cfg.HandleCount, "maximum open transput handles")
		traceFlag     = flag.Bool("trace", false, "trace propagator dispatch to stderr")
		debugFlag     = flag.Bool("debug", false, "enable debug diagnostics")
		monitorFlag   = flag.String("monitor", "", "break at FILE:LINE and drop into the interactive monitor")
		timelimit     = flag.Duration("timelimit", 0, "abort execution after the given duration")
		regressFlag   = flag.Bool("regression-test", false, "seed the RNG from 1 for reproducible runs")
		quietFlag     = flag.Bool("quiet", false, "suppress the banner and informational output")
		noWarnFlag    = flag.Bool("nowarnings", false, "suppress warning-severity diagnostics")
		backtraceFlag = flag.Bool("backtrace", false, "print the frame stack on an unhandled runtime error")
		versionFlag   = flag.Bool("version", false, "print version information")
		configFlag    = flag.String("config", "", "YAML file of segment-size and run-mode defaults, overridden by any flag given explicitly")
	)
	flag.Parse()

	if *configFlag != "" {
		fc, err := session.LoadFileConfig(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
			os.Exit(session.ExitSyntaxError.ExitCode())
		}
		if err := fc.ApplyTo(&cfg); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
			os.Exit(session.ExitSyntaxError.ExitCode())
		}
	}
	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	if *versionFlag {
		fmt.Printf("%s %s (%s)\n", bold("ga68"), Version, Commit)
		return
	}
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file.a68>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(session.ExitSyntaxError.ExitCode())
	}

	if explicit["check"] || explicit["norun"] {
		cfg.Check = *checkFlag || *norunFlag
	}
	if explicit["strict"] {
		cfg.Strict = *strictFlag
	}
	if explicit["portcheck"] {
		cfg.PortCheck = *portcheckFlag
	}
	if explicit["stack"] {
		cfg.StackSize = *stackFlag
	}
	if explicit["frame"] {
		cfg.FrameSize = *frameFlag
	}
	if explicit["heap"] {
		cfg.HeapSize = *heapFlag
	}
	if explicit["handles"] {
		cfg.HandleCount = *handlesFlag
	}
	cfg.Trace = *traceFlag
	cfg.Debug = *debugFlag
	cfg.Monitor = *monitorFlag != ""
	if explicit["timelimit"] {
		cfg.TimeLimit = *timelimit
	}
	if explicit["regression-test"] {
		cfg.RegressionTest = *regressFlag
	}
	if explicit["quiet"] {
		cfg.Quiet = *quietFlag
	}
	if explicit["nowarnings"] {
		cfg.NoWarnings = *noWarnFlag
	}
	if explicit["backtrace"] {
		cfg.Backtrace = *backtraceFlag
	}

	filename := flag.Arg(0)
	source, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", red("error"), filename, err)
		os.Exit(session.ExitSyntaxError.ExitCode())
	}

	var breakLine int
	if cfg.Monitor {
		breakLine, err = parseMonitorSpec(*monitorFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: --monitor: %v\n", red("error"), err)
			os.Exit(session.ExitSyntaxError.ExitCode())
		}
	}

	exitKind := run(string(lexer.Normalize(source)), filename, cfg, breakLine)
	os.Exit(exitKind.ExitCode())
}

// parseMonitorSpec accepts "file:line" or a bare line number against
// the program being run (spec.md §6 --monitor).
func parseMonitorSpec(spec string) (int, error) {
	s := spec
	if idx := strings.LastIndex(spec, ":"); idx >= 0 {
		s = spec[idx+1:]
	}
	line, err := strconv.Atoi(s)
	if err != nil || line <= 0 {
		return 0, fmt.Errorf("expected FILE:LINE or LINE, got %q", spec)
	}
	return line, nil
}

// run drives one parse/check/execute cycle. When the monitor issues a
// rerun (spec.md §7 "Rerun request") it calls itself again on the same
// source text, so the program is re-parsed and re-checked from
// scratch rather than resumed on the old tree. It returns the ExitKind
// the process should report.
func run(source, filename string, cfg session.Config, breakLine int) session.ExitKind {
	sess := session.New(cfg)
	preludeTable := node.NewSymbolTable(nil)
	prelude.Install(sess.Modes, preludeTable)
	prelude.InstallTransput(sess.Modes, preludeTable, os.Stdout)

	l := lexer.New(source, filename)
	p := parser.New(l, sess, preludeTable)
	result, err := p.ParseProgram()
	if err != nil || sess.Diag.HasErrors() {
		printDiagnostics(sess, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		}
		return session.ExitSyntaxError
	}

	root := result.Root
	checker := modecheck.New(sess)
	voidMode := sess.Modes.Sentinel(mode.NameVoid)
	checker.Check(root, soid.Strong(voidMode))
	if sess.Diag.HasErrors() {
		printDiagnostics(sess, cfg)
		return session.ExitModeError
	}
	if cfg.Debug || cfg.PortCheck {
		printDiagnostics(sess, cfg)
	}

	inserter := coerce.New(sess)
	root = inserter.Insert(root)

	if cfg.Check {
		if !cfg.Quiet {
			fmt.Println(green("ok") + ": type-check passed, --check given, not running")
		}
		return session.ExitNormal
	}

	engine := genie.New(sess, preludeTable)
	engine.Prepare(root)

	global := runtime.NewFrame(0, -1, -1, 0, 0, result.FrameSize)
	if err := sess.Frames.Push(global); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		return session.ExitRuntimeError
	}

	var mon *repl.Monitor
	if cfg.Monitor {
		repl.Break(root, breakLine)
		mon = repl.New(sess, os.Stdout)
		engine.Monitor = mon.Hook
		defer mon.Close()
	}

	var cancel func()
	if cfg.TimeLimit > 0 {
		timer := time.AfterFunc(cfg.TimeLimit, func() { sess.Abort = true })
		cancel = func() { timer.Stop() }
	}

	_, runErr := engine.Run(root)
	if cancel != nil {
		cancel()
	}

	if runErr != nil {
		if _, ok := runErr.(*genie.RerunRequestedError); ok {
			return run(source, filename, cfg, breakLine)
		}
		if _, ok := runErr.(*genie.ForcedQuitError); ok {
			fmt.Fprintln(os.Stderr, yellow("forced quit"))
			return session.ExitForcedQuit
		}
		if r, ok := diag.AsReport(runErr); ok {
			printReport(r)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", red("runtime error"), runErr)
		}
		if cfg.Backtrace {
			dumpBacktrace(sess)
		}
		return session.ExitRuntimeError
	}

	return session.ExitNormal
}

func dumpBacktrace(sess *session.Session) {
	frames := sess.Frames.Frames()
	fmt.Fprintln(os.Stderr, yellow("backtrace:"))
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		fmt.Fprintf(os.Stderr, "  #%d static=%d dynamic=%d level=%d\n", f.Index, f.StaticLink, f.DynamicLink, f.LexicalLevel)
	}
}

func printDiagnostics(sess *session.Session, cfg session.Config) {
	for _, r := range sess.Diag.Reports() {
		if cfg.NoWarnings && r.Severity == diag.SeverityWarning {
			continue
		}
		printReport(r)
	}
	if n := sess.Diag.Suppressed(); n > 0 {
		fmt.Fprintf(os.Stderr, "%s: %d further diagnostics suppressed\n", yellow("note"), n)
	}
}

func printReport(r *diag.Report) {
	pos := ""
	if r.Pos != nil {
		pos = r.Pos.String() + ": "
	}
	var label string
	switch r.Severity {
	case diag.SeverityWarning:
		label = yellow("warning")
	default:
		label = red(string(r.Severity))
	}
	fmt.Fprintf(os.Stderr, "%s%s [%s]: %s\n", pos, label, r.Code, r.Message)
}
