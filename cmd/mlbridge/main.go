package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mlbridge/bridge"
	"github.com/wippyai/mlbridge/decl"
	"github.com/wippyai/mlbridge/engine"
	"github.com/wippyai/mlbridge/exports"
	"github.com/wippyai/mlbridge/heap"
	"github.com/wippyai/mlbridge/layout"
	"github.com/wippyai/mlbridge/natives"
)

func main() {
	var (
		decls       = flag.Bool("decls", false, "Print the module's external declarations and exit")
		witOut      = flag.Bool("wit", false, "Print the module as a WIT interface and exit")
		funcName    = flag.String("call", "", "Function to call")
		args        = flag.String("args", "", "Arguments as ';'-separated literals, e.g. '(\"a\", 1); [1; 2]'")
		configFile  = flag.String("config", "", "Path to a JSON config file")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	log := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		log = l
		setLoggers(l)
		defer l.Sync()
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *interactive:
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		err = runInteractive(cfg, log)
	case *witOut:
		err = decl.EmitWIT(os.Stdout, natives.ModuleName, natives.New(os.Stdout).Declarations())
	case *decls:
		err = run(cfg, log, os.Stdout, "", "")
	case *funcName != "":
		err = run(cfg, log, os.Stdout, *funcName, *args)
	default:
		fmt.Fprintln(os.Stderr, "Usage: mlbridge -decls | -wit")
		fmt.Fprintln(os.Stderr, "       mlbridge -call <func> [-args 'lit; lit']")
		fmt.Fprintln(os.Stderr, "       mlbridge -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "Common flags: -config file.json, -v")
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return config{}, fmt.Errorf("read config: %w", err)
	}
	return parseConfig(data)
}

func setLoggers(l *zap.Logger) {
	layout.SetLogger(l)
	heap.SetLogger(l)
	bridge.SetLogger(l)
	exports.SetLogger(l)
	engine.SetLogger(l)
}

// run prints the declarations when funcName is empty, and otherwise calls
// funcName and prints its result.
func run(cfg config, log *zap.Logger, out io.Writer, funcName, args string) error {
	ctx := context.Background()

	sess, err := newSession(ctx, cfg, natives.New(out), log)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.close(ctx)

	if funcName == "" {
		return sess.printModule(ctx)
	}

	result, typ, err := sess.call(ctx, funcName, args)
	if err != nil {
		return fmt.Errorf("call %s: %w", funcName, err)
	}
	fmt.Fprintf(out, "- : %s = %s\n", typ, result)
	return nil
}
