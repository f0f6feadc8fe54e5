// Package main provides the optimizer entry point.
//
// This runs the optimization pipeline over a Bril program:
// 1. Load the JSON program (stdin or -i file)
// 2. Split every function into basic blocks and build the CFG
// 3. Run the selected passes (remove_unreachable_blocks, dce, lvn_dce)
// 4. Write the linearized program as JSON, or the CFG dump with -d
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/hassan/brilopt/internal/bril"
	"github.com/hassan/brilopt/internal/ir"
	"github.com/hassan/brilopt/internal/optimizer"
)

type config struct {
	passes  []optimizer.Pass
	debug   bool
	verbose bool
	topics  string
	input   string
	output  string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	setupLogger(cfg.verbose, cfg.topics, stderr)

	tr := tlog.Start("brilopt", "passes", fmt.Sprint(cfg.passes), "debug", cfg.debug)
	defer tr.Finish()

	ctx := tlog.ContextWithSpan(context.Background(), tr)

	if err := optimize(ctx, cfg, stdin, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("brilopt", flag.ContinueOnError)
	fs.SetOutput(stderr)

	passes := fs.String("p", "", "comma-separated passes to run (remove_unreachable_blocks, dce, lvn_dce); all by default")
	debug := fs.Bool("d", false, "print the optimized CFG instead of the program")
	verbose := fs.Bool("v", false, "log pass progress to stderr")
	topics := fs.String("topics", "", "extra debug topics to log, e.g. dump_func (implies -v)")
	input := fs.String("i", "", "input file (default stdin)")
	output := fs.String("o", "", "output file (default stdout)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, errors.New("unexpected arguments: %v", fs.Args())
	}

	list, err := optimizer.ParsePasses(*passes)
	if err != nil {
		return nil, err
	}

	return &config{
		passes:  list,
		debug:   *debug,
		verbose: *verbose || *topics != "",
		topics:  *topics,
		input:   *input,
		output:  *output,
	}, nil
}

func setupLogger(verbose bool, topics string, stderr io.Writer) {
	if !verbose {
		tlog.DefaultLogger = tlog.New(io.Discard)
		return
	}

	tlog.DefaultLogger = tlog.New(tlog.NewConsoleWriter(stderr, tlog.LstdFlags))
	tlog.SetVerbosity(topics)
}

func optimize(ctx context.Context, cfg *config, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	tr := tlog.SpanFromContext(ctx)

	in := stdin
	if cfg.input != "" {
		f, err := os.Open(cfg.input)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()

		in = f
	}

	program, err := bril.Decode(in)
	if err != nil {
		return err
	}

	tr.Printw("program loaded", "funcs", len(program.Functions))

	prog := ir.NewProgram(program)
	if err := prog.BuildCFG(); err != nil {
		return errors.Wrap(err, "build cfg")
	}

	opt := optimizer.New(cfg.passes...)
	opt.SetVerbose(cfg.verbose)

	if err := opt.Optimize(ctx, prog); err != nil {
		return errors.Wrap(err, "optimize")
	}

	stats := opt.Stats()
	tr.Printw("optimization done",
		"blocks_removed", stats.BlocksRemoved,
		"instrs_removed", stats.InstructionsRemoved,
		"instrs_rewritten", stats.InstructionsRewritten)

	if cfg.verbose {
		fmt.Fprint(stderr, stats.String())
	}

	out := stdout
	if cfg.output != "" {
		f, err := os.Create(cfg.output)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		defer func() {
			if e := f.Close(); err == nil && e != nil {
				err = errors.Wrap(e, "close output")
			}
		}()

		out = f
	}

	if cfg.debug {
		_, err = io.WriteString(out, prog.String())
		return err
	}

	return bril.Encode(out, prog.Linearize())
}
