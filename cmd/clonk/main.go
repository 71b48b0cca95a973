// Package main is the clonk command-line driver: it wires the lexer,
// parser, and IR builder together and reports diagnostics the way the
// component design's error-handling section specifies.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/clonk-lang/clonk/internal/diag"
	"github.com/clonk-lang/clonk/internal/ir"
	"github.com/clonk-lang/clonk/internal/lexer"
	"github.com/clonk-lang/clonk/internal/parser"
	"github.com/clonk-lang/clonk/internal/parser/ast"
)

type options struct {
	printAST   bool
	parseOnly  bool
	printIR    bool
	instSelect bool
	printTimes bool
	outputPath string
}

func main() {
	klog.InitFlags(flag.CommandLine)
	defer klog.Flush()

	opts := &options{}
	root := &cobra.Command{
		Use:   "clonk SOURCE",
		Short: "clonk compiles a single clonk source file to SSA IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts, args[0])
		},
		SilenceUsage: true,
	}

	flags := root.Flags()
	flags.BoolVarP(&opts.printAST, "ast", "a", false, "print the AST as S-expressions")
	flags.BoolVarP(&opts.parseOnly, "check", "c", false, "parse only; exit status reports errors")
	flags.BoolVarP(&opts.printIR, "ir", "l", false, "print the textual SSA IR")
	flags.BoolVarP(&opts.instSelect, "select", "s", false, "run instruction selection (future work, not implemented)")
	flags.BoolVarP(&opts.printTimes, "bench", "b", false, "print parse time and IR-construction time")
	flags.StringVarP(&opts.outputPath, "output", "o", "", "write output to this file instead of standard output")
	root.MarkFlagsMutuallyExclusive("ast", "check", "ir", "select")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)

	if err := root.Execute(); err != nil {
		klog.Errorf("clonk: %v", err)
		os.Exit(1)
	}
}

func run(opts *options, sourcePath string) error {
	source, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", sourcePath, err)
	}

	out := os.Stdout
	if opts.outputPath != "" {
		f, err := os.Create(opts.outputPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", opts.outputPath, err)
		}
		defer f.Close()
		out = f
	}

	diags := diag.New()

	klog.V(1).Infof("lexing and parsing %s", sourcePath)
	parseStart := time.Now()
	ts := lexer.New(string(source), sourcePath, diags)
	prog := parser.New(ts, diags).ParseProgram()
	parseElapsed := time.Since(parseStart)
	klog.V(2).Infof("parsed %d function(s), %d extern(s)", len(prog.Functions), len(prog.Externs))

	if diags.HasErrors() {
		diags.WriteTo(os.Stderr)
		return fmt.Errorf("%s failed to parse", sourcePath)
	}

	if opts.parseOnly {
		if opts.printTimes {
			klog.Infof("parse: %fs", parseElapsed.Seconds())
		}
		return nil
	}

	if opts.printAST {
		fmt.Fprintln(out, ast.PrintProgram(prog))
		if opts.printTimes {
			klog.Infof("parse: %fs", parseElapsed.Seconds())
		}
		return nil
	}

	if opts.instSelect {
		return fmt.Errorf("-s (instruction selection) is not implemented; it is future work")
	}

	klog.V(1).Infof("building SSA IR for %s", sourcePath)
	irStart := time.Now()
	mod := ir.NewBuilder(diags).Build(prog)
	irElapsed := time.Since(irStart)

	if diags.HasErrors() {
		diags.WriteTo(os.Stderr)
		return fmt.Errorf("%s failed IR construction", sourcePath)
	}

	if opts.printIR {
		fmt.Fprint(out, ir.Print(mod))
	}

	if opts.printTimes {
		klog.Infof("parse: %fs, ir: %fs", parseElapsed.Seconds(), irElapsed.Seconds())
	}
	return nil
}
