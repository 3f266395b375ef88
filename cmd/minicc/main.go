package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/oisee/minicc/pkg/diag"
	"github.com/oisee/minicc/pkg/ir"
	"github.com/oisee/minicc/pkg/parser"
	"github.com/oisee/minicc/pkg/pipeline"
	"github.com/spf13/cobra"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if in, ok := r.(*diag.Internal); ok {
				fmt.Fprintln(os.Stderr, in.Error())
				os.Exit(2)
			}
			panic(r)
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "minicc",
		Short: "minicc — a small AOT compiler backend for a C-like language",
	}

	var output string
	var verbose bool

	compileCmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a source file to x86-64 assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := parseFile(args[0])
			if err != nil {
				return err
			}

			asm, err := compileAll(prog, pipeline.Config{Verbose: verbose})
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Print(asm)
				return nil
			}
			return os.WriteFile(output, []byte(asm), 0644)
		},
	}
	compileCmd.Flags().StringVarP(&output, "output", "o", "", "Output assembly file path (default: stdout)")
	compileCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print one line per pipeline stage")

	var dumpStage string

	dumpCmd := &cobra.Command{
		Use:   "dump [file]",
		Short: "Dump a procedure's IR after a given pipeline stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := parseFile(args[0])
			if err != nil {
				return err
			}
			for _, g := range prog.Procs {
				fmt.Printf("-- %s (after %s) --\n", g.Name, dumpStage)
				if dumpStage == "parse" {
					g.Dump(os.Stdout)
					continue
				}
				res := pipeline.Compile(pipeline.Config{}, g, g.Params)
				res.Graph.Dump(os.Stdout, res.Dom, res.Live)
			}
			return nil
		},
	}
	dumpCmd.Flags().StringVar(&dumpStage, "stage", "codegen", "Stage to dump after: parse, codegen")

	selfcheckCmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Run the pipeline's seed-scenario self-checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfCheck()
		},
	}

	rootCmd.AddCommand(compileCmd, dumpCmd, selfcheckCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFile(path string) (*parser.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	prog, err := parser.Parse(path, string(src))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return prog, nil
}

// compileAll runs the backend over every procedure in prog, one
// goroutine per procedure (each graph is disjoint, so this is safe),
// the same fan-out shape pkg/search's worker pool uses for one
// candidate per goroutine.
func compileAll(prog *parser.Program, cfg pipeline.Config) (string, error) {
	asm := make([]string, len(prog.Procs))

	var wg sync.WaitGroup
	var mu sync.Mutex

	for i, g := range prog.Procs {
		wg.Add(1)
		go func(i int, g *ir.Graph) {
			defer wg.Done()
			res := pipeline.Compile(cfg, g, g.Params)
			mu.Lock()
			asm[i] = res.Assembly
			mu.Unlock()
		}(i, g)
	}
	wg.Wait()

	out := ""
	for _, a := range asm {
		out += a
	}
	return out, nil
}
