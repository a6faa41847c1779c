package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/veyra-lang/veyra/internal/effect"
	"github.com/veyra-lang/veyra/internal/haruspex/analysis"
	"github.com/veyra-lang/veyra/internal/haruspex/diagnostics"
	"github.com/veyra-lang/veyra/internal/haruspex/liveir"
	"github.com/veyra-lang/veyra/internal/haruspex/server"
	"github.com/veyra-lang/veyra/internal/parser"
	"github.com/veyra-lang/veyra/internal/types"
)

func main() {
	lspMode := flag.Bool("lsp", false, "Run in LSP mode for editor integration")
	flag.Parse()

	if *lspMode {
		runLSP()
	} else {
		runCLI()
	}
}

func runLSP() {
	fmt.Println("Starting Haruspex in LSP mode...")
	srv := server.NewServer()
	if err := srv.Serve(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

func runCLI() {
	if len(flag.Args()) < 1 {
		fmt.Println("Usage: veyra-haruspex <file.vey> or veyra-haruspex --lsp")
		os.Exit(1)
	}

	filename := flag.Arg(0)
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Analyzing %s...\n", filename)

	// 1. Parse
	p := parser.New(string(content), parser.WithFilename(filename))
	file := p.ParseFile()

	for _, err := range p.Errors() {
		fmt.Printf("Parse Error: %s at %v\n", err.Message, err.Span)
	}

	if file == nil {
		return
	}

	// 2. Typecheck
	checker := types.NewChecker()
	checker.Check(file)

	for _, err := range checker.Errors {
		fmt.Printf("Type Error: %s\n", err.Message)
	}

	// 2b. Effect check: declare and finalize every symbol through the
	// resolution scheduler, independent of the type checker above.
	loader := effect.NewLoader(context.Background())
	loader.LoadFile(file)
	if err := loader.Finalize(context.Background()); err != nil {
		d := effect.DiagnosticFor(err)
		fmt.Printf("Effect Error: %s\n", d.Message)
	}

	// 3. Lower
	lowerer := liveir.NewLowerer(checker.ExprTypes)
	functions, err := lowerer.LowerModule(file)
	if err != nil {
		fmt.Printf("Lowering Failed: %v\n", err)
		return
	}

	// 4. Analyze
	engine := analysis.NewEngine()
	reporter := diagnostics.NewReporter()

	for _, fn := range functions {
		states, err := engine.Analyze(fn, reporter)
		if err != nil {
			fmt.Printf("Analysis Failed for %s: %v\n", fn.Name, err)
		} else {
			fmt.Printf("Analysis of %s completed successfully.\n", fn.Name)

			// Sort block IDs for consistent output
			var ids []int
			for id := range states {
				ids = append(ids, id)
			}
			sort.Ints(ids)

			for _, id := range ids {
				state := states[id]
				fmt.Printf("Block %d:\n%s\n\n", id, state)
			}
		}
	}

	// Print diagnostics
	if len(reporter.Diagnostics()) > 0 {
		fmt.Println("Diagnostics:")
		for _, d := range reporter.Diagnostics() {
			fmt.Println(d)
		}
	}
}
