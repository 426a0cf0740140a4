package main

import (
	"fmt"
	"os"

	"arrayspec/internal/arrayconfig"
	"arrayspec/internal/bytecode"
	"arrayspec/internal/compiler"
	"arrayspec/internal/lexer"
	"arrayspec/internal/parser"

	"go.uber.org/zap"
)

// compileFile runs a script through scan, parse and hoist-compile, the same
// three-stage pipeline the old sentra-language CLI drove by hand before
// handing the chunk to a VM.
func compileFile(path string) (*bytecode.Chunk, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	tokens := lexer.NewScannerWithFile(string(source), path).ScanTokens()
	p := parser.NewParserWithSource(tokens, string(source), path)
	stmts, err := parse(p)
	if err != nil {
		return nil, err
	}

	hc := compiler.NewHoistingCompilerWithDebug(path)
	return hc.CompileWithHoisting(stmts), nil
}

// parse runs p.Parse(), converting the *errors.SentraError it panics with on
// a syntax error into a returned error. p.Errors is also checked for parity
// with a parser that one day collects errors instead of panicking on the
// first one.
func parse(p *parser.Parser) (stmts []parser.Stmt, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("%v", r)
		}
	}()

	stmts = p.Parse()
	if len(p.Errors) > 0 {
		return nil, p.Errors[0]
	}
	return stmts, nil
}

// loadConfig resolves the array-engine configuration for a run: an explicit
// --config file if given, otherwise arrayconfig.Default().
func loadConfig(path string) (arrayconfig.Config, error) {
	if path == "" {
		return arrayconfig.Default(), nil
	}
	return arrayconfig.LoadFile(path)
}

func newNopLogger() *zap.Logger {
	return zap.NewNop()
}
