// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command bsst traces a script source file symbolically and reports the
// valid paths, their enforced constraints, and any failures. The pipeline
// mirrors the teacher CLI tools' own main() shape (parse config, do the
// one thing, report errors to stderr with a non-zero exit): config.Load,
// then lexer.Tokenize, then engine.Explorer.Run, then report.Render.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btclog"
	"github.com/jessevdk/go-flags"

	"github.com/dgpv/bsst/internal/bsstlog"
	"github.com/dgpv/bsst/internal/config"
	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/lexer"
	"github.com/dgpv/bsst/internal/plugin"
	"github.com/dgpv/bsst/internal/report"
	"github.com/dgpv/bsst/internal/value"
	"github.com/dgpv/bsst/plugins/checksigtrack"
	"github.com/dgpv/bsst/plugins/modelusage"
	"github.com/dgpv/bsst/plugins/opexample"
	"github.com/dgpv/bsst/plugins/rawinput"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(argv []string) error {
	cfg, _, err := config.Load(argv)
	if err != nil {
		return err
	}

	setupLogging(cfg)

	lines, err := readScriptLines(cfg)
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	tokLines, err := lexer.Tokenize(lines, cfg.ToLexerOptions())
	if err != nil {
		return fmt.Errorf("tokenizing script: %w", err)
	}

	en := engine.New(cfg.ToEngineOptions())
	en.Mode = cfg.ToSolverMode()
	en.Hooks = buildRegistry(cfg)

	explorer := engine.NewExplorer(en, tokLines)
	paths := explorer.Run()

	report.LiftEnforcements(paths)

	if reg, ok := en.Hooks.(*plugin.Registry); ok {
		reg.ReportStart()
		reg.ReportEnd(paths)
	}

	fmt.Println(report.Render(paths, countUnexplored(paths), report.Options{
		ReportModelValueSizes:      cfg.ReportModelValueSizes,
		SortModelValues:            cfg.SortModelValues,
		HideAlwaysTrueEnforcements: cfg.HideAlwaysTrueEnforcements,
		Display: value.DisplayOptions{
			UseDeterministicArgumentsOrder: cfg.UseDeterministicArgumentsOrder,
			TagDataWithPosition:            cfg.TagDataWithPosition,
		},
	}))

	return nil
}

// countUnexplored counts the dynamic-stack-access "path was not explored"
// markers (spec.md §4.4 step 4) so the report's leading note can say how
// many fanout branches the --max-samples-for-dynamic-stack-access cap cut
// off, rather than silently dropping them.
func countUnexplored(paths []*engine.Path) int {
	n := 0
	for _, p := range paths {
		if p.Ctx.Failed() && p.Ctx.Failure.Kind == engine.FailPathNotExplored {
			n++
		}
	}
	return n
}

// buildRegistry installs the reference plugins named in SPEC_FULL.md
// ("Supplemented features"), plus any op-plugin opcode extensions, and
// returns the registry as the Engine's Hooks value.
func buildRegistry(cfg *config.Settings) *plugin.Registry {
	reg := plugin.NewRegistry()
	reg.Register(checksigtrack.New())
	reg.Register(modelusage.New())

	rawinputPlugin := rawinput.New()
	reg.Register(rawinputPlugin)

	for _, name := range cfg.OpPlugins {
		if name == "opexample" {
			opexample.Register()
		}
	}

	return reg
}

// readScriptLines loads the script source as raw lines, from stdin when
// --input-file is "-" or unset, consulting the rawinput plugin first so
// --plugin-raw-input can substitute a compiled-script disassembly for the
// textual assembly format.
func readScriptLines(cfg *config.Settings) ([]string, error) {
	path := cfg.InputFile
	if path == "" {
		path = "-"
	}

	if cfg.PluginRawInput != "" {
		p := rawinput.New()
		lines, handled, err := p.ParseInputFile(path)
		if err != nil {
			return nil, err
		}
		if handled {
			return lines, nil
		}
	}

	var r io.Reader
	if path == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// setupLogging wires bsstlog to a real backend when --log-progress or
// --log-solving-attempts is set, matching btclog's standard
// NewBackend/Logger construction; otherwise bsstlog.log stays
// btclog.Disabled.
func setupLogging(cfg *config.Settings) {
	if !cfg.LogProgress && !cfg.LogSolvingAttempts {
		return
	}
	w := io.Writer(os.Stdout)
	if cfg.LogSolvingAttemptsToStderr {
		w = os.Stderr
	}
	backend := btclog.NewBackend(w)
	logger := backend.Logger("BSST")
	logger.SetLevel(btclog.LevelTrace)
	bsstlog.UseLogger(logger)
}
