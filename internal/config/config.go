// Copyright (c) 2013-2014 Conformal Systems LLC.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config parses the command-line settings table (spec.md §6) with
// the same jessevdk/go-flags struct-tag style the teacher's util/findcheckpoint
// and util/btcctl commands use, and converts the parsed result into the
// option structs each downstream package actually consults.
package config

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/lexer"
	"github.com/dgpv/bsst/internal/smt"
)

const (
	defaultSigVersion                = "base"
	defaultMaxSamples                = 16
	defaultSolverTimeoutSeconds      = 3
	defaultSolverIncreasingTimeoutX  = 3.0
	defaultSolverIncreasingTimeoutMx = 60
	defaultMaxSolverTries            = 3
	defaultParallelSolvingProcesses  = 0
	defaultCommentMarker             = "//"
	defaultMaxTxSize                 = 1_000_000
	defaultMaxNumInputs              = 1_000_000
	defaultMaxNumOutputs             = 1_000_000
)

// Settings mirrors the full flag table of spec.md §6. Field order follows
// the table's own grouping: input, rule selection, policy flags, model
// values, fanout/solver budget, canonicalization, parsing, tx bounds,
// extensibility, logging.
type Settings struct {
	InputFile string `long:"input-file" description:"Script source path; - means stdin"`

	Z3Enabled  bool   `long:"z3-enabled" description:"Enable SMT-backed checks"`
	IsElements bool   `long:"is-elements" description:"Extend opcode set with Elements script"`
	SigVersion string `long:"sigversion" description:"Rule set: base, witness_v0, tapscript"`

	IsIncompleteScript bool `long:"is-incomplete-script" description:"Skip final result check; implies cleanstack off"`
	IsMiner            bool `long:"is-miner" description:"Relax policy rules"`

	MinimalData                      bool `long:"minimaldata-flag" description:"Enforce minimal-encoding pushes"`
	MinimalDataStrict                bool `long:"minimaldata-flag-strict" description:"Enforce minimal-encoding pushes strictly"`
	MinimalIf                        bool `long:"minimalif-flag" description:"Enforce minimal IF/NOTIF top element"`
	StrictEnc                        bool `long:"strictenc-flag" description:"Enforce strict signature/pubkey encoding"`
	LowS                             bool `long:"low-s-flag" description:"Enforce low-S signatures"`
	NullFail                         bool `long:"nullfail-flag" description:"Enforce empty signatures on CHECKSIG failure"`
	NullDummy                        bool `long:"nulldummy-flag" description:"Enforce empty CHECKMULTISIG dummy element"`
	CleanStack                       bool `long:"cleanstack-flag" description:"Enforce a single true element at end of script"`
	WitnessPubKeyType                bool `long:"witness-pubkeytype-flag" description:"Enforce compressed pubkeys in witness programs"`
	DiscourageUpgradablePubKeyType   bool `long:"discourage-upgradeable-pubkey-type-flag" description:"Fail on upgradable pubkey types"`

	ProduceModelValues        bool   `long:"produce-model-values" description:"Enable model-value generation"`
	ProduceModelValuesFor     string `long:"produce-model-values-for" description:"Scope model-value generation to glob[:N]"`
	ReportModelValueSizes     bool   `long:"report-model-value-sizes" description:"Include byte sizes of model values in the report"`
	SortModelValues           bool   `long:"sort-model-values" description:"Sort model values in the report"`

	MaxSamplesForDynamicStackAccess int    `long:"max-samples-for-dynamic-stack-access" description:"Fanout cap for symbolic PICK/ROLL indices"`
	PointsOfInterest                string `long:"points-of-interest" description:"Comma-separated pcs to dump state at; * means all opcodes"`

	CheckAlwaysTrueEnforcements             bool `long:"check-always-true-enforcements" description:"Check whether each enforcement is always true"`
	MarkPathLocalAlwaysTrueEnforcements     bool `long:"mark-path-local-always-true-enforcements" description:"Mark enforcements always true within their own path"`
	HideAlwaysTrueEnforcements              bool `long:"hide-always-true-enforcements" description:"Hide always-true enforcements from the report"`

	SolverTimeoutSeconds              int     `long:"solver-timeout-seconds" description:"Per-attempt solver timeout"`
	SolverIncreasingTimeoutMultiplier float64 `long:"solver-increasing-timeout-multiplier" description:"Timeout growth factor across retries"`
	SolverIncreasingTimeoutMax        int     `long:"solver-increasing-timeout-max" description:"Timeout growth ceiling in seconds"`
	MaxSolverTries                    int     `long:"max-solver-tries" description:"Maximum retry attempts per check"`
	ExitOnSolverResultUnknown         bool    `long:"exit-on-solver-result-unknown" description:"Abort analysis on an unresolved solver result"`

	UseParallelSolving           bool `long:"use-parallel-solving" description:"Race independently-seeded solver attempts"`
	ParallelSolvingNumProcesses  int  `long:"parallel-solving-num-processes" description:"Worker count for parallel solving; 0 means NumCPU"`

	UseZ3IncrementalMode              bool `long:"use-z3-incremental-mode" description:"Use one push/pop solver per path instead of reset-per-check"`
	DisableZ3Randomization            bool `long:"disable-z3-randomization" description:"Disable randomized solver seeding"`
	DoProgressiveZ3Checks             bool `long:"do-progressive-z3-checks" description:"Check satisfiability incrementally as constraints accumulate"`
	AllZ3AssertionsAreTrackedAssertions bool `long:"all-z3-assertions-are-tracked-assertions" description:"Track every assertion for unsat-core attribution"`
	DisableErrorCodeTrackingWithZ3    bool `long:"disable-error-code-tracking-with-z3" description:"Disable unsat-core-based error attribution"`
	Z3Debug                           bool `long:"z3-debug" description:"Emit verbose solver diagnostics"`

	TagDataWithPosition          bool `long:"tag-data-with-position" description:"Disambiguate data values by source position"`
	TagEnforcementsWithPosition  bool `long:"tag-enforcements-with-position" description:"Disambiguate enforcements by source position"`
	UseDeterministicArgumentsOrder bool `long:"use-deterministic-arguments-order" description:"Canonicalize commutative operand order deterministically"`

	SkipImmediatelyFailedBranchesOn string `long:"skip-immediately-failed-branches-on" description:"Treat a fragment as a failure trap"`

	AssumeNo160BitHashCollisions bool `long:"assume-no-160bit-hash-collisions" description:"Assume RIPEMD160/HASH160 injectivity"`

	CommentMarker                string `long:"comment-marker" description:"Comment marker for script source"`
	RestrictDataReferenceNames   bool   `long:"restrict-data-reference-names" description:"Restrict &name references to names bound via =>"`

	MaxTxSize     int `long:"max-tx-size" description:"Transaction size model bound"`
	MaxNumInputs  int `long:"max-num-inputs" description:"Transaction input count model bound"`
	MaxNumOutputs int `long:"max-num-outputs" description:"Transaction output count model bound"`

	ExplicitlyEnabledOpcodes string   `long:"explicitly-enabled-opcodes" description:"Comma-separated opcodes to enable beyond the selected rule set"`
	OpPlugins                []string `long:"op-plugins" description:"Op-plugin module paths to load"`
	Plugins                  []string `long:"plugins" description:"General plugin module paths to load"`
	PluginRawInput           string   `long:"plugin-raw-input" description:"Raw-input plugin module path"`
	BsstPlugin               map[string]string `long:"bsst-plugin" description:"name=value plugin settings, repeatable"`

	LogProgress               bool `long:"log-progress" description:"Log per-opcode progress at trace level"`
	LogSolvingAttempts        bool `long:"log-solving-attempts" description:"Log solver attempts at debug level"`
	LogSolvingAttemptsToStderr bool `long:"log-solving-attempts-to-stderr" description:"Send solver-attempt logs to stderr instead of stdout"`
}

// Default returns a Settings populated with the table's defaults, the same
// role config.config's zero-value-plus-assignment block plays in
// util/addblock/config.go before the flag parser overrides fields.
func Default() Settings {
	return Settings{
		InputFile:                       "-",
		SigVersion:                      defaultSigVersion,
		NullFail:                        true,
		CleanStack:                      true,
		MaxSamplesForDynamicStackAccess: defaultMaxSamples,
		SolverTimeoutSeconds:            defaultSolverTimeoutSeconds,
		SolverIncreasingTimeoutMultiplier: defaultSolverIncreasingTimeoutX,
		SolverIncreasingTimeoutMax:      defaultSolverIncreasingTimeoutMx,
		MaxSolverTries:                  defaultMaxSolverTries,
		ParallelSolvingNumProcesses:     defaultParallelSolvingProcesses,
		CommentMarker:                   defaultCommentMarker,
		MaxTxSize:                       defaultMaxTxSize,
		MaxNumInputs:                    defaultMaxNumInputs,
		MaxNumOutputs:                   defaultMaxNumOutputs,
	}
}

// Load parses argv into a Settings, following loadConfig's shape: defaults
// first, then flags.NewParser(..., flags.Default) so -h/--help and unknown
// flags are reported the way the teacher's CLI tools report them.
func Load(argv []string) (*Settings, []string, error) {
	cfg := Default()

	parser := flags.NewParser(&cfg, flags.Default)
	remaining, err := parser.ParseArgs(argv)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, err
	}

	if err := cfg.validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, err
	}

	return &cfg, remaining, nil
}

func (c *Settings) validate() error {
	switch c.SigVersion {
	case "base", "witness_v0", "tapscript":
	default:
		return fmt.Errorf("invalid --sigversion %q: must be base, witness_v0, or tapscript", c.SigVersion)
	}
	if c.MaxSamplesForDynamicStackAccess <= 0 {
		return fmt.Errorf("--max-samples-for-dynamic-stack-access must be positive")
	}
	if c.IsIncompleteScript {
		c.CleanStack = false
	}
	return nil
}

// ToEngineOptions converts the parsed settings into the subset the
// execution engine consults. internal/engine deliberately does not import
// this package, so the conversion lives here instead.
func (c *Settings) ToEngineOptions() engine.Options {
	sv := engine.SigVersionBase
	switch c.SigVersion {
	case "witness_v0":
		sv = engine.SigVersionWitnessV0
	case "tapscript":
		sv = engine.SigVersionTapscript
	}

	var skip []string
	if c.SkipImmediatelyFailedBranchesOn != "" {
		skip = append(skip, c.SkipImmediatelyFailedBranchesOn)
	}

	return engine.Options{
		IsElements:                   c.IsElements,
		SigVersion:                   sv,
		IsIncompleteScript:           c.IsIncompleteScript,
		IsMiner:                      c.IsMiner,
		MinimalData:                  c.MinimalData,
		MinimalDataStrict:            c.MinimalDataStrict,
		MinimalIf:                    c.MinimalIf,
		StrictEnc:                    c.StrictEnc,
		LowS:                         c.LowS,
		NullFail:                     c.NullFail,
		NullDummy:                    c.NullDummy,
		CleanStack:                   c.CleanStack,
		WitnessPubKeyType:            c.WitnessPubKeyType,
		DiscourageUpgradablePubKey:   c.DiscourageUpgradablePubKeyType,
		Z3Enabled:                    c.Z3Enabled,
		DoProgressiveZ3Checks:        c.DoProgressiveZ3Checks,
		CheckAlwaysTrueEnforcements:  c.CheckAlwaysTrueEnforcements,
		MarkPathLocalAlwaysTrue:      c.MarkPathLocalAlwaysTrueEnforcements,
		HideAlwaysTrueEnforcements:   c.HideAlwaysTrueEnforcements,
		MaxSamplesForDynamicAccess:   c.MaxSamplesForDynamicStackAccess,
		AssumeNo160BitHashCollisions: c.AssumeNo160BitHashCollisions,
		AllAssertionsAreTracked:      c.AllZ3AssertionsAreTrackedAssertions,
		DisableErrorCodeTracking:     c.DisableErrorCodeTrackingWithZ3,
		UseDeterministicArgsOrder:    c.UseDeterministicArgumentsOrder,
		TagDataWithPosition:          c.TagDataWithPosition,
		TagEnforcementsWithPosition:  c.TagEnforcementsWithPosition,
		SkipImmediatelyFailedOn:      skip,
	}
}

// ToLexerOptions converts the parsed settings into the tokenizer's options.
func (c *Settings) ToLexerOptions() lexer.Options {
	return lexer.Options{
		CommentMarker:              c.CommentMarker,
		RestrictDataReferenceNames: c.RestrictDataReferenceNames,
	}
}

// ToSolverMode selects the SMT session mode the engine should construct its
// sessions with.
func (c *Settings) ToSolverMode() smt.Mode {
	if c.UseZ3IncrementalMode {
		return smt.ModeIncremental
	}
	return smt.ModeReset
}
