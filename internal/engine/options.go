package engine

// Options carries the subset of CLI settings (see internal/config) the
// execution engine itself consults. internal/config.Settings.ToEngineOptions
// produces one of these; the rest of the settings table governs the CLI,
// reporter, and SMT backend instead.
type Options struct {
	IsElements                  bool
	SigVersion                  SigVersion
	IsIncompleteScript          bool
	IsMiner                     bool
	MinimalData                 bool
	MinimalDataStrict           bool
	MinimalIf                   bool
	StrictEnc                   bool
	LowS                        bool
	NullFail                    bool
	NullDummy                   bool
	CleanStack                  bool
	WitnessPubKeyType           bool
	DiscourageUpgradablePubKey  bool
	Z3Enabled                   bool
	DoProgressiveZ3Checks       bool
	CheckAlwaysTrueEnforcements bool
	MarkPathLocalAlwaysTrue     bool
	HideAlwaysTrueEnforcements  bool
	MaxSamplesForDynamicAccess  int
	AssumeNo160BitHashCollisions bool
	AllAssertionsAreTracked     bool
	DisableErrorCodeTracking    bool
	UseDeterministicArgsOrder   bool
	TagDataWithPosition         bool
	TagEnforcementsWithPosition bool
	SkipImmediatelyFailedOn     []string
}

// SigVersion selects the opcode/rule subset in effect, per --sigversion.
type SigVersion int

const (
	SigVersionBase SigVersion = iota
	SigVersionWitnessV0
	SigVersionTapscript
)

// DefaultOptions matches the settings table's defaults in spec.md §6.
func DefaultOptions() Options {
	return Options{
		SigVersion:                 SigVersionBase,
		NullFail:                   true,
		CleanStack:                 true,
		MaxSamplesForDynamicAccess: 16,
	}
}
