// Package plugin implements the hook contract of the plugin architecture:
// a record of optional callbacks a plugin may implement, fanned out to in
// registration order, rather than a base class every plugin must subclass
// (spec.md §9 design note "Plugin hooks: a record of optional callbacks
// rather than subclassing").
package plugin

import (
	"github.com/dgpv/bsst/internal/engine"
	"github.com/dgpv/bsst/internal/value"
)

// Plugin is the minimal identity every loaded plugin provides. Everything
// else is optional: a plugin implements only the hook interfaces below that
// it cares about, and the Registry type-asserts for each one.
type Plugin interface {
	Name() string
}

// OpcodeHooks fires around every opcode dispatch.
type OpcodeHooks interface {
	Plugin
	PreOpcode(ctx *engine.Context, pos int, name string)
	PostOpcode(ctx *engine.Context, pos int, name string)
}

// FinalizeHooks fires around a path's end-of-script checks.
type FinalizeHooks interface {
	Plugin
	PreFinalize(ctx *engine.Context)
	PostFinalize(ctx *engine.Context)
}

// ReportHooks fires at the start and end of report rendering.
type ReportHooks interface {
	Plugin
	ReportStart()
	ReportEnd(paths []*engine.Path)
}

// ScriptFailureHook fires when a path is sealed with a failure.
type ScriptFailureHook interface {
	Plugin
	ScriptFailure(ctx *engine.Context, kind engine.FailKind, message string)
}

// PushDataHook fires whenever a value is pushed to the main stack by a
// literal, placeholder, or opcode result.
type PushDataHook interface {
	Plugin
	PushData(ctx *engine.Context, pos int, v *value.Value)
}

// CommentHook fires for every `// bsst-plugin(name): ...` directive whose
// name matches the plugin's own Name().
type CommentHook interface {
	Plugin
	PluginComment(ctx *engine.Context, pos int, args string)
}

// SettingsHook fires once at startup with the `--bsst-plugin-<name>=value`
// settings addressed to this plugin.
type SettingsHook interface {
	Plugin
	PluginSettings(settings map[string]string) error
}

// RawInputHook lets a plugin substitute the entire token stream before
// tokenizing, e.g. to transcode a foreign assembly format (`--plugin-raw-input`).
type RawInputHook interface {
	Plugin
	ParseInputFile(path string) (lines []string, handled bool, err error)
}

// Registry holds every loaded plugin and implements engine.Hooks by fanning
// out PreOpcode/PostOpcode to whichever plugins opted in, in registration
// order.
type Registry struct {
	plugins []Plugin
}

// NewRegistry returns an empty registry ready for Register calls.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds p to the registry.
func (r *Registry) Register(p Plugin) {
	r.plugins = append(r.plugins, p)
}

// PreOpcode implements engine.Hooks.
func (r *Registry) PreOpcode(ctx *engine.Context, pos int, name string) {
	for _, p := range r.plugins {
		if h, ok := p.(OpcodeHooks); ok {
			h.PreOpcode(ctx, pos, name)
		}
	}
}

// PostOpcode implements engine.Hooks.
func (r *Registry) PostOpcode(ctx *engine.Context, pos int, name string) {
	for _, p := range r.plugins {
		if h, ok := p.(OpcodeHooks); ok {
			h.PostOpcode(ctx, pos, name)
		}
	}
}

// PreFinalize fans out to every plugin implementing FinalizeHooks.
func (r *Registry) PreFinalize(ctx *engine.Context) {
	for _, p := range r.plugins {
		if h, ok := p.(FinalizeHooks); ok {
			h.PreFinalize(ctx)
		}
	}
}

// PostFinalize fans out to every plugin implementing FinalizeHooks.
func (r *Registry) PostFinalize(ctx *engine.Context) {
	for _, p := range r.plugins {
		if h, ok := p.(FinalizeHooks); ok {
			h.PostFinalize(ctx)
		}
	}
}

// ReportStart fans out to every plugin implementing ReportHooks.
func (r *Registry) ReportStart() {
	for _, p := range r.plugins {
		if h, ok := p.(ReportHooks); ok {
			h.ReportStart()
		}
	}
}

// ReportEnd fans out to every plugin implementing ReportHooks.
func (r *Registry) ReportEnd(paths []*engine.Path) {
	for _, p := range r.plugins {
		if h, ok := p.(ReportHooks); ok {
			h.ReportEnd(paths)
		}
	}
}

// ScriptFailure fans out to every plugin implementing ScriptFailureHook.
func (r *Registry) ScriptFailure(ctx *engine.Context, kind engine.FailKind, message string) {
	for _, p := range r.plugins {
		if h, ok := p.(ScriptFailureHook); ok {
			h.ScriptFailure(ctx, kind, message)
		}
	}
}

// PushData fans out to every plugin implementing PushDataHook.
func (r *Registry) PushData(ctx *engine.Context, pos int, v *value.Value) {
	for _, p := range r.plugins {
		if h, ok := p.(PushDataHook); ok {
			h.PushData(ctx, pos, v)
		}
	}
}

// Comment dispatches a `bsst-plugin(name): args` directive to the plugin
// named name, if loaded and if it implements CommentHook.
func (r *Registry) Comment(ctx *engine.Context, pos int, name, args string) {
	for _, p := range r.plugins {
		if p.Name() != name {
			continue
		}
		if h, ok := p.(CommentHook); ok {
			h.PluginComment(ctx, pos, args)
		}
	}
}

// ApplySettings dispatches `--bsst-plugin-<name>=value` settings grouped by
// plugin name to every loaded plugin implementing SettingsHook.
func (r *Registry) ApplySettings(byPlugin map[string]map[string]string) error {
	for _, p := range r.plugins {
		h, ok := p.(SettingsHook)
		if !ok {
			continue
		}
		if err := h.PluginSettings(byPlugin[p.Name()]); err != nil {
			return err
		}
	}
	return nil
}

// ParseInputFile offers path to every loaded RawInputHook in order and
// returns the first one that claims it (handled == true).
func (r *Registry) ParseInputFile(path string) ([]string, bool, error) {
	for _, p := range r.plugins {
		h, ok := p.(RawInputHook)
		if !ok {
			continue
		}
		lines, handled, err := h.ParseInputFile(path)
		if err != nil {
			return nil, false, err
		}
		if handled {
			return lines, true, nil
		}
	}
	return nil, false, nil
}
