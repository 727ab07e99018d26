// Package rawinput is a reference plugin demonstrating the
// parse-input-file substitution hook: it reads a compiled (hex- or
// binary-encoded) script instead of the textual assembly format and
// disassembles it into the token stream the tokenizer would otherwise have
// parsed directly from source text. Grounded on
// original_source/plugins/raw_input_bsst_plugin.py, adapted to disassemble
// with the kept txscript package's own DisasmString rather than reaching
// for an external script-parsing library the way the original imports
// bitcointx.core.script.CScript.
package rawinput

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgpv/bsst/txscript"
)

// Plugin implements plugin.RawInputHook and plugin.SettingsHook.
type Plugin struct {
	Format string // "hex" (default) or "binary"
}

// New returns a rawinput plugin defaulting to hex-encoded input.
func New() *Plugin {
	return &Plugin{Format: "hex"}
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return "rawinput" }

// PluginSettings implements plugin.SettingsHook, accepting a
// format=hex|binary setting.
func (p *Plugin) PluginSettings(settings map[string]string) error {
	if f, ok := settings["format"]; ok {
		if f != "hex" && f != "binary" {
			return fmt.Errorf("rawinput: unrecognized setting %q: use either \"hex\" or \"binary\"", f)
		}
		p.Format = f
	}
	return nil
}

// ParseInputFile implements plugin.RawInputHook.
func (p *Plugin) ParseInputFile(path string) ([]string, bool, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, false, err
	}

	raw := data
	if p.Format != "binary" {
		raw, err = hex.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, false, err
		}
	}

	if len(raw) == 0 {
		return nil, true, nil
	}

	disasm, err := txscript.DisasmString(raw)
	if err != nil {
		return nil, false, err
	}
	return []string{disasm}, true, nil
}
