package lexer

import (
	"fmt"
	"strings"
)

// parseDirectives parses the (already comment-marker-stripped) trailing text
// of a line for the special directive comments of spec.md §4.5/§6. The whole
// comment is parsed as one directive; it is not split on "; " or any other
// separator, so a line carries at most one directive.
func parseDirectives(comment string) ([]Directive, error) {
	var out []Directive
	for _, part := range splitDirectiveParts(comment) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, ok, err := parseOneDirective(part)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

func splitDirectiveParts(comment string) []string {
	// Directives are self-delimiting (each starts with "=>" or "bsst-"), so
	// plain commentary text coexisting on the same line is simply ignored by
	// parseOneDirective returning ok=false.
	return []string{comment}
}

func parseOneDirective(text string) (Directive, bool, error) {
	switch {
	case strings.HasPrefix(text, "=>"):
		name := strings.TrimSpace(text[2:])
		if name == "" {
			return Directive{}, false, fmt.Errorf("empty data reference name in %q", text)
		}
		return Directive{Kind: DirectiveDataRef, Name: name}, true, nil

	case strings.HasPrefix(text, "bsst-assert"):
		return parseAssertLike(text, "bsst-assert", DirectiveAssert, DirectiveAssertSize)

	case strings.HasPrefix(text, "bsst-assume"):
		return parseAssertLike(text, "bsst-assume", DirectiveAssume, DirectiveAssumeSize)

	case strings.HasPrefix(text, "bsst-name-alias"):
		return parseNameAlias(text)

	case strings.HasPrefix(text, "bsst-plugin"):
		return parsePlugin(text)

	default:
		return Directive{}, false, nil
	}
}

// parseAssertLike handles `bsst-assert[-size]<(target)>: expr` and
// `bsst-assume[-size]($name): expr`.
func parseAssertLike(text, prefix string, plainKind, sizeKind DirectiveKind) (Directive, bool, error) {
	rest := text[len(prefix):]
	kind := plainKind
	if strings.HasPrefix(rest, "-size") {
		kind = sizeKind
		rest = rest[len("-size"):]
	}

	target := ""
	if strings.HasPrefix(rest, "(") {
		close := strings.IndexByte(rest, ')')
		if close < 0 {
			return Directive{}, false, fmt.Errorf("unterminated target in %q", text)
		}
		target = rest[1:close]
		rest = rest[close+1:]
	}

	rest = strings.TrimSpace(rest)
	if !strings.HasPrefix(rest, ":") {
		return Directive{}, false, fmt.Errorf("expected ':' in directive %q", text)
	}
	expr := strings.TrimSpace(rest[1:])

	return Directive{Kind: kind, Target: target, Expression: expr}, true, nil
}

func parseNameAlias(text string) (Directive, bool, error) {
	rest := strings.TrimPrefix(text, "bsst-name-alias")
	if !strings.HasPrefix(rest, "(") {
		return Directive{}, false, fmt.Errorf("malformed name-alias directive %q", text)
	}
	close := strings.IndexByte(rest, ')')
	if close < 0 {
		return Directive{}, false, fmt.Errorf("unterminated name-alias target in %q", text)
	}
	target := rest[1:close]
	rest = strings.TrimSpace(rest[close+1:])
	if !strings.HasPrefix(rest, ":") {
		return Directive{}, false, fmt.Errorf("expected ':' in name-alias directive %q", text)
	}
	alias := strings.TrimSpace(rest[1:])
	return Directive{Kind: DirectiveNameAlias, Target: target, Name: alias}, true, nil
}

func parsePlugin(text string) (Directive, bool, error) {
	rest := strings.TrimPrefix(text, "bsst-plugin")
	if !strings.HasPrefix(rest, "(") {
		return Directive{}, false, fmt.Errorf("malformed plugin directive %q", text)
	}
	close := strings.IndexByte(rest, ')')
	if close < 0 {
		return Directive{}, false, fmt.Errorf("unterminated plugin name in %q", text)
	}
	name := rest[1:close]
	rest = strings.TrimSpace(rest[close+1:])
	args := strings.TrimPrefix(rest, ":")
	return Directive{Kind: DirectivePlugin, PluginName: name, PluginArgs: strings.TrimSpace(args)}, true, nil
}
