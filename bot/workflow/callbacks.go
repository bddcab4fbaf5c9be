package workflow

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxTokenLength is the Telegram limit for inline button callback data.
const MaxTokenLength = 64

type segment struct {
	literal string
	verb    byte // 'd' or 's'; zero for a literal segment
}

func compileFormat(format string) ([]segment, error) {
	var layout []segment
	var lit strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			lit.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return nil, fmt.Errorf("dangling %% in %q", format)
		}
		i++
		switch format[i] {
		case '%':
			lit.WriteByte('%')
		case 'd', 's':
			if lit.Len() > 0 {
				layout = append(layout, segment{literal: lit.String()})
				lit.Reset()
			}
			if n := len(layout); n > 0 && layout[n-1].verb != 0 {
				return nil, fmt.Errorf("adjacent verbs in %q", format)
			}
			layout = append(layout, segment{verb: format[i]})
		default:
			return nil, fmt.Errorf("unsupported verb %%%c in %q", format[i], format)
		}
	}
	if lit.Len() > 0 {
		layout = append(layout, segment{literal: lit.String()})
	}
	return layout, nil
}

func countVerbs(layout []segment) int {
	n := 0
	for _, seg := range layout {
		if seg.verb != 0 {
			n++
		}
	}
	return n
}

// BuildToken renders the callback token of step.
//
// A step without keys, or a call with neither named nor positional values,
// yields the bare format. Positional values must match the key count exactly
// and are substituted in order; otherwise every key must be present in named.
// Named values not used by the step are ignored.
func BuildToken(step Step, named map[string]string, positional ...any) (string, error) {
	def, ok := steps[step]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStep, string(step))
	}
	if len(def.keys) == 0 || (len(named) == 0 && len(positional) == 0) {
		return def.format, nil
	}

	values := make([]string, 0, len(def.keys))
	if len(positional) > 0 {
		if len(positional) != len(def.keys) {
			return "", fmt.Errorf("%w: step %s takes %d values, got %d", ErrArgumentCount, step, len(def.keys), len(positional))
		}
		for _, v := range positional {
			values = append(values, fmt.Sprint(v))
		}
	} else {
		for _, key := range def.keys {
			v, ok := named[key]
			if !ok || v == "" {
				return "", fmt.Errorf("%w: step %s needs %q", ErrMissingParameter, step, key)
			}
			values = append(values, v)
		}
	}

	token, err := render(def, values)
	if err != nil {
		return "", fmt.Errorf("step %s: %w", step, err)
	}
	if len(token) > MaxTokenLength {
		return "", fmt.Errorf("%w: %q", ErrTokenTooLong, token)
	}
	return token, nil
}

func render(def *stepDef, values []string) (string, error) {
	var sb strings.Builder
	vi := 0
	for i, seg := range def.layout {
		if seg.verb == 0 {
			sb.WriteString(seg.literal)
			continue
		}
		v := values[vi]
		key := def.keys[vi]
		vi++
		switch seg.verb {
		case 'd':
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				return "", fmt.Errorf("%w: %s=%q is not an integer", ErrArgumentInvalid, key, v)
			}
		case 's':
			if v == "" {
				return "", fmt.Errorf("%w: %s is empty", ErrArgumentInvalid, key)
			}
			if i+1 < len(def.layout) && strings.Contains(v, def.layout[i+1].literal[:1]) {
				return "", fmt.Errorf("%w: %s=%q contains delimiter %q", ErrArgumentInvalid, key, v, def.layout[i+1].literal[:1])
			}
		}
		sb.WriteString(v)
	}
	return sb.String(), nil
}

// ParseToken scans token against the format of step and returns the named
// values. It returns nil, false when the token does not match the format.
func ParseToken(step Step, token string) (map[string]string, bool) {
	def, ok := steps[step]
	if !ok {
		return nil, false
	}

	values := make([]string, 0, len(def.keys))
	rest := token
	for i, seg := range def.layout {
		if seg.verb == 0 {
			if !strings.HasPrefix(rest, seg.literal) {
				return nil, false
			}
			rest = rest[len(seg.literal):]
			continue
		}

		var n int
		switch seg.verb {
		case 'd':
			if len(rest) > 0 && rest[0] == '-' {
				n = 1
			}
			start := n
			for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
				n++
			}
			if n == start {
				return nil, false
			}
		case 's':
			n = len(rest)
			if i+1 < len(def.layout) {
				n = strings.IndexByte(rest, def.layout[i+1].literal[0])
				if n < 0 {
					return nil, false
				}
			}
			if n == 0 {
				return nil, false
			}
		}
		values = append(values, rest[:n])
		rest = rest[n:]
	}
	if rest != "" || len(values) != len(def.keys) {
		return nil, false
	}

	params := make(map[string]string, len(values))
	for i, key := range def.keys {
		params[key] = values[i]
	}
	return params, true
}

// Resolve finds the step a token belongs to. Steps are tried longest bare
// prefix first; a step without keys only matches its exact format.
func Resolve(token string) (Step, map[string]string, error) {
	for _, s := range resolveOrder {
		def := steps[s]
		if len(def.keys) == 0 {
			if token == def.format {
				return s, map[string]string{}, nil
			}
			continue
		}
		if !strings.HasPrefix(token, def.prefix) {
			continue
		}
		if params, ok := ParseToken(s, token); ok {
			return s, params, nil
		}
	}
	return "", nil, fmt.Errorf("%w: %q", ErrUnknownToken, token)
}
