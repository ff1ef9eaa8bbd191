// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package protocol

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
)

// lineRE matches one complete command. Surrounding whitespace is tolerated;
// whitespace inside a token is not.
var lineRE = regexp.MustCompile(`^\s*([A-Za-z]{3})([0-9A-Za-z_]+)\s*=\s*(\?|-?[0-9A-Za-z_.]+)\s*$`)

// bestKeyRE recovers a pkey from an otherwise unparseable command so the
// host still receives a NAK_ParseError it can correlate. The candidate must
// be entirely key-shaped; free text yields nothing.
var bestKeyRE = regexp.MustCompile(`^([A-Za-z]{3})([0-9A-Za-z_]+)$`)

// pidWidth is the zero-padding width applied to digits-only PIDs, keyed by
// normalized PTYPE. PTYPEs not listed pass their PID through unchanged.
var pidWidth = map[string]int{
	"TTP": 5,
	"TTE": 4, "TTW": 4,
	"MAP": 4, "MAS": 4, "MAE": 4, "MAW": 4,
	"LSE": 4, "LSW": 4,
}

// pushOnlyTypes are telemetry PTYPEs the devices push to the host; host
// writes to them are rejected with NAK_ReadOnly before any adapter runs.
var pushOnlyTypes = map[string]bool{
	"TTE": true, "TTW": true,
	"LSE": true, "LSW": true,
	"MAE": true, "MAW": true,
}

// Command is one parsed host command. Read is true for "=?" requests, in
// which case Value is empty. PID is already normalized.
type Command struct {
	PType string
	PID   string
	Value string
	Read  bool
}

// PKey returns the normalized business key PTYPE||PID.
func (c Command) PKey() string {
	return c.PType + c.PID
}

// ParseError reports an unparseable command line. BestKey carries the
// best-effort pkey recovered from the line's prefix, or "" when the line is
// not even key-shaped; callers use it to decide between a NAK_ParseError
// reply and a silent drop.
type ParseError struct {
	Line    string
	BestKey string
}

func (e *ParseError) Error() string {
	if e.BestKey == "" {
		return fmt.Sprintf("unparseable command %q", e.Line)
	}
	return fmt.Sprintf("unparseable command %q (key %s)", e.Line, e.BestKey)
}

// ParseCommand parses a single command line. On failure it returns a
// *ParseError; BestKey is populated when a pkey-shaped prefix exists.
func ParseCommand(line string) (Command, error) {
	m := lineRE.FindStringSubmatch(line)
	if m == nil {
		return Command{}, &ParseError{Line: line, BestKey: BestEffortKey(line)}
	}
	ptype := strings.ToUpper(m[1])
	pid := normalizePID(ptype, m[2])
	if m[3] == "?" {
		return Command{PType: ptype, PID: pid, Read: true}, nil
	}
	return Command{PType: ptype, PID: pid, Value: m[3]}, nil
}

// BestEffortKey extracts and normalizes a pkey from a broken line (""
// when none). Only the text before the first '=' is considered so a bad
// value does not bleed into the key.
func BestEffortKey(line string) string {
	head := line
	if i := strings.IndexByte(line, '='); i >= 0 {
		head = line[:i]
	}
	m := bestKeyRE.FindStringSubmatch(strings.TrimSpace(head))
	if m == nil {
		return ""
	}
	ptype := strings.ToUpper(m[1])
	return ptype + normalizePID(ptype, m[2])
}

// normalizePID zero-pads digits-only PIDs to the width registered for the
// PTYPE. Mixed alphanumeric PIDs and unknown PTYPEs pass through.
func normalizePID(ptype, pid string) string {
	w, ok := pidWidth[ptype]
	if !ok || !isDigits(pid) || len(pid) >= w {
		return pid
	}
	return strings.Repeat("0", w-len(pid)) + pid
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsPushOnly reports whether the PTYPE is device-to-host telemetry that must
// reject host writes.
func IsPushOnly(ptype string) bool {
	return pushOnlyTypes[strings.ToUpper(ptype)]
}

// SplitCommands breaks a multi-command input into individual command
// strings. Separators are comma, semicolon and newline; empty items are
// discarded.
func SplitCommands(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ExtractCommandText pulls the command string out of a stored inbox payload.
// A JSON object is probed for the fields msg, line, text, cmd in that order
// (first non-blank string wins; an object without them yields ""). Anything
// that is not a JSON object is treated as plaintext and returned verbatim.
func ExtractCommandText(payload string) string {
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return payload
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return payload
	}
	for _, field := range []string{"msg", "line", "text", "cmd"} {
		if s, ok := obj[field].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
