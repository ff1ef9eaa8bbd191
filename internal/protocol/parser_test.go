// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseCommand_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "read with short numeric pid pads to TTP width",
			line: "TTP2=?",
			want: Command{PType: "TTP", PID: "00002", Read: true},
		},
		{
			name: "write keeps value verbatim",
			line: "TTP00002=23",
			want: Command{PType: "TTP", PID: "00002", Value: "23"},
		},
		{
			name: "lowercase ptype is normalized",
			line: "ttp2=5",
			want: Command{PType: "TTP", PID: "00002", Value: "5"},
		},
		{
			name: "four digit pad for setpoint types",
			line: "MAS7=1",
			want: Command{PType: "MAS", PID: "0007", Value: "1"},
		},
		{
			name: "unknown ptype pid unchanged",
			line: "XYZ7=9",
			want: Command{PType: "XYZ", PID: "7", Value: "9"},
		},
		{
			name: "mixed alnum pid unchanged",
			line: "TTP1A2=4",
			want: Command{PType: "TTP", PID: "1A2", Value: "4"},
		},
		{
			name: "surrounding whitespace tolerated",
			line: "  TTP2 = ?  ",
			want: Command{PType: "TTP", PID: "00002", Read: true},
		},
		{
			name: "negative decimal value",
			line: "MAP12=-3.5",
			want: Command{PType: "MAP", PID: "0012", Value: "-3.5"},
		},
		{
			name: "underscore and letters in value",
			line: "TTP2=mode_B2",
			want: Command{PType: "TTP", PID: "00002", Value: "mode_B2"},
		},
		{
			name: "pid longer than pad width unchanged",
			line: "TTP123456=1",
			want: Command{PType: "TTP", PID: "123456", Value: "1"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseCommand(tt.line)
			if err != nil {
				t.Fatalf("ParseCommand(%q) returned error: %v", tt.line, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCommand_PKeyRoundTrip(t *testing.T) {
	t.Parallel()

	cmd, err := ParseCommand("TTP2=?")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}
	if cmd.PKey() != "TTP00002" {
		t.Errorf("PKey() = %q, want TTP00002", cmd.PKey())
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		line        string
		wantBestKey string
	}{
		{name: "missing equals", line: "TTP00002", wantBestKey: "TTP00002"},
		{name: "empty value", line: "TTP2=", wantBestKey: "TTP00002"},
		{name: "bare minus value", line: "TTP2=-", wantBestKey: "TTP00002"},
		{name: "double minus value", line: "TTP2=--5", wantBestKey: "TTP00002"},
		{name: "whitespace inside value", line: "TTP2=abc def", wantBestKey: "TTP00002"},
		{name: "whitespace inside key", line: "TT P2=5", wantBestKey: ""},
		{name: "two letter prefix", line: "ab=1", wantBestKey: ""},
		{name: "empty line", line: "", wantBestKey: ""},
		{name: "no key shape at all", line: "=5", wantBestKey: ""},
		{name: "free text", line: "hello world", wantBestKey: ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseCommand(tt.line)
			if err == nil {
				t.Fatalf("ParseCommand(%q) succeeded, want error", tt.line)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("ParseCommand(%q) error type %T, want *ParseError", tt.line, err)
			}
			if perr.BestKey != tt.wantBestKey {
				t.Errorf("BestKey = %q, want %q", perr.BestKey, tt.wantBestKey)
			}
		})
	}
}

func TestSplitCommands(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "comma separated",
			text: "TTP00002=23, TTP00003=10",
			want: []string{"TTP00002=23", "TTP00003=10"},
		},
		{
			name: "mixed separators",
			text: "a=1;b=2\nc=3,d=4",
			want: []string{"a=1", "b=2", "c=3", "d=4"},
		},
		{
			name: "empty items discarded",
			text: ",,TTP2=1, ;\n",
			want: []string{"TTP2=1"},
		},
		{
			name: "crlf trimmed",
			text: "TTP2=1\r\nTTP3=2",
			want: []string{"TTP2=1", "TTP3=2"},
		},
		{
			name: "single command",
			text: "TTP2=?",
			want: []string{"TTP2=?"},
		},
		{
			name: "blank input",
			text: "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SplitCommands(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitCommands(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractCommandText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{
			name:    "json msg field",
			payload: `{"msg":"TTP00002=?"}`,
			want:    "TTP00002=?",
		},
		{
			name:    "json cmd field",
			payload: `{"cmd":"TTP00002=?"}`,
			want:    "TTP00002=?",
		},
		{
			name:    "msg preferred over cmd",
			payload: `{"cmd":"second","msg":"first"}`,
			want:    "first",
		},
		{
			name:    "blank msg falls through to line",
			payload: `{"msg":"   ","line":"LSE1=?"}`,
			want:    "LSE1=?",
		},
		{
			name:    "non string field skipped",
			payload: `{"msg":42,"text":"MAS1=2"}`,
			want:    "MAS1=2",
		},
		{
			name:    "object without command fields",
			payload: `{"source":"microtom"}`,
			want:    "",
		},
		{
			name:    "plaintext passthrough",
			payload: "TTP00002=?",
			want:    "TTP00002=?",
		},
		{
			name:    "invalid json passthrough",
			payload: `{"msg":`,
			want:    `{"msg":`,
		},
		{
			name:    "json array treated as plaintext",
			payload: `[1,2]`,
			want:    `[1,2]`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractCommandText(tt.payload); got != tt.want {
				t.Errorf("ExtractCommandText(%q) = %q, want %q", tt.payload, got, tt.want)
			}
		})
	}
}
