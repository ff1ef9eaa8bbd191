// Fieldbridge - Industrial Command Bridge for Shop-Floor Devices
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fieldbridge

package device

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/fieldbridge/internal/protocol"
)

// timeoutError satisfies net.Error with Timeout() == true.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var readCmd = protocol.Command{PType: "TTP", PID: "00002", Read: true}

func TestLiveExecutePassesValidReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reply      string
		want       string
		wantMirror string
	}{
		{
			name:       "value reply",
			reply:      "TTP00002=23",
			want:       "TTP00002=23",
			wantMirror: "23",
		},
		{
			name:       "ack reply",
			reply:      "ACK_TTP00002=25",
			want:       "ACK_TTP00002=25",
			wantMirror: "25",
		},
		{
			name:       "whitespace trimmed",
			reply:      " TTP00002=23\r\n",
			want:       "TTP00002=23",
			wantMirror: "23",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mirror := &recordingMirror{}
			live := NewLive(protocol.ChannelVJ6530, &fakeExchanger{reply: tc.reply}, mirror)

			if got := live.Execute(context.Background(), readCmd); got != tc.want {
				t.Errorf("Execute = %q, want %q", got, tc.want)
			}
			if mirror.calls != 1 || mirror.pkey != "TTP00002" || mirror.value != tc.wantMirror {
				t.Errorf("mirror saw (%q, %q, calls=%d), want (TTP00002, %q, 1)",
					mirror.pkey, mirror.value, mirror.calls, tc.wantMirror)
			}
		})
	}
}

func TestLiveExecuteDeviceNakPassesThrough(t *testing.T) {
	t.Parallel()

	mirror := &recordingMirror{}
	live := NewLive(protocol.ChannelESPPLC, &fakeExchanger{reply: "TTP00002=NAK_ZBC_001F"}, mirror)

	got := live.Execute(context.Background(), readCmd)
	if got != "TTP00002=NAK_ZBC_001F" {
		t.Errorf("Execute = %q, want device NAK untouched", got)
	}
	if mirror.calls != 0 {
		t.Errorf("mirror called %d times for a NAK reply, want 0", mirror.calls)
	}
}

func TestLiveExecuteBadShape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		reply string
	}{
		{"garbage line", "READY."},
		{"reply for another key", "TTE0001=55"},
		{"nak for another key", "TTE0001=NAK_ReadOnly"},
		{"empty value", "TTP00002="},
		{"empty line", ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			live := NewLive(protocol.ChannelVJ6530, &fakeExchanger{reply: tc.reply}, nil)

			got := live.Execute(context.Background(), readCmd)
			if got != "TTP00002=NAK_DeviceBadResponse" {
				t.Errorf("Execute(%q) = %q, want NAK_DeviceBadResponse", tc.reply, got)
			}
		})
	}
}

func TestLiveExecuteTransportErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"network timeout", timeoutError{}, "TTP00002=NAK_DeviceDown"},
		{"context deadline", context.DeadlineExceeded, "TTP00002=NAK_DeviceDown"},
		{"connection refused", errors.New("dial tcp: connection refused"), "TTP00002=NAK_DeviceComm"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			live := NewLive(protocol.ChannelVJ6530, &fakeExchanger{err: tc.err}, nil)

			if got := live.Execute(context.Background(), readCmd); got != tc.want {
				t.Errorf("Execute = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLiveBreakerOpensAfterFailures(t *testing.T) {
	t.Parallel()

	exch := &fakeExchanger{err: errors.New("dial tcp: connection refused")}
	live := NewLive(protocol.ChannelVJ3350, exch, nil)

	// Ten straight failures trip the breaker (>= 10 requests, >= 60% failed).
	for i := 0; i < 10; i++ {
		got := live.Execute(context.Background(), readCmd)
		if got != "TTP00002=NAK_DeviceComm" {
			t.Fatalf("failure #%d = %q, want NAK_DeviceComm", i, got)
		}
	}
	if exch.calls != 10 {
		t.Fatalf("exchanger saw %d calls, want 10", exch.calls)
	}

	// The transport recovers, but the open breaker short-circuits without I/O.
	exch.err = nil
	exch.reply = "TTP00002=23"

	got := live.Execute(context.Background(), readCmd)
	if got != "TTP00002=NAK_DeviceDown" {
		t.Errorf("Execute with open breaker = %q, want NAK_DeviceDown", got)
	}
	if exch.calls != 10 {
		t.Errorf("exchanger saw %d calls after breaker opened, want still 10", exch.calls)
	}
}

func TestLiveMirrorFailureDoesNotChangeReply(t *testing.T) {
	t.Parallel()

	mirror := &recordingMirror{err: errors.New("database is locked")}
	live := NewLive(protocol.ChannelVJ6530, &fakeExchanger{reply: "TTP00002=23"}, mirror)

	if got := live.Execute(context.Background(), readCmd); got != "TTP00002=23" {
		t.Errorf("Execute = %q, want the device reply despite mirror failure", got)
	}
}
