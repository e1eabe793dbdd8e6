package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/orionwm/orion/internal/config"
	"github.com/orionwm/orion/internal/ipc"
)

func TestParseSelector(t *testing.T) {
	tests := []struct {
		in      string
		want    ipc.Selector
		wantErr bool
	}{
		{"window", ipc.Selector{Kind: "window"}, false},
		{"group=b", ipc.Selector{Kind: "group", Key: "b"}, false},
		{"group=1", ipc.Selector{Kind: "group", Key: "1"}, false},
		{"screen=1", ipc.Selector{Kind: "screen", Key: int64(1)}, false},
		{"window=0x400009", ipc.Selector{Kind: "window", Key: int64(0x400009)}, false},
		{"layout=x", ipc.Selector{}, true},
		{"desk=1", ipc.Selector{}, true},
	}
	for _, tt := range tests {
		got, err := parseSelector(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("parseSelector(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("parseSelector(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseArg(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"xterm", "xterm"},
		{"12", int64(12)},
		{"-3", int64(-3)},
		{"0.5", 0.5},
		{"true", true},
		{`"7"`, "7"},
		{"1 2", "1 2"},
		{"xterm -e top", "xterm -e top"},
	}
	for _, tt := range tests {
		if got := parseArg(tt.in); got != tt.want {
			t.Fatalf("parseArg(%q) = %#v, want %#v", tt.in, got, tt.want)
		}
	}
}

func TestPrintResponse(t *testing.T) {
	ok, err := ipc.NewSuccessResponse(map[string]int{"a": 1})
	if err != nil {
		t.Fatalf("NewSuccessResponse: %v", err)
	}

	var out, errOut bytes.Buffer
	if code := printResponse(&out, &errOut, ok, true); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out.String() != "{\n  \"a\": 1\n}\n" {
		t.Fatalf("indented output = %q", out.String())
	}

	out.Reset()
	printResponse(&out, &errOut, ok, false)
	if out.String() != "{\"a\":1}\n" {
		t.Fatalf("compact output = %q", out.String())
	}

	out.Reset()
	if code := printResponse(&out, &errOut, ipc.NewErrorResponse("no such object"), false); code != 1 {
		t.Fatalf("error exit code = %d", code)
	}
	if !strings.Contains(errOut.String(), "no such object") || out.Len() != 0 {
		t.Fatalf("error output = %q / %q", out.String(), errOut.String())
	}
}

func TestFormatSource(t *testing.T) {
	if got := formatSource(config.Source{Kind: config.SourceFile, File: "/c.yaml", Line: 3, Column: 5}); got != "file:/c.yaml:3:5" {
		t.Fatalf("formatSource = %q", got)
	}
	if got := formatSource(config.Source{Kind: config.SourceDefault}); got != "default" {
		t.Fatalf("formatSource = %q", got)
	}
}
