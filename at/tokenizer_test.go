package at_test

import (
	"bufio"
	"slices"
	"strings"
	"testing"

	"widtech.dev/atfrp/at"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Simple query response",
			input:    "AT+VERSNAME=3,2,3\r\n+VERSNAME:3,13\r\nOK\r\n",
			expected: []string{"AT+VERSNAME=3,2,3", "+VERSNAME:3,13", "OK"},
		},
		{
			name:     "Command with error",
			input:    "AT+SVCIFPGM=1,4\r\n+CME ERROR: 10\r\n",
			expected: []string{"AT+SVCIFPGM=1,4", "+CME ERROR: 10"},
		},
		{
			name:     "Bare CR echo stays on the next line",
			input:    "AT+REACTIVE=1,0,0\r+REACTIVE:1,LOCK\r\nOK\r\n",
			expected: []string{"AT+REACTIVE=1,0,0\r+REACTIVE:1,LOCK", "OK"},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nAT\r\nOK\r\n\r\n",
			expected: []string{"", "", "AT", "OK", ""},
		},
		{
			name:     "Response cut off mid-stream at EOF",
			input:    "AT+DEVCONINFO\r\n+DEVCONINFO: MN(SM-G991U);",
			expected: []string{"AT+DEVCONINFO", "+DEVCONINFO: MN(SM-G991U);"},
		},
		{
			name:     "Command without CRLF at EOF",
			input:    "DVIF",
			expected: []string{"DVIF"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(at.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %q\nGot: %q",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected at.ResponseType
	}{
		{name: "OK response", input: "OK", expected: at.TypeFinal},
		{name: "ERROR response", input: "ERROR", expected: at.TypeFinal},
		{name: "CME Error", input: "+CME ERROR: 30", expected: at.TypeFinal},
		{name: "CMS Error", input: "+CMS ERROR: 500", expected: at.TypeFinal},
		{name: "Echoed command", input: "AT+SWATD=1", expected: at.TypeData},
		{name: "Version data", input: "+VERSNAME:3,13", expected: at.TypeData},
		{name: "FRP status", input: "+REACTIVE:1,LOCK", expected: at.TypeData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := at.Classify(tt.input)
			if result != tt.expected {
				t.Errorf("Expected %v, got %v for input %q", tt.expected, result, tt.input)
			}
		})
	}
}

func TestLines(t *testing.T) {
	got := at.Lines("\r\nAT+SWATD=1\r\n\r\nOK\r\n  \r\n+VERSNAME:1,SM8350")
	want := []string{"AT+SWATD=1", "OK", "+VERSNAME:1,SM8350"}
	if !slices.Equal(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}

	if lines := at.Lines(""); len(lines) != 0 {
		t.Errorf("expected no lines for empty input, got %q", lines)
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "OK\r\n+VERSNAME:3,13\r\nOK\r\n", expected: "OK"},
		{input: "OK\r\n+CME ERROR: 4\r\n", expected: "+CME ERROR: 4"},
		{input: "+VERSNAME:3,13", expected: ""},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		if got := at.Result(tt.input); got != tt.expected {
			t.Errorf("Result(%q) = %q, expected %q", tt.input, got, tt.expected)
		}
	}
}

func TestCommandWire(t *testing.T) {
	tests := []struct {
		name     string
		cmd      at.Command
		expected string
	}{
		{name: "CRLF terminated", cmd: at.CmdDeviceInfo, expected: "AT+DEVCONINFO\r\n"},
		{name: "Bare CR terminated", cmd: at.CmdFRPStatus, expected: "AT+REACTIVE=1,0,0\r"},
		{name: "Carrier preconfiguration", cmd: at.Preconfigure("VZW"), expected: "AT+PRECONFG=2,VZW\r\n"},
		{
			name:     "Semicolon batch",
			cmd:      at.Join(at.CmdParallel, at.CmdDebugLevel),
			expected: "AT+PARALLEL=2,0,00000;AT+DEBUGLVC=0,5\r\n",
		},
		{name: "Empty batch", cmd: at.Join(), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(tt.cmd.Wire()); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
