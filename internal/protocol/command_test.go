package protocol

import "testing"

func TestCmdFromWireRoundTrip(t *testing.T) {
	// 所有已登记命令码往返不变
	for code := range cmdNames {
		if got := CmdFromWire(code.Wire()); got != code {
			t.Errorf("CmdFromWire(%d) = %v, expected %v", code.Wire(), got, code)
		}
	}
}

func TestCmdFromWireUnknown(t *testing.T) {
	tests := []struct {
		name string
		wire uint32
	}{
		{name: "未登记值9999", wire: 9999},
		{name: "命令码空洞4", wire: 4},
		{name: "最大u32", wire: 0xFFFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CmdFromWire(tt.wire); got != CmdInvalid {
				t.Errorf("CmdFromWire(%d) = %v, expected Invalid", tt.wire, got)
			}
		})
	}
}

func TestParseCmd(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected CmdCode
		ok       bool
	}{
		{name: "已知命令", input: "WifiEnable", expected: CmdWifiEnable, ok: true},
		{name: "已知命令StartRecordAudio", input: "StartRecordAudio", expected: CmdStartRecordAudio, ok: true},
		{name: "未知命令", input: "NoSuchCommand", expected: 0, ok: false},
		{name: "大小写敏感", input: "wifienable", expected: 0, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCmd(tt.input)
			if ok != tt.ok || got != tt.expected {
				t.Errorf("ParseCmd(%q) = (%v, %v), expected (%v, %v)", tt.input, got, ok, tt.expected, tt.ok)
			}
		})
	}
}

func TestCmdString(t *testing.T) {
	if got := CmdSiri.String(); got != "Siri" {
		t.Errorf("String() = %q, expected %q", got, "Siri")
	}
	if got := CmdCode(9999).String(); got != "Invalid(9999)" {
		t.Errorf("String() = %q, expected %q", got, "Invalid(9999)")
	}
}
