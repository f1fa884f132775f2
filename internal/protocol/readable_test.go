package protocol

import (
	"encoding/binary"
	"errors"
	"testing"
)

func hdr(t MsgType, length int) Header {
	return Header{Length: uint32(length), Type: t, RawType: t.Wire()}
}

func u32le(vs ...uint32) []byte {
	buf := make([]byte, 0, 4*len(vs))
	for _, v := range vs {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], v)
		buf = append(buf, b[:]...)
	}
	return buf
}

func TestDecodeMessageCommand(t *testing.T) {
	// u32=1 的Command帧端到端解码为 StartRecordAudio
	msg, err := DecodeMessage(hdr(MsgCommand, 4), u32le(1))
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	cmd, ok := msg.(Command)
	if !ok {
		t.Fatalf("DecodeMessage() = %T, expected Command", msg)
	}
	if cmd.Value != CmdStartRecordAudio {
		t.Errorf("Value = %v, expected StartRecordAudio", cmd.Value)
	}
}

func TestDecodeMessageCommandUnknownCode(t *testing.T) {
	msg, err := DecodeMessage(hdr(MsgCommand, 4), u32le(9999))
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if cmd := msg.(Command); cmd.Value != CmdInvalid {
		t.Errorf("Value = %v, expected Invalid", cmd.Value)
	}
}

func TestDecodeMessageUnplugged(t *testing.T) {
	// 无载荷帧：payload为nil
	msg, err := DecodeMessage(hdr(MsgUnplugged, 0), nil)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if _, ok := msg.(Unplugged); !ok {
		t.Errorf("DecodeMessage() = %T, expected Unplugged", msg)
	}
}

func TestDecodeMessageUnknownTag(t *testing.T) {
	// 未登记标签0x42走兜底出口，不报错
	msg, err := DecodeMessage(hdr(MsgType(0x42), 3), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	u, ok := msg.(Unknown)
	if !ok {
		t.Fatalf("DecodeMessage() = %T, expected Unknown", msg)
	}
	if u.Header().Type != MsgType(0x42) {
		t.Errorf("Header().Type = %v, expected 0x42", u.Header().Type)
	}
}

func TestDecodeMessagePlugged(t *testing.T) {
	tests := []struct {
		name     string
		payload  []byte
		phone    PhoneType
		wantWifi bool
	}{
		{name: "4字节无wifi标志", payload: u32le(3), phone: PhoneCarPlay, wantWifi: false},
		{name: "8字节带wifi标志", payload: u32le(5, 1), phone: PhoneAndroidAuto, wantWifi: true},
		{name: "未登记手机类型", payload: u32le(99), phone: PhoneUnknown, wantWifi: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage(hdr(MsgPlugged, len(tt.payload)), tt.payload)
			if err != nil {
				t.Fatalf("DecodeMessage() error = %v", err)
			}
			p := msg.(Plugged)
			if p.PhoneType != tt.phone {
				t.Errorf("PhoneType = %v, expected %v", p.PhoneType, tt.phone)
			}
			if (p.Wifi != nil) != tt.wantWifi {
				t.Errorf("Wifi presence = %v, expected %v", p.Wifi != nil, tt.wantWifi)
			}
		})
	}
}

func TestDecodeMessageOpened(t *testing.T) {
	payload := u32le(800, 640, 20, 5, 49152, 2, 2)
	msg, err := DecodeMessage(hdr(MsgOpen, len(payload)), payload)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	o := msg.(Opened)
	if o.Width != 800 || o.Height != 640 || o.FPS != 20 || o.Format != 5 ||
		o.PacketMax != 49152 || o.IBox != 2 || o.PhoneMode != 2 {
		t.Errorf("Opened fields = %+v", o)
	}
}

func TestDecodeMessageVideoData(t *testing.T) {
	// 零值子头 + N字节ES数据
	es := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	payload := append(u32le(0, 0, 0, 0, 0), es...)
	msg, err := DecodeMessage(hdr(MsgVideoData, len(payload)), payload)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	v := msg.(VideoData)
	if len(v.Data) != len(es) {
		t.Fatalf("Data length = %d, expected %d", len(v.Data), len(es))
	}
	for i := range es {
		if v.Data[i] != es[i] {
			t.Errorf("Data[%d] = 0x%02X, expected 0x%02X", i, v.Data[i], es[i])
		}
	}
}

func TestDecodeMessageVideoDataShort(t *testing.T) {
	// 子头不足20字节必须上抛解码错误
	if _, err := DecodeMessage(hdr(MsgVideoData, 19), make([]byte, 19)); !errors.Is(err, ErrShortPayload) {
		t.Errorf("DecodeMessage() error = %v, expected ErrShortPayload", err)
	}
}

func TestDecodeMessageStrings(t *testing.T) {
	tests := []struct {
		name    string
		tag     MsgType
		payload []byte
		check   func(Message) (string, bool)
	}{
		{
			name:    "固件版本",
			tag:     MsgSoftwareVersion,
			payload: []byte("2023.10.27"),
			check:   func(m Message) (string, bool) { v, ok := m.(SoftwareVersion); return v.Version, ok },
		},
		{
			name:    "蓝牙地址",
			tag:     MsgBluetoothAddress,
			payload: []byte("AA:BB:CC:DD:EE:FF"),
			check:   func(m Message) (string, bool) { v, ok := m.(BluetoothAddress); return v.Address, ok },
		},
		{
			name:    "热点名",
			tag:     MsgWifiDeviceName,
			payload: []byte("AutoBox-5G"),
			check:   func(m Message) (string, bool) { v, ok := m.(WifiDeviceName); return v.Name, ok },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage(hdr(tt.tag, len(tt.payload)), tt.payload)
			if err != nil {
				t.Fatalf("DecodeMessage() error = %v", err)
			}
			got, ok := tt.check(msg)
			if !ok {
				t.Fatalf("DecodeMessage() = %T, unexpected variant", msg)
			}
			if got != string(tt.payload) {
				t.Errorf("string = %q, expected %q", got, string(tt.payload))
			}
		})
	}
}

func TestDecodeMessageStringLossy(t *testing.T) {
	// 非法UTF-8序列替换为占位符而不失败
	payload := []byte{'v', 0xFF, '1'}
	msg, err := DecodeMessage(hdr(MsgSoftwareVersion, len(payload)), payload)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	v := msg.(SoftwareVersion)
	if v.Version != "v�1" {
		t.Errorf("Version = %q, expected lossy replacement", v.Version)
	}
}

func TestDecodeMessagePayloadlessDegrade(t *testing.T) {
	// 期望有载荷的标签在载荷读取失败（nil）时降级走兜底出口，不报错
	msg, err := DecodeMessage(hdr(MsgCommand, 4), nil)
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	if _, ok := msg.(Unknown); !ok {
		t.Errorf("DecodeMessage() = %T, expected Unknown fallback", msg)
	}
}

func TestDecodeMessageMarker(t *testing.T) {
	// 主机形帧经分发器回转时解码为占位消息
	for _, tag := range []MsgType{MsgTouch, MsgMultiTouch, MsgLogoType, MsgSendFile, MsgDisconnectPhone, MsgCloseDongle} {
		msg, err := DecodeMessage(hdr(tag, 0), nil)
		if err != nil {
			t.Fatalf("DecodeMessage(%v) error = %v", tag, err)
		}
		m, ok := msg.(Marker)
		if !ok {
			t.Fatalf("DecodeMessage(%v) = %T, expected Marker", tag, msg)
		}
		if m.Header().Type != tag {
			t.Errorf("Header().Type = %v, expected %v", m.Header().Type, tag)
		}
	}
}

func TestDecodeMessageManufacturerInfo(t *testing.T) {
	msg, err := DecodeMessage(hdr(MsgManufacturerInfo, 8), u32le(7, 9))
	if err != nil {
		t.Fatalf("DecodeMessage() error = %v", err)
	}
	m := msg.(ManufacturerInfo)
	if m.A != 7 || m.B != 9 {
		t.Errorf("ManufacturerInfo = {A:%d B:%d}, expected {A:7 B:9}", m.A, m.B)
	}
}

func TestDecodeMessageShortFixedPayload(t *testing.T) {
	tests := []struct {
		name    string
		tag     MsgType
		payload []byte
	}{
		{name: "Command载荷不足4字节", tag: MsgCommand, payload: []byte{1, 0}},
		{name: "Phase载荷不足4字节", tag: MsgPhase, payload: []byte{1}},
		{name: "Opened载荷不足28字节", tag: MsgOpen, payload: u32le(800, 640)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeMessage(hdr(tt.tag, len(tt.payload)), tt.payload); !errors.Is(err, ErrShortPayload) {
				t.Errorf("DecodeMessage() error = %v, expected ErrShortPayload", err)
			}
		})
	}
}
