package protocol

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"strings"
	"testing"
)

func TestSerializeFrameLayout(t *testing.T) {
	// 完整帧 = 自洽帧头 + 载荷；帧头可被解码端接受
	frame := Serialize(SendCommand{Value: CmdWifiEnable})
	if len(frame) != HeaderSize+4 {
		t.Fatalf("frame length = %d, expected %d", len(frame), HeaderSize+4)
	}
	h, err := DecodeHeader(frame[:HeaderSize])
	if err != nil {
		t.Fatalf("DecodeHeader() error = %v", err)
	}
	if h.Type != MsgCommand || h.Length != 4 {
		t.Errorf("header = %+v", h)
	}
	if binary.LittleEndian.Uint32(frame[HeaderSize:]) != 1000 {
		t.Errorf("payload = %v, expected WifiEnable(1000)", frame[HeaderSize:])
	}
}

func TestSerializeHeaderOnly(t *testing.T) {
	tests := []struct {
		name string
		msg  Sendable
		tag  MsgType
	}{
		{name: "心跳", msg: SendHeartBeat{}, tag: MsgHeartBeat},
		{name: "关闭盒子", msg: SendCloseDongle{}, tag: MsgCloseDongle},
		{name: "断开手机", msg: SendDisconnectPhone{}, tag: MsgDisconnectPhone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := Serialize(tt.msg)
			if len(frame) != HeaderSize {
				t.Fatalf("frame length = %d, expected header only", len(frame))
			}
			h, err := DecodeHeader(frame)
			if err != nil {
				t.Fatalf("DecodeHeader() error = %v", err)
			}
			if h.Type != tt.tag || h.Length != 0 {
				t.Errorf("header = %+v", h)
			}
		})
	}
}

func TestSendOpenPayload(t *testing.T) {
	payload := SendOpen{
		Width: 800, Height: 640, FPS: 20, Format: 5,
		PacketMax: 49152, IBoxVersion: 2, PhoneWorkMode: 2,
	}.Payload()
	expected := u32le(800, 640, 20, 5, 49152, 2, 2)
	if !bytes.Equal(payload, expected) {
		t.Errorf("Payload() = %v, expected %v", payload, expected)
	}
}

func TestSendTouchScaling(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float32
		action TouchAction
		wantX  uint32
		wantY  uint32
	}{
		{name: "中心点按下", x: 0.5, y: 0.5, action: TouchDown, wantX: 5000, wantY: 5000},
		{name: "越界坐标各自夹紧", x: -1.0, y: 2.0, action: TouchDown, wantX: 0, wantY: 10000},
		{name: "原点抬起", x: 0, y: 0, action: TouchUp, wantX: 0, wantY: 0},
		{name: "右下角移动", x: 1.0, y: 1.0, action: TouchMove, wantX: 10000, wantY: 10000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := SendTouch{X: tt.x, Y: tt.y, Action: tt.action}.Payload()
			if len(payload) != 16 {
				t.Fatalf("payload length = %d, expected 16", len(payload))
			}
			if got := binary.LittleEndian.Uint32(payload[0:4]); got != uint32(tt.action) {
				t.Errorf("action = %d, expected %d", got, tt.action)
			}
			if got := binary.LittleEndian.Uint32(payload[4:8]); got != tt.wantX {
				t.Errorf("x = %d, expected %d", got, tt.wantX)
			}
			if got := binary.LittleEndian.Uint32(payload[8:12]); got != tt.wantY {
				t.Errorf("y = %d, expected %d", got, tt.wantY)
			}
			if got := binary.LittleEndian.Uint32(payload[12:16]); got != 0 {
				t.Errorf("reserved = %d, expected 0", got)
			}
		})
	}
}

func TestSendMultiTouchRecords(t *testing.T) {
	// 每触点16字节，id按位置分配；动作编码与单点触控不同
	payload := SendMultiTouch{Points: []TouchPoint{
		{X: 0.25, Y: 0.75, Action: MultiTouchDown},
		{X: 0.5, Y: 0.5, Action: MultiTouchMove},
	}}.Payload()
	if len(payload) != 32 {
		t.Fatalf("payload length = %d, expected 32", len(payload))
	}
	if got := binary.LittleEndian.Uint32(payload[8:12]); got != uint32(MultiTouchDown) {
		t.Errorf("point0 action = %d, expected %d", got, MultiTouchDown)
	}
	if got := binary.LittleEndian.Uint32(payload[12:16]); got != 0 {
		t.Errorf("point0 id = %d, expected 0", got)
	}
	if got := binary.LittleEndian.Uint32(payload[28:32]); got != 1 {
		t.Errorf("point1 id = %d, expected 1", got)
	}
}

func TestSendFileLayout(t *testing.T) {
	payload := SendFile{Name: "/tmp/night_mode", Content: []byte{1, 0, 0, 0}}.Payload()

	nameLen := binary.LittleEndian.Uint32(payload[0:4])
	// 文件名含NUL结尾
	if nameLen != uint32(len("/tmp/night_mode")+1) {
		t.Fatalf("name length = %d", nameLen)
	}
	name := payload[4 : 4+nameLen]
	if string(name[:nameLen-1]) != "/tmp/night_mode" || name[nameLen-1] != 0 {
		t.Errorf("name bytes = %q", name)
	}
	rest := payload[4+nameLen:]
	contentLen := binary.LittleEndian.Uint32(rest[0:4])
	if contentLen != 4 {
		t.Errorf("content length = %d, expected 4", contentLen)
	}
	if !bytes.Equal(rest[4:], []byte{1, 0, 0, 0}) {
		t.Errorf("content = %v", rest[4:])
	}
}

func TestSendNumberAndBoolean(t *testing.T) {
	f := NewSendNumber(160, FileDpi)
	if f.Name != "/tmp/screen_dpi" {
		t.Errorf("Name = %q", f.Name)
	}
	if !bytes.Equal(f.Content, u32le(160)) {
		t.Errorf("Content = %v", f.Content)
	}

	b := NewSendBoolean(true, FileChargeMode)
	if b.Name != "/tmp/charge_mode" || !bytes.Equal(b.Content, u32le(1)) {
		t.Errorf("boolean file = %+v", b)
	}
	b = NewSendBoolean(false, FileNightMode)
	if !bytes.Equal(b.Content, u32le(0)) {
		t.Errorf("Content = %v, expected zero", b.Content)
	}
}

func TestSendBoxSettingsJSON(t *testing.T) {
	payload := SendBoxSettings{MediaDelay: 300, SyncTime: 1700000000000, Width: 800, Height: 640}.Payload()
	var got struct {
		MediaDelay       uint32 `json:"media_delay"`
		SyncTime         uint64 `json:"sync_time"`
		AndroidAutoSizeW uint32 `json:"android_auto_size_w"`
		AndroidAutoSizeH uint32 `json:"android_auto_size_h"`
	}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if got.MediaDelay != 300 || got.SyncTime != 1700000000000 ||
		got.AndroidAutoSizeW != 800 || got.AndroidAutoSizeH != 640 {
		t.Errorf("settings = %+v", got)
	}
}

func TestSendBoxSettingsSyncTimeDefault(t *testing.T) {
	// SyncTime零值回落为当前墙钟
	payload := SendBoxSettings{MediaDelay: 300}.Payload()
	var got map[string]any
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if st, ok := got["sync_time"].(float64); !ok || st <= 0 {
		t.Errorf("sync_time = %v, expected wall clock", got["sync_time"])
	}
}

func TestSendLogoTypePayload(t *testing.T) {
	payload := SendLogoType{Logo: LogoSiri}.Payload()
	if !bytes.Equal(payload, u32le(2)) {
		t.Errorf("Payload() = %v", payload)
	}
}

func TestSendAudioPayload(t *testing.T) {
	// 固定12字节头（decode_type=5, volume=0, audio_type=3）+ 采样
	payload := SendAudio{Samples: []int16{-2, 3}}.Payload()
	if len(payload) != 16 {
		t.Fatalf("payload length = %d, expected 16", len(payload))
	}
	if binary.LittleEndian.Uint32(payload[0:4]) != 5 {
		t.Errorf("decode_type = %d, expected 5", binary.LittleEndian.Uint32(payload[0:4]))
	}
	if binary.LittleEndian.Uint32(payload[4:8]) != 0 {
		t.Errorf("volume bits = %d, expected 0", binary.LittleEndian.Uint32(payload[4:8]))
	}
	if binary.LittleEndian.Uint32(payload[8:12]) != 3 {
		t.Errorf("audio_type = %d, expected 3", binary.LittleEndian.Uint32(payload[8:12]))
	}
	if int16(binary.LittleEndian.Uint16(payload[12:14])) != -2 {
		t.Errorf("sample0 = %d, expected -2", int16(binary.LittleEndian.Uint16(payload[12:14])))
	}
}

func TestNewSendIconConfig(t *testing.T) {
	f := NewSendIconConfig("MyCar")
	if f.Name != "/etc/airplay.conf" {
		t.Errorf("Name = %q", f.Name)
	}
	content := string(f.Content)
	for _, entry := range []string{"oemIconVisible = 1", "oemIconPath = /etc/oem_icon.png", "oemIconLabel = MyCar"} {
		if !strings.Contains(content, entry) {
			t.Errorf("content missing %q:\n%s", entry, content)
		}
	}

	f = NewSendIconConfig("")
	if strings.Contains(string(f.Content), "oemIconLabel") {
		t.Errorf("empty label should omit oemIconLabel entry")
	}
}

func TestFileAddressPaths(t *testing.T) {
	tests := []struct {
		file FileAddress
		path string
	}{
		{FileDpi, "/tmp/screen_dpi"},
		{FileHandDriveMode, "/tmp/hand_drive_mode"},
		{FileBoxName, "/etc/box_name"},
		{FileAndroidWorkMode, "/etc/android_work_mode"},
	}
	for _, tt := range tests {
		if got := tt.file.Path(); got != tt.path {
			t.Errorf("Path(%d) = %q, expected %q", tt.file, got, tt.path)
		}
	}
}
