package protocol

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Sendable 主机→设备消息：每种变体自带固定帧类型与载荷编码
type Sendable interface {
	WireType() MsgType
	Payload() []byte
}

// Serialize 编码完整帧：16字节帧头 + 载荷
func Serialize(s Sendable) []byte {
	payload := s.Payload()
	out := make([]byte, 0, HeaderSize+len(payload))
	out = append(out, EncodeHeader(s.WireType(), uint32(len(payload)))...)
	return append(out, payload...)
}

func putU32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func putF32(buf []byte, v float32) []byte {
	return putU32(buf, math.Float32bits(v))
}

// SendOpen 视频会话建立请求，7个u32小端字段
type SendOpen struct {
	Width         uint32
	Height        uint32
	FPS           uint32
	Format        uint32
	PacketMax     uint32
	IBoxVersion   uint32
	PhoneWorkMode uint32
}

func (s SendOpen) WireType() MsgType { return MsgOpen }

func (s SendOpen) Payload() []byte {
	buf := make([]byte, 0, 28)
	for _, v := range []uint32{s.Width, s.Height, s.FPS, s.Format, s.PacketMax, s.IBoxVersion, s.PhoneWorkMode} {
		buf = putU32(buf, v)
	}
	return buf
}

// TouchAction 单点触控动作码（与多点触控的编码不同）
type TouchAction uint32

const (
	TouchDown TouchAction = 14
	TouchMove TouchAction = 15
	TouchUp   TouchAction = 16
)

// SendTouch 单点触控：归一化[0,1]坐标缩放到[0,10000]设备坐标，
// 越界坐标各自夹紧而非拒绝
type SendTouch struct {
	X      float32
	Y      float32
	Action TouchAction
}

func (s SendTouch) WireType() MsgType { return MsgTouch }

func (s SendTouch) Payload() []byte {
	clamp := func(v float32) uint32 {
		if v < 0 {
			return 0
		}
		if v > 10000 {
			return 10000
		}
		return uint32(v)
	}
	buf := make([]byte, 0, 16)
	buf = putU32(buf, uint32(s.Action))
	buf = putU32(buf, clamp(10000*s.X))
	buf = putU32(buf, clamp(10000*s.Y))
	buf = putU32(buf, 0) // 保留字段
	return buf
}

// MultiTouchAction 多点触控动作码（与 TouchAction 数值编码不同）
type MultiTouchAction uint32

const (
	MultiTouchUp   MultiTouchAction = 0
	MultiTouchDown MultiTouchAction = 1
	MultiTouchMove MultiTouchAction = 2
)

// TouchPoint 一个触点的输入坐标与动作
type TouchPoint struct {
	X      float32
	Y      float32
	Action MultiTouchAction
}

// SendMultiTouch 多点触控：每触点16字节定长记录顺序拼接，
// 触点id按输入序列位置分配
type SendMultiTouch struct {
	Points []TouchPoint
}

func (s SendMultiTouch) WireType() MsgType { return MsgMultiTouch }

func (s SendMultiTouch) Payload() []byte {
	buf := make([]byte, 0, 16*len(s.Points))
	for i, p := range s.Points {
		buf = putF32(buf, p.X)
		buf = putF32(buf, p.Y)
		buf = putU32(buf, uint32(p.Action))
		buf = putU32(buf, uint32(i))
	}
	return buf
}

// SendCommand 下发控制命令，单个u32小端
type SendCommand struct {
	Value CmdCode
}

func (s SendCommand) WireType() MsgType { return MsgCommand }

func (s SendCommand) Payload() []byte {
	return putU32(make([]byte, 0, 4), s.Value.Wire())
}

// FileAddress 设备侧虚拟文件路径，固定枚举，运行期不可扩展
type FileAddress int

const (
	FileDpi FileAddress = iota
	FileNightMode
	FileHandDriveMode
	FileChargeMode
	FileBoxName
	FileOemIcon
	FileAirplayConfig
	FileIcon120
	FileIcon180
	FileIcon256
	FileAndroidWorkMode
)

var fileAddressPaths = map[FileAddress]string{
	FileDpi:             "/tmp/screen_dpi",
	FileNightMode:       "/tmp/night_mode",
	FileHandDriveMode:   "/tmp/hand_drive_mode",
	FileChargeMode:      "/tmp/charge_mode",
	FileBoxName:         "/etc/box_name",
	FileOemIcon:         "/etc/oem_icon.png",
	FileAirplayConfig:   "/etc/airplay.conf",
	FileIcon120:         "/etc/icon_120x120.png",
	FileIcon180:         "/etc/icon_180x180.png",
	FileIcon256:         "/etc/icon_256x256.png",
	FileAndroidWorkMode: "/etc/android_work_mode",
}

// Path 返回设备侧路径串
func (f FileAddress) Path() string { return fileAddressPaths[f] }

// SendFile 设备文件写入原语：
// len(name+NUL):u32 + name(NUL结尾) + len(content):u32 + content
type SendFile struct {
	Name    string
	Content []byte
}

func (s SendFile) WireType() MsgType { return MsgSendFile }

func (s SendFile) Payload() []byte {
	name := append([]byte(s.Name), 0)
	buf := make([]byte, 0, 8+len(name)+len(s.Content))
	buf = putU32(buf, uint32(len(name)))
	buf = append(buf, name...)
	buf = putU32(buf, uint32(len(s.Content)))
	return append(buf, s.Content...)
}

// NewSendNumber 写4字节小端整数到指定设备文件
func NewSendNumber(value uint32, file FileAddress) SendFile {
	return SendFile{Name: file.Path(), Content: putU32(make([]byte, 0, 4), value)}
}

// NewSendBoolean 写0/1到指定设备文件
func NewSendBoolean(value bool, file FileAddress) SendFile {
	v := uint32(0)
	if value {
		v = 1
	}
	return NewSendNumber(v, file)
}

// NewSendString 写UTF-8串到指定设备文件
// 超过16字节仅告警，不作硬失败
func NewSendString(value string, file FileAddress) SendFile {
	if len(value) > 16 {
		zap.L().Warn("string too long for device file", zap.String("file", file.Path()), zap.Int("len", len(value)))
	}
	return SendFile{Name: file.Path(), Content: []byte(value)}
}

// SendBoxSettings 盒子运行参数JSON
// SyncTime 为主机epoch毫秒，零值时编码当前墙钟
type SendBoxSettings struct {
	MediaDelay uint32
	SyncTime   uint64
	Width      uint32
	Height     uint32
}

func (s SendBoxSettings) WireType() MsgType { return MsgBoxSettings }

func (s SendBoxSettings) Payload() []byte {
	syncTime := s.SyncTime
	if syncTime == 0 {
		syncTime = uint64(time.Now().UnixMilli())
	}
	payload, _ := json.Marshal(struct {
		MediaDelay       uint32 `json:"media_delay"`
		SyncTime         uint64 `json:"sync_time"`
		AndroidAutoSizeW uint32 `json:"android_auto_size_w"`
		AndroidAutoSizeH uint32 `json:"android_auto_size_h"`
	}{s.MediaDelay, syncTime, s.Width, s.Height})
	return payload
}

// SendHeartBeat 心跳帧，仅帧头
type SendHeartBeat struct{}

func (SendHeartBeat) WireType() MsgType { return MsgHeartBeat }
func (SendHeartBeat) Payload() []byte   { return nil }

// SendCloseDongle 关闭盒子，仅帧头
type SendCloseDongle struct{}

func (SendCloseDongle) WireType() MsgType { return MsgCloseDongle }
func (SendCloseDongle) Payload() []byte   { return nil }

// SendDisconnectPhone 断开手机，仅帧头
type SendDisconnectPhone struct{}

func (SendDisconnectPhone) WireType() MsgType { return MsgDisconnectPhone }
func (SendDisconnectPhone) Payload() []byte   { return nil }

// LogoType 界面Logo选择
type LogoType uint32

const (
	LogoHomeButton LogoType = 1
	LogoSiri       LogoType = 2
)

// SendLogoType 下发Logo选择，单个u32小端
type SendLogoType struct {
	Logo LogoType
}

func (s SendLogoType) WireType() MsgType { return MsgLogoType }

func (s SendLogoType) Payload() []byte {
	return putU32(make([]byte, 0, 4), uint32(s.Logo))
}

// SendAudio 主机→设备音频（麦克风直通）：固定12字节头
// （decode_type=5, volume=0, audio_type=3）+ i16小端采样
type SendAudio struct {
	Samples []int16
}

func (s SendAudio) WireType() MsgType { return MsgAudioData }

func (s SendAudio) Payload() []byte {
	buf := make([]byte, 0, audioFixedHeaderSize+2*len(s.Samples))
	buf = putU32(buf, 5)
	buf = putF32(buf, 0)
	buf = putU32(buf, 3)
	for _, sample := range s.Samples {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(sample))
		buf = append(buf, b[:]...)
	}
	return buf
}

// NewSendIconConfig 生成airplay.conf文件写入
// Label 可为空，非空时追加oemIconLabel项
func NewSendIconConfig(label string) SendFile {
	entries := []string{
		"oemIconVisible = 1",
		"name = AutoBox",
		"model = Magic-Car-Link-1.00",
		"oemIconPath = " + FileOemIcon.Path(),
	}
	if label != "" {
		entries = append(entries, "oemIconLabel = "+label)
	}
	return SendFile{
		Name:    FileAirplayConfig.Path(),
		Content: []byte(strings.Join(entries, "\n") + "\n"),
	}
}
