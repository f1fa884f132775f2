package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrShortPayload 定长结构载荷长度不足
	// 参考实现对此直接越界崩溃，这里显式上抛解码错误
	ErrShortPayload = errors.New("payload too short")
)

// Message 解码后的消息（设备→主机，以及为对称性经同一分发器回转的
// 主机侧帧形）。每条消息持有解析它的帧头，构造后不可变
type Message interface {
	Header() Header
}

// PhoneType 手机接入类型
type PhoneType uint32

const (
	PhoneAndroidMirror PhoneType = 1
	PhoneCarPlay       PhoneType = 3
	PhoneIphoneMirror  PhoneType = 4
	PhoneAndroidAuto   PhoneType = 5
	PhoneHiCar         PhoneType = 6
	PhoneUnknown       PhoneType = 255
)

// PhoneTypeFromWire 未登记的取值回落为 PhoneUnknown
func PhoneTypeFromWire(v uint32) PhoneType {
	switch PhoneType(v) {
	case PhoneAndroidMirror, PhoneCarPlay, PhoneIphoneMirror, PhoneAndroidAuto, PhoneHiCar:
		return PhoneType(v)
	default:
		return PhoneUnknown
	}
}

func (p PhoneType) String() string {
	switch p {
	case PhoneAndroidMirror:
		return "AndroidMirror"
	case PhoneCarPlay:
		return "CarPlay"
	case PhoneIphoneMirror:
		return "IphoneMirror"
	case PhoneAndroidAuto:
		return "AndroidAuto"
	case PhoneHiCar:
		return "HiCar"
	default:
		return "Unknown"
	}
}

// Opened 视频会话参数回读（Open帧的应答）
type Opened struct {
	H         Header
	Width     uint32
	Height    uint32
	FPS       uint32
	Format    uint32
	PacketMax uint32
	IBox      uint32
	PhoneMode uint32
}

func (m Opened) Header() Header { return m.H }

// Plugged 手机接入事件；载荷8字节时附带wifi标志
type Plugged struct {
	H         Header
	PhoneType PhoneType
	Wifi      *uint32
}

func (m Plugged) Header() Header { return m.H }

// Unplugged 手机断开事件，无载荷
type Unplugged struct {
	H Header
}

func (m Unplugged) Header() Header { return m.H }

// Phase 连接阶段变化
type Phase struct {
	H     Header
	Phase uint32
}

func (m Phase) Header() Header { return m.H }

// VideoData 视频基本流分片
// 20字节子头之后为原始ES数据，Data 的所有权随消息转移，不做拷贝
type VideoData struct {
	H       Header
	Width   uint32
	Height  uint32
	Flags   uint32
	Length  uint32
	Unknown uint32
	Data    []byte
}

func (m VideoData) Header() Header { return m.H }

// Command 设备上报的控制命令
type Command struct {
	H     Header
	Value CmdCode
}

func (m Command) Header() Header { return m.H }

// ManufacturerInfo 厂商信息（两个未明确语义的u32字段）
type ManufacturerInfo struct {
	H Header
	A uint32
	B uint32
}

func (m ManufacturerInfo) Header() Header { return m.H }

// SoftwareVersion 盒子固件版本串
type SoftwareVersion struct {
	H       Header
	Version string
}

func (m SoftwareVersion) Header() Header { return m.H }

// BluetoothAddress 盒子蓝牙地址
type BluetoothAddress struct {
	H       Header
	Address string
}

func (m BluetoothAddress) Header() Header { return m.H }

// BluetoothPIN 蓝牙配对PIN
type BluetoothPIN struct {
	H   Header
	PIN string
}

func (m BluetoothPIN) Header() Header { return m.H }

// BluetoothDeviceName 蓝牙设备名
type BluetoothDeviceName struct {
	H    Header
	Name string
}

func (m BluetoothDeviceName) Header() Header { return m.H }

// WifiDeviceName 无线热点名
type WifiDeviceName struct {
	H    Header
	Name string
}

func (m WifiDeviceName) Header() Header { return m.H }

// HiCarLink HiCar 连接串
type HiCarLink struct {
	H    Header
	Link string
}

func (m HiCarLink) Header() Header { return m.H }

// BluetoothPairedList 已配对设备列表（设备侧自定义文本格式，原样透出）
type BluetoothPairedList struct {
	H    Header
	Data string
}

func (m BluetoothPairedList) Header() Header { return m.H }

// HeartBeat 设备回发的心跳，无载荷
type HeartBeat struct {
	H Header
}

func (m HeartBeat) Header() Header { return m.H }

// Marker 主机侧帧形（Touch/MultiTouch/LogoType/SendFile/DisconnectPhone/
// CloseDongle）经分发器回转时的零字段占位，帧类型见 H.Type
type Marker struct {
	H Header
}

func (m Marker) Header() Header { return m.H }

// Unknown 未登记帧类型的兜底出口，仅携带帧头，永不报错
type Unknown struct {
	H Header
}

func (m Unknown) Header() Header { return m.H }

// lossyString 整段载荷按UTF-8宽容解码，非法序列替换而不失败
func lossyString(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}

// cursor 定长小端字段读取游标，越界即报错
type cursor struct {
	b   []byte
	off int
}

func (c *cursor) u32() (uint32, error) {
	if c.off+4 > len(c.b) {
		return 0, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrShortPayload, 4, c.off, len(c.b))
	}
	v := binary.LittleEndian.Uint32(c.b[c.off:])
	c.off += 4
	return v, nil
}

func (c *cursor) f32() (float32, error) {
	v, err := c.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// DecodeMessage 将已校验的帧头与载荷分发为唯一一种消息
// payload 为nil表示帧无载荷（header.Length==0，或载荷读取失败后的降级
// 分发）。定长结构解码失败上抛错误；未登记标签走 Unknown 出口
func DecodeMessage(h Header, payload []byte) (Message, error) {
	hasPayload := payload != nil

	switch h.Type {
	case MsgCommand:
		if hasPayload {
			return decodeCommand(h, payload)
		}
	case MsgManufacturerInfo:
		if hasPayload {
			return decodeManufacturerInfo(h, payload)
		}
	case MsgSoftwareVersion:
		if hasPayload {
			return SoftwareVersion{H: h, Version: lossyString(payload)}, nil
		}
	case MsgBluetoothAddress:
		if hasPayload {
			return BluetoothAddress{H: h, Address: lossyString(payload)}, nil
		}
	case MsgBluetoothPIN:
		if hasPayload {
			return BluetoothPIN{H: h, PIN: lossyString(payload)}, nil
		}
	case MsgBluetoothDeviceName:
		if hasPayload {
			return BluetoothDeviceName{H: h, Name: lossyString(payload)}, nil
		}
	case MsgWifiDeviceName:
		if hasPayload {
			return WifiDeviceName{H: h, Name: lossyString(payload)}, nil
		}
	case MsgHiCarLink:
		if hasPayload {
			return HiCarLink{H: h, Link: lossyString(payload)}, nil
		}
	case MsgBluetoothPairedList:
		if hasPayload {
			return BluetoothPairedList{H: h, Data: lossyString(payload)}, nil
		}
	case MsgPlugged:
		if hasPayload {
			return decodePlugged(h, payload)
		}
	case MsgAudioData:
		if hasPayload {
			return decodeAudioData(h, payload)
		}
	case MsgVideoData:
		if hasPayload {
			return decodeVideoData(h, payload)
		}
	case MsgMediaData:
		if hasPayload {
			return decodeMediaData(h, payload)
		}
	case MsgBoxSettings:
		if hasPayload {
			return decodeBoxInfo(h, payload)
		}
	case MsgPhase:
		if hasPayload {
			return decodePhase(h, payload)
		}
	case MsgOpen:
		if hasPayload {
			return decodeOpened(h, payload)
		}
	case MsgUnplugged:
		return Unplugged{H: h}, nil
	case MsgHeartBeat:
		return HeartBeat{H: h}, nil
	case MsgTouch, MsgMultiTouch, MsgLogoType, MsgSendFile, MsgDisconnectPhone, MsgCloseDongle:
		return Marker{H: h}, nil
	}

	// 未登记标签，或已登记标签但载荷存在性不符合预期：统一走兜底出口。
	zap.L().Debug("unsupported frame", zap.Stringer("type", h.Type), zap.Uint32("length", h.Length), zap.Bool("payload", hasPayload))
	return Unknown{H: h}, nil
}

func decodeCommand(h Header, payload []byte) (Message, error) {
	c := cursor{b: payload}
	v, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("decode Command: %w", err)
	}
	return Command{H: h, Value: CmdFromWire(v)}, nil
}

func decodeManufacturerInfo(h Header, payload []byte) (Message, error) {
	c := cursor{b: payload}
	m := ManufacturerInfo{H: h}
	var err error
	if m.A, err = c.u32(); err != nil {
		return nil, fmt.Errorf("decode ManufacturerInfo: %w", err)
	}
	if m.B, err = c.u32(); err != nil {
		return nil, fmt.Errorf("decode ManufacturerInfo: %w", err)
	}
	return m, nil
}

func decodePlugged(h Header, payload []byte) (Message, error) {
	c := cursor{b: payload}
	v, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("decode Plugged: %w", err)
	}
	m := Plugged{H: h, PhoneType: PhoneTypeFromWire(v)}
	if len(payload) == 8 {
		wifi, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("decode Plugged: %w", err)
		}
		m.Wifi = &wifi
	}
	return m, nil
}

func decodePhase(h Header, payload []byte) (Message, error) {
	c := cursor{b: payload}
	v, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("decode Phase: %w", err)
	}
	return Phase{H: h, Phase: v}, nil
}

func decodeOpened(h Header, payload []byte) (Message, error) {
	c := cursor{b: payload}
	m := Opened{H: h}
	fields := []*uint32{&m.Width, &m.Height, &m.FPS, &m.Format, &m.PacketMax, &m.IBox, &m.PhoneMode}
	for _, f := range fields {
		v, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("decode Opened: %w", err)
		}
		*f = v
	}
	return m, nil
}

// videoSubHeaderSize 视频分片子头：width/height/flags/length/unknown 各u32
const videoSubHeaderSize = 20

func decodeVideoData(h Header, payload []byte) (Message, error) {
	if len(payload) < videoSubHeaderSize {
		return nil, fmt.Errorf("decode VideoData: %w: have %d, need %d", ErrShortPayload, len(payload), videoSubHeaderSize)
	}
	c := cursor{b: payload[:videoSubHeaderSize]}
	m := VideoData{H: h}
	fields := []*uint32{&m.Width, &m.Height, &m.Flags, &m.Length, &m.Unknown}
	for _, f := range fields {
		v, err := c.u32()
		if err != nil {
			return nil, fmt.Errorf("decode VideoData: %w", err)
		}
		*f = v
	}
	m.Data = payload[videoSubHeaderSize:]
	return m, nil
}
