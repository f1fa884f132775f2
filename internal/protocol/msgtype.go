package protocol

import "fmt"

// MsgType 帧类型标签
// 线上为8位（帧头type字段的低字节），高3字节恒为0但按u32透传
type MsgType uint8

const (
	MsgOpen                MsgType = 0x01
	MsgPlugged             MsgType = 0x02
	MsgPhase               MsgType = 0x03
	MsgUnplugged           MsgType = 0x04
	MsgTouch               MsgType = 0x05
	MsgVideoData           MsgType = 0x06
	MsgAudioData           MsgType = 0x07
	MsgCommand             MsgType = 0x08
	MsgLogoType            MsgType = 0x09
	MsgBluetoothAddress    MsgType = 0x0a
	MsgBluetoothPIN        MsgType = 0x0c
	MsgBluetoothDeviceName MsgType = 0x0d
	MsgWifiDeviceName      MsgType = 0x0e
	MsgDisconnectPhone     MsgType = 0x0f
	MsgBluetoothPairedList MsgType = 0x12
	MsgManufacturerInfo    MsgType = 0x14
	MsgCloseDongle         MsgType = 0x15
	MsgMultiTouch          MsgType = 0x17
	MsgHiCarLink           MsgType = 0x18
	MsgBoxSettings         MsgType = 0x19
	MsgMediaData           MsgType = 0x2a
	MsgSendFile            MsgType = 0x99
	MsgHeartBeat           MsgType = 0xaa
	MsgSoftwareVersion     MsgType = 0xcc
)

var msgTypeNames = map[MsgType]string{
	MsgOpen:                "Open",
	MsgPlugged:             "Plugged",
	MsgPhase:               "Phase",
	MsgUnplugged:           "Unplugged",
	MsgTouch:               "Touch",
	MsgVideoData:           "VideoData",
	MsgAudioData:           "AudioData",
	MsgCommand:             "Command",
	MsgLogoType:            "LogoType",
	MsgBluetoothAddress:    "BluetoothAddress",
	MsgBluetoothPIN:        "BluetoothPIN",
	MsgBluetoothDeviceName: "BluetoothDeviceName",
	MsgWifiDeviceName:      "WifiDeviceName",
	MsgDisconnectPhone:     "DisconnectPhone",
	MsgBluetoothPairedList: "BluetoothPairedList",
	MsgManufacturerInfo:    "ManufacturerInfo",
	MsgCloseDongle:         "CloseDongle",
	MsgMultiTouch:          "MultiTouch",
	MsgHiCarLink:           "HiCarLink",
	MsgBoxSettings:         "BoxSettings",
	MsgMediaData:           "MediaData",
	MsgSendFile:            "SendFile",
	MsgHeartBeat:           "HeartBeat",
	MsgSoftwareVersion:     "SoftwareVersion",
}

// MsgTypeFromWire 从帧头type字段解析帧类型（仅低字节有效）
// 未登记的标签原样保留，往返编码不丢失
func MsgTypeFromWire(raw uint32) MsgType {
	return MsgType(raw & 0xFF)
}

// Known 是否为已登记的帧类型
func (t MsgType) Known() bool {
	_, ok := msgTypeNames[t]
	return ok
}

// Wire 返回线上u32表示（高3字节为0）
func (t MsgType) Wire() uint32 {
	return uint32(t)
}

func (t MsgType) String() string {
	if name, ok := msgTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(0x%02X)", uint8(t))
}
