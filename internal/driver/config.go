package driver

import "github.com/taoyao-code/carlink-driver/internal/protocol"

// HandDriveType 方向盘位置
type HandDriveType uint32

const (
	HandLeft  HandDriveType = 0
	HandRight HandDriveType = 1
)

// WifiType 盒子热点频段
type WifiType int

const (
	Wifi24Ghz WifiType = iota
	Wifi5Ghz
)

// MicType 麦克风来源
type MicType int

const (
	MicBox MicType = iota
	MicOS
)

// PhoneTypeConfig 按手机类型的细分调优
type PhoneTypeConfig struct {
	FrameInterval *uint32
}

// DongleConfig 盒子配置值对象：由调用方创建一次，握手期间按消息
// 取值使用，之后不再修改
type DongleConfig struct {
	AndroidWorkMode   *bool
	Width             uint32
	Height            uint32
	FPS               uint32
	DPI               uint32
	Format            uint32
	IBoxVersion       uint32
	PacketMax         uint32
	PhoneWorkMode     uint32
	NightMode         bool
	BoxName           string
	Hand              HandDriveType
	MediaDelay        uint32
	AudioTransferMode bool
	WifiType          WifiType
	MicType           MicType
	PhoneConfig       map[protocol.PhoneType]PhoneTypeConfig
}

// DefaultConfig 协议默认参数
func DefaultConfig() DongleConfig {
	carplayInterval := uint32(5000)
	return DongleConfig{
		Width:             800,
		Height:            640,
		FPS:               20,
		DPI:               160,
		Format:            5,
		IBoxVersion:       2,
		PhoneWorkMode:     2,
		PacketMax:         49152,
		BoxName:           "nodePlay",
		NightMode:         false,
		Hand:              HandLeft,
		MediaDelay:        300,
		AudioTransferMode: false,
		WifiType:          Wifi5Ghz,
		MicType:           MicOS,
		PhoneConfig: map[protocol.PhoneType]PhoneTypeConfig{
			protocol.PhoneCarPlay:     {FrameInterval: &carplayInterval},
			protocol.PhoneAndroidAuto: {},
		},
	}
}
