package protocol

import "fmt"

// CmdCode 控制命令码
// 与帧类型标签是两个独立的编号空间：命令码恒为完整32位，仅出现在
// Command 类型帧的载荷内，不可与 MsgType 混用
type CmdCode uint32

const (
	CmdInvalid             CmdCode = 0
	CmdStartRecordAudio    CmdCode = 1
	CmdStopRecordAudio     CmdCode = 2
	CmdRequestHostUI       CmdCode = 3
	CmdSiri                CmdCode = 5
	CmdMic                 CmdCode = 7
	CmdFrame               CmdCode = 12
	CmdBoxMic              CmdCode = 15
	CmdEnableNightMode     CmdCode = 16
	CmdDisableNightMode    CmdCode = 17
	CmdAudioTransferOn     CmdCode = 22
	CmdAudioTransferOff    CmdCode = 23
	CmdWifi24g             CmdCode = 24
	CmdWifi5g              CmdCode = 25
	CmdLeft                CmdCode = 100
	CmdRight               CmdCode = 101
	CmdSelectDown          CmdCode = 104
	CmdSelectUp            CmdCode = 105
	CmdBack                CmdCode = 106
	CmdUp                  CmdCode = 113
	CmdDown                CmdCode = 114
	CmdHome                CmdCode = 200
	CmdPlay                CmdCode = 201
	CmdPause               CmdCode = 202
	CmdPlayOrPause         CmdCode = 203
	CmdNext                CmdCode = 204
	CmdPrev                CmdCode = 205
	CmdAcceptPhone         CmdCode = 300
	CmdRejectPhone         CmdCode = 301
	CmdRequestVideoFocus   CmdCode = 500
	CmdReleaseVideoFocus   CmdCode = 501
	CmdWifiEnable          CmdCode = 1000
	CmdAutoConnectEnable   CmdCode = 1001
	CmdWifiConnect         CmdCode = 1002
	CmdScanningDevice      CmdCode = 1003
	CmdDeviceFound         CmdCode = 1004
	CmdDeviceNotFound      CmdCode = 1005
	CmdConnectDeviceFailed CmdCode = 1006
	CmdBtConnected         CmdCode = 1007
	CmdBtDisconnected      CmdCode = 1008
	CmdWifiConnected       CmdCode = 1009
	CmdWifiDisconnected    CmdCode = 1010
	CmdBtPairStart         CmdCode = 1011
	CmdWifiPair            CmdCode = 1012
)

var cmdNames = map[CmdCode]string{
	CmdInvalid:             "Invalid",
	CmdStartRecordAudio:    "StartRecordAudio",
	CmdStopRecordAudio:     "StopRecordAudio",
	CmdRequestHostUI:       "RequestHostUI",
	CmdSiri:                "Siri",
	CmdMic:                 "Mic",
	CmdFrame:               "Frame",
	CmdBoxMic:              "BoxMic",
	CmdEnableNightMode:     "EnableNightMode",
	CmdDisableNightMode:    "DisableNightMode",
	CmdAudioTransferOn:     "AudioTransferOn",
	CmdAudioTransferOff:    "AudioTransferOff",
	CmdWifi24g:             "Wifi24g",
	CmdWifi5g:              "Wifi5g",
	CmdLeft:                "Left",
	CmdRight:               "Right",
	CmdSelectDown:          "SelectDown",
	CmdSelectUp:            "SelectUp",
	CmdBack:                "Back",
	CmdUp:                  "Up",
	CmdDown:                "Down",
	CmdHome:                "Home",
	CmdPlay:                "Play",
	CmdPause:               "Pause",
	CmdPlayOrPause:         "PlayOrPause",
	CmdNext:                "Next",
	CmdPrev:                "Prev",
	CmdAcceptPhone:         "AcceptPhone",
	CmdRejectPhone:         "RejectPhone",
	CmdRequestVideoFocus:   "RequestVideoFocus",
	CmdReleaseVideoFocus:   "ReleaseVideoFocus",
	CmdWifiEnable:          "WifiEnable",
	CmdAutoConnectEnable:   "AutoConnectEnable",
	CmdWifiConnect:         "WifiConnect",
	CmdScanningDevice:      "ScanningDevice",
	CmdDeviceFound:         "DeviceFound",
	CmdDeviceNotFound:      "DeviceNotFound",
	CmdConnectDeviceFailed: "ConnectDeviceFailed",
	CmdBtConnected:         "BtConnected",
	CmdBtDisconnected:      "BtDisconnected",
	CmdWifiConnected:       "WifiConnected",
	CmdWifiDisconnected:    "WifiDisconnected",
	CmdBtPairStart:         "BtPairStart",
	CmdWifiPair:            "WifiPair",
}

var cmdByName = func() map[string]CmdCode {
	m := make(map[string]CmdCode, len(cmdNames))
	for c, n := range cmdNames {
		m[n] = c
	}
	return m
}()

// CmdFromWire 全域映射：未登记的命令码一律回落为 CmdInvalid
// 注意：线上值0与未知值都映射到 CmdInvalid，二者在协议上不可区分，
// 这是上游协议遗留的歧义，不在本层解决
func CmdFromWire(v uint32) CmdCode {
	if _, ok := cmdNames[CmdCode(v)]; ok {
		return CmdCode(v)
	}
	return CmdInvalid
}

// ParseCmd 按名称查找命令码，供运维控制台使用
func ParseCmd(name string) (CmdCode, bool) {
	c, ok := cmdByName[name]
	return c, ok
}

// Wire 返回线上u32表示
func (c CmdCode) Wire() uint32 {
	return uint32(c)
}

func (c CmdCode) String() string {
	if name, ok := cmdNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Invalid(%d)", uint32(c))
}
