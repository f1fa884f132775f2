package protocol

import (
	"encoding/json"
	"fmt"
)

// OemDescriptor 盒子身份描述（HiCar/OEM形）
type OemDescriptor struct {
	HiCar       uint32 `json:"HiCar"`
	OemName     string `json:"OemName"`
	WifiChannel uint32 `json:"WiFiChannel"`
	BoxType     string `json:"boxType"`
	HwVersion   string `json:"hwVersion"`
	ProductType string `json:"productType"`
	UUID        string `json:"uuid"`
}

// LinkDescriptor 盒子运行状态描述（链路/温度形）
type LinkDescriptor struct {
	MDLinkType    string  `json:"MDLinkType"`
	MDModel       string  `json:"MDModel"`
	MDOSVersion   string  `json:"MDOSVersion"`
	MDLinkVersion string  `json:"MDLinkVersion"`
	CPUTemp       float64 `json:"cpuTemp"`
}

// BoxInfo BoxSettings帧的读方向：UTF-8 JSON，两种已知形按结构判别
// （各自必需键的存在性），二者恰有其一非空
type BoxInfo struct {
	H    Header
	Oem  *OemDescriptor
	Link *LinkDescriptor
}

func (m BoxInfo) Header() Header { return m.H }

func decodeBoxInfo(h Header, payload []byte) (Message, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, fmt.Errorf("decode BoxInfo: %w", err)
	}

	m := BoxInfo{H: h}
	if _, ok := probe["uuid"]; ok {
		var oem OemDescriptor
		if err := json.Unmarshal(payload, &oem); err != nil {
			return nil, fmt.Errorf("decode BoxInfo: %w", err)
		}
		m.Oem = &oem
		return m, nil
	}
	if _, ok := probe["MDModel"]; ok {
		var link LinkDescriptor
		if err := json.Unmarshal(payload, &link); err != nil {
			return nil, fmt.Errorf("decode BoxInfo: %w", err)
		}
		m.Link = &link
		return m, nil
	}
	return nil, fmt.Errorf("decode BoxInfo: unrecognized settings shape")
}
