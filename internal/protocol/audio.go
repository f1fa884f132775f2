package protocol

import (
	"encoding/binary"
	"fmt"
	"math"
)

// AudioCommand 音频流控制命令（AudioData载荷1字节尾部的取值空间）
type AudioCommand uint32

const (
	AudioOutputStart    AudioCommand = 1
	AudioOutputStop     AudioCommand = 2
	AudioInputConfig    AudioCommand = 3
	AudioPhonecallStart AudioCommand = 4
	AudioPhonecallStop  AudioCommand = 5
	AudioNaviStart      AudioCommand = 6
	AudioNaviStop       AudioCommand = 7
	AudioSiriStart      AudioCommand = 8
	AudioSiriStop       AudioCommand = 9
	AudioMediaStart     AudioCommand = 10
	AudioMediaStop      AudioCommand = 11
	AudioAlertStart     AudioCommand = 12
	AudioAlertStop      AudioCommand = 13
)

// AudioCommandFromByte 有界查表：超出已知13个取值上抛解码错误，
// 不做任何位模式重解释
func AudioCommandFromByte(b byte) (AudioCommand, error) {
	c := AudioCommand(b)
	if c < AudioOutputStart || c > AudioAlertStop {
		return 0, fmt.Errorf("invalid audio command byte: %d", b)
	}
	return c, nil
}

func (c AudioCommand) String() string {
	names := [...]string{
		AudioOutputStart:    "AudioOutputStart",
		AudioOutputStop:     "AudioOutputStop",
		AudioInputConfig:    "AudioInputConfig",
		AudioPhonecallStart: "AudioPhonecallStart",
		AudioPhonecallStop:  "AudioPhonecallStop",
		AudioNaviStart:      "AudioNaviStart",
		AudioNaviStop:       "AudioNaviStop",
		AudioSiriStart:      "AudioSiriStart",
		AudioSiriStop:       "AudioSiriStop",
		AudioMediaStart:     "AudioMediaStart",
		AudioMediaStop:      "AudioMediaStop",
		AudioAlertStart:     "AudioAlertStart",
		AudioAlertStop:      "AudioAlertStop",
	}
	if int(c) < len(names) && names[c] != "" {
		return names[c]
	}
	return fmt.Sprintf("AudioCommand(%d)", uint32(c))
}

// AudioFormat decode_type 对应的PCM格式
type AudioFormat struct {
	SampleRate uint32
	Channels   uint8
	BitDepth   uint8
}

// audioFormats decode_type(1-7) → PCM格式，固定表，运行期只读
var audioFormats = map[uint32]AudioFormat{
	1: {SampleRate: 44100, Channels: 2, BitDepth: 16},
	2: {SampleRate: 44100, Channels: 2, BitDepth: 16},
	3: {SampleRate: 8000, Channels: 1, BitDepth: 16},
	4: {SampleRate: 48000, Channels: 2, BitDepth: 16},
	5: {SampleRate: 16000, Channels: 1, BitDepth: 16},
	6: {SampleRate: 24000, Channels: 1, BitDepth: 16},
	7: {SampleRate: 16000, Channels: 2, BitDepth: 16},
}

// AudioFormatFor 查询 decode_type 对应的格式
func AudioFormatFor(decodeType uint32) (AudioFormat, bool) {
	f, ok := audioFormats[decodeType]
	return f, ok
}

// AudioData 音频帧：12字节定长头之后的尾部按长度分派
// 尾长1→控制命令；尾长4→音量渐变时长；其余→i16小端PCM采样。
// 三者每条消息至多出现一个
type AudioData struct {
	H              Header
	DecodeType     uint32
	Volume         float32
	AudioType      uint32
	Command        *AudioCommand
	VolumeDuration *float32
	Samples        []int16
}

func (m AudioData) Header() Header { return m.H }

// Format 当前帧的PCM格式
func (m AudioData) Format() (AudioFormat, bool) {
	return AudioFormatFor(m.DecodeType)
}

const audioFixedHeaderSize = 12

func decodeAudioData(h Header, payload []byte) (Message, error) {
	if len(payload) < audioFixedHeaderSize {
		return nil, fmt.Errorf("decode AudioData: %w: have %d, need %d", ErrShortPayload, len(payload), audioFixedHeaderSize)
	}
	c := cursor{b: payload}
	m := AudioData{H: h}
	var err error
	if m.DecodeType, err = c.u32(); err != nil {
		return nil, fmt.Errorf("decode AudioData: %w", err)
	}
	if m.Volume, err = c.f32(); err != nil {
		return nil, fmt.Errorf("decode AudioData: %w", err)
	}
	if m.AudioType, err = c.u32(); err != nil {
		return nil, fmt.Errorf("decode AudioData: %w", err)
	}

	tail := payload[audioFixedHeaderSize:]
	switch len(tail) {
	case 1:
		cmd, err := AudioCommandFromByte(tail[0])
		if err != nil {
			return nil, fmt.Errorf("decode AudioData: %w", err)
		}
		m.Command = &cmd
	case 4:
		d := math.Float32frombits(binary.LittleEndian.Uint32(tail))
		m.VolumeDuration = &d
	default:
		samples := make([]int16, len(tail)/2)
		for i := range samples {
			samples[i] = int16(binary.LittleEndian.Uint16(tail[i*2:]))
		}
		m.Samples = samples
	}
	return m, nil
}
