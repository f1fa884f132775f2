package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// MediaType MediaData载荷前4字节的类型判别值
type MediaType uint32

const (
	MediaTypeData       MediaType = 1
	MediaTypeAlbumCover MediaType = 3
)

// MediaInfo 正在播放的媒体元数据，所有字段可缺省
type MediaInfo struct {
	SongName     *string  `json:"MediaSongName,omitempty"`
	AlbumName    *string  `json:"MediaAlbumName,omitempty"`
	ArtistName   *string  `json:"MediaArtistName,omitempty"`
	AppName      *string  `json:"MediaAPPName,omitempty"`
	SongDuration *float64 `json:"MediaSongDuration,omitempty"`
	SongPlayTime *float64 `json:"MediaSongPlayTime,omitempty"`
}

// MediaData 媒体事件：type=1为JSON元数据（去掉尾部一个结束字节），
// type=3为封面图原始字节（以base64透出），其余类型仅记录、仍然上抛事件
type MediaData struct {
	H                Header
	Media            *MediaInfo
	AlbumCoverBase64 string
}

func (m MediaData) Header() Header { return m.H }

func decodeMediaData(h Header, payload []byte) (Message, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("decode MediaData: %w: have %d, need 4", ErrShortPayload, len(payload))
	}
	c := cursor{b: payload}
	typeVal, err := c.u32()
	if err != nil {
		return nil, fmt.Errorf("decode MediaData: %w", err)
	}

	m := MediaData{H: h}
	switch MediaType(typeVal) {
	case MediaTypeData:
		raw := payload[4:]
		if len(raw) > 0 {
			raw = raw[:len(raw)-1]
		}
		var info MediaInfo
		// JSON解析失败降级为"无载荷"，不作为错误上抛
		if err := json.Unmarshal(raw, &info); err == nil {
			m.Media = &info
		}
	case MediaTypeAlbumCover:
		m.AlbumCoverBase64 = base64.StdEncoding.EncodeToString(payload[4:])
	default:
		zap.L().Warn("unexpected media type", zap.Uint32("type", typeVal))
	}
	return m, nil
}
