package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// 帧头固定16字节，小端：
// magic(4) + length(4) + type(4, 低字节有效) + check(4, type按位取反)
const (
	HeaderSize = 16
	Magic      = 0x55AA55AA
)

var (
	// ErrInvalidHeaderSize 帧头长度不为16字节
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrInvalidMagic magic不匹配
	ErrInvalidMagic = errors.New("invalid magic")
)

// ChecksumError check字段与type字段的按位取反关系不成立
type ChecksumError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid type check: expected %08X, got %08X", e.Expected, e.Actual)
}

// Header 已校验的帧头
// RawType 保留线上完整u32 type字段，Type 为其低字节解析出的帧类型
type Header struct {
	Length  uint32
	Type    MsgType
	RawType uint32
}

// DecodeHeader 解码并校验16字节帧头
// 要求恰好16字节；magic或校验关系不成立时拒绝整帧，避免按错误的
// length 消费后续载荷
func DecodeHeader(b []byte) (Header, error) {
	if len(b) != HeaderSize {
		return Header{}, fmt.Errorf("%w: %d", ErrInvalidHeaderSize, len(b))
	}

	magic := binary.LittleEndian.Uint32(b[0:4])
	if magic != Magic {
		return Header{}, fmt.Errorf("%w: %08X", ErrInvalidMagic, magic)
	}

	length := binary.LittleEndian.Uint32(b[4:8])
	rawType := binary.LittleEndian.Uint32(b[8:12])
	check := binary.LittleEndian.Uint32(b[12:16])

	if expected := ^rawType; check != expected {
		return Header{}, &ChecksumError{Expected: expected, Actual: check}
	}

	return Header{
		Length:  length,
		Type:    MsgTypeFromWire(rawType),
		RawType: rawType,
	}, nil
}

// EncodeHeader 编码16字节帧头，magic/length/type/check四元组自洽
// 与 DecodeHeader 对任意 (type, length) 严格逐字节往返，盒子固件会
// 校验check字段
func EncodeHeader(t MsgType, payloadLen uint32) []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], Magic)
	binary.LittleEndian.PutUint32(buf[4:8], payloadLen)
	binary.LittleEndian.PutUint32(buf[8:12], t.Wire())
	binary.LittleEndian.PutUint32(buf[12:16], ^t.Wire())
	return buf
}
