package transport

import "context"

// Transport USB批量传输边界
// 协议引擎只依赖本接口：设备枚举/声明归 Open，稳态读写归 BulkIn/BulkOut
type Transport interface {
	// Open 发现并声明设备，解析批量IN/OUT端点。
	// 设备未插入时轮询等待，仅由 ctx 取消；声明/端点解析失败返回错误。
	Open(ctx context.Context) error
	// BulkIn 从IN端点读满恰好 n 字节。
	BulkIn(ctx context.Context, n int) ([]byte, error)
	// BulkOut 将 b 完整写入OUT端点。
	BulkOut(ctx context.Context, b []byte) (int, error)
	// Close 释放端点与设备句柄，可重复调用。
	Close() error
}
