package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"
)

// 已知盒子的USB标识
const (
	VendorID    = 0x1314
	ProductID20 = 0x1520
	ProductID21 = 0x1521
)

var (
	// ErrNotOpen 端点未就绪（未Open或已Close）
	ErrNotOpen = errors.New("usb transport not open")
	// ErrNoBulkEndpoints 首接口首备用设置下未找到批量IN/OUT端点对
	ErrNoBulkEndpoints = errors.New("no bulk in/out endpoint pair")
)

// USBOptions USB发现参数
type USBOptions struct {
	VendorID     uint16
	ProductIDs   []uint16
	PollInterval time.Duration
}

// DefaultUSBOptions 盒子的出厂标识与默认轮询间隔
func DefaultUSBOptions() USBOptions {
	return USBOptions{
		VendorID:     VendorID,
		ProductIDs:   []uint16{ProductID20, ProductID21},
		PollInterval: 500 * time.Millisecond,
	}
}

// USB gousb批量传输实现
// 会话对象在生命周期内独占设备/接口/端点句柄
type USB struct {
	opts USBOptions
	log  *zap.Logger

	usbCtx  *gousb.Context
	dev     *gousb.Device
	cfg     *gousb.Config
	intf    *gousb.Interface
	in      *gousb.InEndpoint
	out     *gousb.OutEndpoint
	maxSize int
}

// NewUSB 创建未打开的USB传输
func NewUSB(opts USBOptions, log *zap.Logger) *USB {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &USB{opts: opts, log: log}
}

func (u *USB) match(desc *gousb.DeviceDesc) bool {
	if desc.Vendor != gousb.ID(u.opts.VendorID) {
		return false
	}
	for _, pid := range u.opts.ProductIDs {
		if desc.Product == gousb.ID(pid) {
			return true
		}
	}
	return false
}

// Open 轮询枚举直至设备出现（协议上不设超时，调用方通过 ctx 取消），
// 随后选配置1、声明首接口首备用设置，并解析批量IN/OUT端点
func (u *USB) Open(ctx context.Context) error {
	u.usbCtx = gousb.NewContext()

	var dev *gousb.Device
	for {
		devs, err := u.usbCtx.OpenDevices(u.match)
		if err != nil && len(devs) == 0 {
			u.log.Debug("usb enumeration failed, retrying", zap.Error(err))
		}
		if len(devs) > 0 {
			dev = devs[0]
			for _, extra := range devs[1:] {
				_ = extra.Close()
			}
			break
		}
		select {
		case <-ctx.Done():
			_ = u.usbCtx.Close()
			u.usbCtx = nil
			return ctx.Err()
		case <-time.After(u.opts.PollInterval):
		}
	}

	if err := dev.SetAutoDetach(true); err != nil {
		u.log.Warn("set auto detach failed", zap.Error(err))
	}

	cfg, err := dev.Config(1)
	if err != nil {
		u.closeHandles(dev, nil, nil)
		return fmt.Errorf("select configuration 1: %w", err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		u.closeHandles(dev, cfg, nil)
		return fmt.Errorf("claim interface 0.0: %w", err)
	}

	var inDesc, outDesc *gousb.EndpointDesc
	for _, ep := range intf.Setting.Endpoints {
		ep := ep
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		if ep.Direction == gousb.EndpointDirectionIn && inDesc == nil {
			inDesc = &ep
		}
		if ep.Direction == gousb.EndpointDirectionOut && outDesc == nil {
			outDesc = &ep
		}
	}
	if inDesc == nil || outDesc == nil {
		u.closeHandles(dev, cfg, intf)
		return ErrNoBulkEndpoints
	}

	in, err := intf.InEndpoint(inDesc.Number)
	if err != nil {
		u.closeHandles(dev, cfg, intf)
		return fmt.Errorf("open bulk-in endpoint: %w", err)
	}
	out, err := intf.OutEndpoint(outDesc.Number)
	if err != nil {
		u.closeHandles(dev, cfg, intf)
		return fmt.Errorf("open bulk-out endpoint: %w", err)
	}

	u.dev, u.cfg, u.intf = dev, cfg, intf
	u.in, u.out = in, out
	u.maxSize = inDesc.MaxPacketSize
	u.log.Info("dongle claimed",
		zap.String("device", dev.String()),
		zap.Uint8("in", uint8(inDesc.Address)),
		zap.Uint8("out", uint8(outDesc.Address)))
	return nil
}

func (u *USB) closeHandles(dev *gousb.Device, cfg *gousb.Config, intf *gousb.Interface) {
	if intf != nil {
		intf.Close()
	}
	if cfg != nil {
		_ = cfg.Close()
	}
	if dev != nil {
		_ = dev.Close()
	}
	if u.usbCtx != nil {
		_ = u.usbCtx.Close()
		u.usbCtx = nil
	}
}

// BulkIn 读满恰好 n 字节；单次传输可能短读，循环补齐
func (u *USB) BulkIn(ctx context.Context, n int) ([]byte, error) {
	if u.in == nil {
		return nil, ErrNotOpen
	}
	buf := make([]byte, n)
	read := 0
	for read < n {
		m, err := u.in.ReadContext(ctx, buf[read:])
		if err != nil {
			return nil, err
		}
		read += m
	}
	return buf, nil
}

// BulkOut 完整写入 b
func (u *USB) BulkOut(ctx context.Context, b []byte) (int, error) {
	if u.out == nil {
		return 0, ErrNotOpen
	}
	written := 0
	for written < len(b) {
		m, err := u.out.WriteContext(ctx, b[written:])
		if err != nil {
			return written, err
		}
		written += m
	}
	return written, nil
}

// Close 释放端点/接口/设备句柄，可重复调用
func (u *USB) Close() error {
	if u.intf != nil {
		u.intf.Close()
		u.intf = nil
	}
	var err error
	if u.cfg != nil {
		err = errors.Join(err, u.cfg.Close())
		u.cfg = nil
	}
	if u.dev != nil {
		err = errors.Join(err, u.dev.Close())
		u.dev = nil
	}
	if u.usbCtx != nil {
		err = errors.Join(err, u.usbCtx.Close())
		u.usbCtx = nil
	}
	u.in, u.out = nil, nil
	return err
}
