package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/taoyao-code/carlink-driver/internal/metrics"
	"github.com/taoyao-code/carlink-driver/internal/protocol"
	"github.com/taoyao-code/carlink-driver/internal/transport"
)

// State 会话状态机：Unopened → Initialized → Running → Closed
// Closed 为终态，重新连接需新建会话对象
type State int32

const (
	StateUnopened State = iota
	StateInitialized
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return "invalid"
	}
}

const (
	heartbeatInterval = 2 * time.Second
	wifiConnectDelay  = time.Second
	defaultQueueSize  = 64
)

var (
	// ErrInvalidState 状态机不允许的操作顺序
	ErrInvalidState = errors.New("invalid session state")
	// ErrClosed 会话已关闭
	ErrClosed = errors.New("session closed")
)

// Options 会话可调参数
type Options struct {
	OutboundQueue    int // 出站FIFO容量，入队满时对生产者施加背压
	SubscriberBuffer int // 每订阅者广播缓冲
}

// Status 会话运行快照（只读，由各循环自有计数聚合而来）
type Status struct {
	SessionID      string     `json:"session_id"`
	State          string     `json:"state"`
	ReadErrors     uint64     `json:"read_errors"`
	WriteErrors    uint64     `json:"write_errors"`
	DecodeErrors   uint64     `json:"decode_errors"`
	FramesIn       uint64     `json:"frames_in"`
	FramesOut      uint64     `json:"frames_out"`
	HeartbeatsSent uint64     `json:"heartbeats_sent"`
	Subscribers    int        `json:"subscribers"`
	DroppedFanout  uint64     `json:"dropped_fanout"`
	LastMessageAt  *time.Time `json:"last_message_at,omitempty"`
}

// DongleDriver 盒子驱动会话
// 独占持有端点句柄（通过 Transport），运行入站解码循环、出站序列化
// 循环与心跳定时任务；三者互不阻塞。所有定时/延时任务归会话所有，
// Close 时一并取消回收
type DongleDriver struct {
	id  string
	tr  transport.Transport
	log *zap.Logger
	met *metrics.AppMetrics
	hub *Hub

	outC chan protocol.Sendable

	mu    sync.Mutex
	state State

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// 解码错误日志限流：噪声下坏帧是常态，不刷日志
	decodeLogLimit *rate.Limiter

	readErrors     atomic.Uint64
	writeErrors    atomic.Uint64
	decodeErrors   atomic.Uint64
	framesIn       atomic.Uint64
	framesOut      atomic.Uint64
	heartbeatsSent atomic.Uint64
	lastMessageAt  atomic.Int64 // unix nano, 0表示尚无
}

// New 创建未初始化的会话；met 可为nil（不上报指标）
func New(tr transport.Transport, log *zap.Logger, met *metrics.AppMetrics, opts Options) *DongleDriver {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.OutboundQueue <= 0 {
		opts.OutboundQueue = defaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &DongleDriver{
		id:             uuid.NewString(),
		tr:             tr,
		log:            log,
		met:            met,
		hub:            NewHub(opts.SubscriberBuffer),
		outC:           make(chan protocol.Sendable, opts.OutboundQueue),
		state:          StateUnopened,
		ctx:            ctx,
		cancel:         cancel,
		decodeLogLimit: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// ID 会话标识
func (d *DongleDriver) ID() string { return d.id }

// State 当前状态
func (d *DongleDriver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Initialize 发现并声明设备，解析端点
// 传输层错误原样上抛，由调用方决定是否重试；本层不做自动重试
func (d *DongleDriver) Initialize(ctx context.Context) error {
	d.mu.Lock()
	if d.state != StateUnopened {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("%w: initialize from %s", ErrInvalidState, state)
	}
	d.mu.Unlock()

	if err := d.tr.Open(ctx); err != nil {
		return fmt.Errorf("open transport: %w", err)
	}

	d.mu.Lock()
	d.state = StateInitialized
	d.mu.Unlock()
	return nil
}

// Subscribe 订阅解码消息流（广播语义，多订阅者互不影响）
func (d *DongleDriver) Subscribe() (<-chan protocol.Message, func()) {
	ch, cancel := d.hub.Subscribe()
	if d.met != nil {
		d.met.SubscriberGauge.Set(float64(d.hub.Subscribers()))
	}
	return ch, func() {
		cancel()
		if d.met != nil {
			d.met.SubscriberGauge.Set(float64(d.hub.Subscribers()))
		}
	}
}

// Send 入队一条出站消息，FIFO保序；队列满时阻塞直至 ctx 取消
func (d *DongleDriver) Send(ctx context.Context, msg protocol.Sendable) error {
	select {
	case d.outC <- msg:
		if d.met != nil {
			d.met.OutboundDepth.Set(float64(len(d.outC)))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return ErrClosed
	}
}

// handshake 固定配置推送序列，逐条直写并等待完成后再发下一条
// （顺序敏感：固件先处理Open建立会话，后续推送才有归属）
func (d *DongleDriver) handshake(ctx context.Context, cfg DongleConfig) error {
	msgs := []protocol.Sendable{
		protocol.NewSendNumber(cfg.DPI, protocol.FileDpi),
		protocol.SendOpen{
			Width:         cfg.Width,
			Height:        cfg.Height,
			FPS:           cfg.FPS,
			Format:        cfg.Format,
			PacketMax:     cfg.PacketMax,
			IBoxVersion:   cfg.IBoxVersion,
			PhoneWorkMode: cfg.PhoneWorkMode,
		},
		protocol.NewSendBoolean(cfg.NightMode, protocol.FileNightMode),
		protocol.NewSendNumber(uint32(cfg.Hand), protocol.FileHandDriveMode),
		protocol.NewSendBoolean(true, protocol.FileChargeMode),
		protocol.NewSendString(cfg.BoxName, protocol.FileBoxName),
		protocol.SendBoxSettings{
			MediaDelay: cfg.MediaDelay,
			Width:      cfg.Width,
			Height:     cfg.Height,
		},
	}
	if cfg.AndroidWorkMode != nil {
		msgs = append(msgs, protocol.NewSendBoolean(*cfg.AndroidWorkMode, protocol.FileAndroidWorkMode))
	}

	msgs = append(msgs, protocol.SendCommand{Value: protocol.CmdWifiEnable})
	band := protocol.CmdWifi5g
	if cfg.WifiType == Wifi24Ghz {
		band = protocol.CmdWifi24g
	}
	msgs = append(msgs, protocol.SendCommand{Value: band})
	mic := protocol.CmdMic
	if cfg.MicType == MicBox {
		mic = protocol.CmdBoxMic
	}
	msgs = append(msgs, protocol.SendCommand{Value: mic})
	audio := protocol.CmdAudioTransferOff
	if cfg.AudioTransferMode {
		audio = protocol.CmdAudioTransferOn
	}
	msgs = append(msgs, protocol.SendCommand{Value: audio})

	for _, m := range msgs {
		if err := d.write(ctx, m); err != nil {
			return fmt.Errorf("handshake %s: %w", m.WireType(), err)
		}
	}
	return nil
}

// write 序列化并直写OUT端点（出站循环与握手共用）
func (d *DongleDriver) write(ctx context.Context, msg protocol.Sendable) error {
	frame := protocol.Serialize(msg)
	n, err := d.tr.BulkOut(ctx, frame)
	if d.met != nil {
		d.met.BytesWritten.Add(float64(n))
	}
	if err != nil {
		return err
	}
	d.framesOut.Add(1)
	return nil
}

// Start 执行握手，随后启动入站/出站循环、心跳任务与一次性的
// 延时WifiConnect
func (d *DongleDriver) Start(ctx context.Context, cfg DongleConfig) error {
	d.mu.Lock()
	if d.state != StateInitialized {
		state := d.state
		d.mu.Unlock()
		return fmt.Errorf("%w: start from %s", ErrInvalidState, state)
	}
	d.mu.Unlock()

	if err := d.handshake(ctx, cfg); err != nil {
		return err
	}

	d.wg.Add(3)
	go d.readLoop()
	go d.writeLoop()
	go d.heartbeatLoop()

	// 延时WifiConnect与主序列解耦，不阻塞握手完成
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case <-d.ctx.Done():
		case <-time.After(wifiConnectDelay):
			if err := d.Send(d.ctx, protocol.SendCommand{Value: protocol.CmdWifiConnect}); err != nil && !errors.Is(err, ErrClosed) {
				d.log.Warn("queue wifi connect failed", zap.Error(err))
			}
		}
	}()

	d.mu.Lock()
	d.state = StateRunning
	d.mu.Unlock()
	d.log.Info("dongle session running", zap.String("session", d.id))
	return nil
}

// readLoop 入站循环：16字节帧头 → 可选载荷 → 解码 → 广播
// 帧/解码错误只记日志不终止；传输读错误同样重试而非退出
func (d *DongleDriver) readLoop() {
	defer d.wg.Done()
	for {
		if d.ctx.Err() != nil {
			return
		}

		headerBytes, err := d.tr.BulkIn(d.ctx, protocol.HeaderSize)
		if err != nil {
			if d.ctx.Err() != nil {
				return
			}
			d.readErrors.Add(1)
			if d.met != nil {
				d.met.ReadErrorTotal.Inc()
			}
			d.log.Warn("bulk-in header read failed", zap.Error(err))
			continue
		}
		if d.met != nil {
			d.met.BytesRead.Add(float64(len(headerBytes)))
		}

		header, err := protocol.DecodeHeader(headerBytes)
		if err != nil {
			// 噪声下的失步/坏帧是常态，丢弃该帧从下一帧头重新对齐
			d.decodeErrors.Add(1)
			if d.met != nil {
				d.met.FrameDecodeTotal.WithLabelValues("header_error").Inc()
			}
			if d.decodeLogLimit.Allow() {
				d.log.Warn("header decode failed", zap.Error(err))
			}
			continue
		}

		var payload []byte
		if header.Length > 0 {
			payload, err = d.tr.BulkIn(d.ctx, int(header.Length))
			if err != nil {
				if d.ctx.Err() != nil {
					return
				}
				// 载荷读失败降级为无载荷分发，消息不丢
				d.readErrors.Add(1)
				if d.met != nil {
					d.met.ReadErrorTotal.Inc()
				}
				d.log.Warn("bulk-in payload read failed",
					zap.Stringer("type", header.Type),
					zap.Uint32("length", header.Length),
					zap.Error(err))
				payload = nil
			} else if d.met != nil {
				d.met.BytesRead.Add(float64(len(payload)))
			}
		}

		msg, err := protocol.DecodeMessage(header, payload)
		if err != nil {
			d.decodeErrors.Add(1)
			if d.met != nil {
				d.met.FrameDecodeTotal.WithLabelValues("decode_error").Inc()
			}
			if d.decodeLogLimit.Allow() {
				d.log.Warn("payload decode failed", zap.Stringer("type", header.Type), zap.Error(err))
			}
			continue
		}

		d.framesIn.Add(1)
		d.lastMessageAt.Store(time.Now().UnixNano())
		if d.met != nil {
			d.met.FrameDecodeTotal.WithLabelValues("ok").Inc()
			d.met.MessageTotal.WithLabelValues(header.Type.String()).Inc()
		}
		d.hub.Publish(msg)
		if d.met != nil {
			d.met.BroadcastDropped.Set(float64(d.hub.Dropped()))
		}
	}
}

// writeLoop 出站循环：单队列FIFO消费；单条写失败记日志后继续
func (d *DongleDriver) writeLoop() {
	defer d.wg.Done()
	for {
		select {
		case <-d.ctx.Done():
			return
		case msg := <-d.outC:
			if d.met != nil {
				d.met.OutboundDepth.Set(float64(len(d.outC)))
			}
			if err := d.write(d.ctx, msg); err != nil {
				if d.ctx.Err() != nil {
					return
				}
				d.writeErrors.Add(1)
				if d.met != nil {
					d.met.WriteErrorTotal.Inc()
				}
				d.log.Warn("bulk-out write failed", zap.Stringer("type", msg.WireType()), zap.Error(err))
			}
		}
	}
}

// heartbeatLoop 每2秒入队一条心跳，直至会话关闭
func (d *DongleDriver) heartbeatLoop() {
	defer d.wg.Done()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			if err := d.Send(d.ctx, protocol.SendHeartBeat{}); err != nil {
				return
			}
			d.heartbeatsSent.Add(1)
			if d.met != nil {
				d.met.HeartbeatTotal.Inc()
			}
		}
	}
}

// Close 取消心跳与循环任务，等待退出后释放设备句柄；可重复调用
func (d *DongleDriver) Close() error {
	d.mu.Lock()
	if d.state == StateClosed {
		d.mu.Unlock()
		return nil
	}
	d.state = StateClosed
	d.mu.Unlock()

	d.cancel()
	err := d.tr.Close() // 解除阻塞中的批量传输
	d.wg.Wait()
	d.log.Info("dongle session closed", zap.String("session", d.id))
	return err
}

// Snapshot 运行状态只读快照
func (d *DongleDriver) Snapshot() Status {
	st := Status{
		SessionID:      d.id,
		State:          d.State().String(),
		ReadErrors:     d.readErrors.Load(),
		WriteErrors:    d.writeErrors.Load(),
		DecodeErrors:   d.decodeErrors.Load(),
		FramesIn:       d.framesIn.Load(),
		FramesOut:      d.framesOut.Load(),
		HeartbeatsSent: d.heartbeatsSent.Load(),
		Subscribers:    d.hub.Subscribers(),
		DroppedFanout:  d.hub.Dropped(),
	}
	if ns := d.lastMessageAt.Load(); ns != 0 {
		t := time.Unix(0, ns)
		st.LastMessageAt = &t
	}
	return st
}
