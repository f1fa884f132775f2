package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/carlink-driver/internal/api"
	cfgpkg "github.com/taoyao-code/carlink-driver/internal/config"
	"github.com/taoyao-code/carlink-driver/internal/driver"
	"github.com/taoyao-code/carlink-driver/internal/httpserver"
	"github.com/taoyao-code/carlink-driver/internal/logging"
	"github.com/taoyao-code/carlink-driver/internal/metrics"
	"github.com/taoyao-code/carlink-driver/internal/protocol"
	"github.com/taoyao-code/carlink-driver/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	flag.Parse()

	// 1) 加载配置
	cfg, err := cfgpkg.Load(*configPath)
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	log := zap.L()

	if dump, err := cfg.Dump(); err == nil {
		log.Debug("effective config", zap.String("yaml", dump))
	}

	dongleCfg, err := cfg.Dongle.ToDongleConfig()
	if err != nil {
		log.Fatal("invalid dongle config", zap.Error(err))
	}

	// 3) 指标注册与处理器
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)

	// 4) USB传输与驱动会话
	usb := transport.NewUSB(transport.USBOptions{
		VendorID:     cfg.USB.VendorID,
		ProductIDs:   cfg.USB.ProductIDs,
		PollInterval: cfg.USB.PollInterval,
	}, log)
	drv := driver.New(usb, log, appm, driver.Options{
		OutboundQueue:    cfg.Session.OutboundQueue,
		SubscriberBuffer: cfg.Session.SubscriberBuffer,
	})

	// 5) 运维HTTP服务
	console := api.NewConsoleHandler(drv, log)
	var metricsHandler = metrics.Handler(reg)
	if !cfg.Metrics.Enable {
		metricsHandler = nil
	}
	httpSrv := httpserver.New(cfg.HTTP, cfg.Metrics.Path, metricsHandler,
		func() bool { return drv.State() == driver.StateRunning },
		func(r *gin.Engine) { console.Register(r) })

	go func() {
		if err := httpSrv.Start(); err != nil {
			log.Error("http server error", zap.Error(err))
		}
	}()

	// 6) 设备发现（无超时，仅受信号取消）→ 握手 → 稳态循环
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := drv.Initialize(rootCtx); err != nil {
		log.Fatal("dongle initialize error", zap.Error(err))
	}
	if err := drv.Start(rootCtx, dongleCfg); err != nil {
		log.Fatal("dongle start error", zap.Error(err))
	}

	// 解码消息流的默认消费者：记录设备侧关键事件
	go consumeEvents(rootCtx, drv, log)

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	if err := drv.Close(); err != nil {
		log.Warn("dongle close error", zap.Error(err))
		os.Exit(1)
	}
}

// consumeEvents 订阅解码消息流并记录设备侧关键事件
// 高频媒体帧（音/视频）只计数不逐条打日志
func consumeEvents(ctx context.Context, drv *driver.DongleDriver, log *zap.Logger) {
	ch, cancel := drv.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch m := msg.(type) {
			case protocol.Plugged:
				log.Info("phone plugged", zap.Stringer("phoneType", m.PhoneType))
			case protocol.Unplugged:
				log.Info("phone unplugged")
			case protocol.Phase:
				log.Info("phase changed", zap.Uint32("phase", m.Phase))
			case protocol.ManufacturerInfo:
				log.Info("dongle manufacturer info", zap.Uint32("a", m.A), zap.Uint32("b", m.B))
			case protocol.SoftwareVersion:
				log.Info("dongle software version", zap.String("version", m.Version))
			case protocol.BoxInfo:
				log.Info("box info received")
			case protocol.Command:
				log.Info("dongle command", zap.Stringer("command", m.Value))
			case protocol.AudioData, protocol.VideoData, protocol.MediaData:
				// 媒体帧由订阅方（渲染/混音侧）处理
			}
		}
	}
}
