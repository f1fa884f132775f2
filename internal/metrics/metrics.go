package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 驱动业务指标
type AppMetrics struct {
	FrameDecodeTotal *prometheus.CounterVec // labels: result=ok|header_error|decode_error
	MessageTotal     *prometheus.CounterVec // labels: type
	BytesRead        prometheus.Counter
	BytesWritten     prometheus.Counter
	ReadErrorTotal   prometheus.Counter
	WriteErrorTotal  prometheus.Counter
	HeartbeatTotal   prometheus.Counter
	OutboundDepth    prometheus.Gauge
	SubscriberGauge  prometheus.Gauge
	BroadcastDropped prometheus.Gauge
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		FrameDecodeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carlink_frame_decode_total",
			Help: "Frame decode attempts by result.",
		}, []string{"result"}),
		MessageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carlink_message_total",
			Help: "Decoded inbound messages by frame type.",
		}, []string{"type"}),
		BytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carlink_usb_bytes_read_total",
			Help: "Total bytes read from the bulk-in endpoint.",
		}),
		BytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carlink_usb_bytes_written_total",
			Help: "Total bytes written to the bulk-out endpoint.",
		}),
		ReadErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carlink_usb_read_error_total",
			Help: "Transport-level bulk-in failures.",
		}),
		WriteErrorTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carlink_usb_write_error_total",
			Help: "Transport-level bulk-out failures.",
		}),
		HeartbeatTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carlink_heartbeat_total",
			Help: "Heartbeat frames queued to the dongle.",
		}),
		OutboundDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carlink_outbound_queue_depth",
			Help: "Current outbound queue depth.",
		}),
		SubscriberGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carlink_subscriber_count",
			Help: "Current number of decoded-message subscribers.",
		}),
		BroadcastDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carlink_broadcast_dropped_total",
			Help: "Messages dropped for slow subscribers.",
		}),
	}
	reg.MustRegister(
		m.FrameDecodeTotal, m.MessageTotal,
		m.BytesRead, m.BytesWritten,
		m.ReadErrorTotal, m.WriteErrorTotal,
		m.HeartbeatTotal, m.OutboundDepth,
		m.SubscriberGauge, m.BroadcastDropped,
	)
	return m
}
