package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/carlink-driver/internal/driver"
	"github.com/taoyao-code/carlink-driver/internal/protocol"
)

// AppConfig 应用基础信息
type AppConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Env  string `mapstructure:"env" yaml:"env"`
}

// HTTPConfig 运维HTTP服务配置
type HTTPConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout" yaml:"writeTimeout"`
}

// LumberjackConfig 日志滚动（lumberjack）配置
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize" yaml:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge" yaml:"maxAge"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// LoggingConfig 日志级别与输出配置
type LoggingConfig struct {
	Level  string           `mapstructure:"level" yaml:"level"`
	Format string           `mapstructure:"format" yaml:"format"`
	File   LumberjackConfig `mapstructure:"file" yaml:"file"`
}

// MetricsConfig Prometheus 指标暴露配置
type MetricsConfig struct {
	Enable bool   `mapstructure:"enable" yaml:"enable"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// USBConfig 设备发现配置
type USBConfig struct {
	VendorID     uint16        `mapstructure:"vendorId" yaml:"vendorId"`
	ProductIDs   []uint16      `mapstructure:"productIds" yaml:"productIds"`
	PollInterval time.Duration `mapstructure:"pollInterval" yaml:"pollInterval"`
}

// SessionConfig 会话队列与广播配置
type SessionConfig struct {
	OutboundQueue    int `mapstructure:"outboundQueue" yaml:"outboundQueue"`
	SubscriberBuffer int `mapstructure:"subscriberBuffer" yaml:"subscriberBuffer"`
}

// PhoneTuning 按手机类型的细分调优
type PhoneTuning struct {
	FrameInterval *uint32 `mapstructure:"frameInterval" yaml:"frameInterval,omitempty"`
}

// DongleSettings 盒子握手参数
type DongleSettings struct {
	Width             uint32                 `mapstructure:"width" yaml:"width"`
	Height            uint32                 `mapstructure:"height" yaml:"height"`
	FPS               uint32                 `mapstructure:"fps" yaml:"fps"`
	DPI               uint32                 `mapstructure:"dpi" yaml:"dpi"`
	Format            uint32                 `mapstructure:"format" yaml:"format"`
	IBoxVersion       uint32                 `mapstructure:"iBoxVersion" yaml:"iBoxVersion"`
	PacketMax         uint32                 `mapstructure:"packetMax" yaml:"packetMax"`
	PhoneWorkMode     uint32                 `mapstructure:"phoneWorkMode" yaml:"phoneWorkMode"`
	NightMode         bool                   `mapstructure:"nightMode" yaml:"nightMode"`
	BoxName           string                 `mapstructure:"boxName" yaml:"boxName"`
	Hand              string                 `mapstructure:"hand" yaml:"hand"` // left | right
	MediaDelay        uint32                 `mapstructure:"mediaDelay" yaml:"mediaDelay"`
	AudioTransferMode bool                   `mapstructure:"audioTransferMode" yaml:"audioTransferMode"`
	WifiBand          string                 `mapstructure:"wifiBand" yaml:"wifiBand"` // 2.4g | 5g
	MicSource         string                 `mapstructure:"micSource" yaml:"micSource"` // box | os
	AndroidWorkMode   *bool                  `mapstructure:"androidWorkMode" yaml:"androidWorkMode,omitempty"`
	Phone             map[string]PhoneTuning `mapstructure:"phone" yaml:"phone,omitempty"`
}

// Config 顶层配置结构
type Config struct {
	App     AppConfig      `mapstructure:"app" yaml:"app"`
	HTTP    HTTPConfig     `mapstructure:"http" yaml:"http"`
	Logging LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
	USB     USBConfig      `mapstructure:"usb" yaml:"usb"`
	Session SessionConfig  `mapstructure:"session" yaml:"session"`
	Dongle  DongleSettings `mapstructure:"dongle" yaml:"dongle"`
}

// Load 从 YAML/TOML/JSON 文件与环境变量加载配置。
// 若 path 为空，则回退到 configs/example.yaml；环境变量前缀 CARLINK_。
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("example")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("CARLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 首次运行允许缺少配置文件，依赖默认值与环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "carlink-driver")
	v.SetDefault("app.env", "dev")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.readTimeout", "5s")
	v.SetDefault("http.writeTimeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.file.filename", "logs/carlink-driver.log")
	v.SetDefault("logging.file.maxSize", 100)
	v.SetDefault("logging.file.maxBackups", 7)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", true)

	v.SetDefault("metrics.enable", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("usb.vendorId", 0x1314)
	v.SetDefault("usb.productIds", []uint16{0x1520, 0x1521})
	v.SetDefault("usb.pollInterval", "500ms")

	v.SetDefault("session.outboundQueue", 64)
	v.SetDefault("session.subscriberBuffer", 64)

	v.SetDefault("dongle.width", 800)
	v.SetDefault("dongle.height", 640)
	v.SetDefault("dongle.fps", 20)
	v.SetDefault("dongle.dpi", 160)
	v.SetDefault("dongle.format", 5)
	v.SetDefault("dongle.iBoxVersion", 2)
	v.SetDefault("dongle.packetMax", 49152)
	v.SetDefault("dongle.phoneWorkMode", 2)
	v.SetDefault("dongle.nightMode", false)
	v.SetDefault("dongle.boxName", "nodePlay")
	v.SetDefault("dongle.hand", "left")
	v.SetDefault("dongle.mediaDelay", 300)
	v.SetDefault("dongle.audioTransferMode", false)
	v.SetDefault("dongle.wifiBand", "5g")
	v.SetDefault("dongle.micSource", "os")
	v.SetDefault("dongle.phone.carplay.frameInterval", 5000)
}

// Dump 生效配置的YAML文本，供启动日志与排障使用
func (c *Config) Dump() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	return string(out), nil
}

var phoneTypeByName = map[string]protocol.PhoneType{
	"androidmirror": protocol.PhoneAndroidMirror,
	"carplay":       protocol.PhoneCarPlay,
	"iphonemirror":  protocol.PhoneIphoneMirror,
	"androidauto":   protocol.PhoneAndroidAuto,
	"hicar":         protocol.PhoneHiCar,
}

// ToDongleConfig 将配置文件形式转换为驱动握手用的值对象
func (s DongleSettings) ToDongleConfig() (driver.DongleConfig, error) {
	cfg := driver.DefaultConfig()
	cfg.Width = s.Width
	cfg.Height = s.Height
	cfg.FPS = s.FPS
	cfg.DPI = s.DPI
	cfg.Format = s.Format
	cfg.IBoxVersion = s.IBoxVersion
	cfg.PacketMax = s.PacketMax
	cfg.PhoneWorkMode = s.PhoneWorkMode
	cfg.NightMode = s.NightMode
	cfg.BoxName = s.BoxName
	cfg.MediaDelay = s.MediaDelay
	cfg.AudioTransferMode = s.AudioTransferMode
	cfg.AndroidWorkMode = s.AndroidWorkMode

	switch strings.ToLower(s.Hand) {
	case "", "left":
		cfg.Hand = driver.HandLeft
	case "right":
		cfg.Hand = driver.HandRight
	default:
		return cfg, fmt.Errorf("invalid hand drive side: %q", s.Hand)
	}

	switch strings.ToLower(s.WifiBand) {
	case "", "5g":
		cfg.WifiType = driver.Wifi5Ghz
	case "2.4g", "24g":
		cfg.WifiType = driver.Wifi24Ghz
	default:
		return cfg, fmt.Errorf("invalid wifi band: %q", s.WifiBand)
	}

	switch strings.ToLower(s.MicSource) {
	case "", "os":
		cfg.MicType = driver.MicOS
	case "box":
		cfg.MicType = driver.MicBox
	default:
		return cfg, fmt.Errorf("invalid mic source: %q", s.MicSource)
	}

	if len(s.Phone) > 0 {
		cfg.PhoneConfig = make(map[protocol.PhoneType]driver.PhoneTypeConfig, len(s.Phone))
		for name, tuning := range s.Phone {
			pt, ok := phoneTypeByName[strings.ToLower(name)]
			if !ok {
				return cfg, fmt.Errorf("invalid phone type: %q", name)
			}
			cfg.PhoneConfig[pt] = driver.PhoneTypeConfig{FrameInterval: tuning.FrameInterval}
		}
	}
	return cfg, nil
}
