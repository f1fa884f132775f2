package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/carlink-driver/internal/driver"
	"github.com/taoyao-code/carlink-driver/internal/protocol"
)

// ConsoleHandler 运维控制台处理器
// 仅供内部测试/运维人员使用：查看会话状态、注入命令与触控事件
type ConsoleHandler struct {
	drv    *driver.DongleDriver
	logger *zap.Logger
}

// NewConsoleHandler 创建控制台处理器
func NewConsoleHandler(drv *driver.DongleDriver, logger *zap.Logger) *ConsoleHandler {
	return &ConsoleHandler{drv: drv, logger: logger}
}

// Register 挂载控制台路由
func (h *ConsoleHandler) Register(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.GET("/status", h.status)
	g.POST("/command", h.sendCommand)
	g.POST("/touch", h.sendTouch)
	g.POST("/disconnect", h.disconnectPhone)
}

func (h *ConsoleHandler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.drv.Snapshot())
}

// CommandRequest 命令注入请求：name 与 code 二选一，name 优先
type CommandRequest struct {
	Name string  `json:"name"`
	Code *uint32 `json:"code"`
}

func (h *ConsoleHandler) sendCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cmd protocol.CmdCode
	switch {
	case req.Name != "":
		var ok bool
		if cmd, ok = protocol.ParseCmd(req.Name); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown command name: " + req.Name})
			return
		}
	case req.Code != nil:
		cmd = protocol.CmdFromWire(*req.Code)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "name or code required"})
		return
	}

	if err := h.drv.Send(c.Request.Context(), protocol.SendCommand{Value: cmd}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("console command queued", zap.Stringer("command", cmd))
	c.JSON(http.StatusAccepted, gin.H{"command": cmd.String()})
}

// TouchRequest 触控注入请求：归一化[0,1]坐标
type TouchRequest struct {
	X      float32 `json:"x"`
	Y      float32 `json:"y"`
	Action string  `json:"action"` // down | move | up
}

func (h *ConsoleHandler) sendTouch(c *gin.Context) {
	var req TouchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var action protocol.TouchAction
	switch req.Action {
	case "down":
		action = protocol.TouchDown
	case "move":
		action = protocol.TouchMove
	case "up":
		action = protocol.TouchUp
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid touch action: " + req.Action})
		return
	}

	msg := protocol.SendTouch{X: req.X, Y: req.Y, Action: action}
	if err := h.drv.Send(c.Request.Context(), msg); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"action": req.Action})
}

func (h *ConsoleHandler) disconnectPhone(c *gin.Context) {
	if err := h.drv.Send(c.Request.Context(), protocol.SendDisconnectPhone{}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
