package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/service"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// WebhookHandler 接收快递商的状态回调
type WebhookHandler struct {
	webhookService *service.WebhookService
}

func NewWebhookHandler(webhookService *service.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhookService}
}

// HandleCarrierEvent 处理快递状态回调
// 无法消费的事件也返回 200，避免快递商无意义地重推
func (h *WebhookHandler) HandleCarrierEvent(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "reason": "failed to read body"})
		return
	}

	result, err := h.webhookService.ProcessEvent(c.Request.Context(), body)
	if err != nil {
		// 基础设施错误返回 500，让快递商稍后重推
		util.Logger.Error("回调处理失败", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "reason": "internal error"})
		return
	}

	c.JSON(http.StatusOK, result)
}
