package refund

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/service"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// RefundHandler 处理退款相关的请求
type RefundHandler struct {
	refundService *service.RefundService
}

func NewRefundHandler(refundService *service.RefundService) *RefundHandler {
	return &RefundHandler{refundService}
}

// CreateRefund 客户提交退款申请
func (h *RefundHandler) CreateRefund(c *gin.Context) {
	var input struct {
		OrderID        int     `json:"order_id" binding:"required"`
		Reason         string  `json:"reason" binding:"required"`
		Description    string  `json:"description"`
		ProofImagePath string  `json:"proof_image_path"`
		Amount         float64 `json:"amount"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Error("无效的请求数据", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid input",
			"error":   err.Error(),
		})
		return
	}

	refund := &model.Refund{
		OrderID:        input.OrderID,
		Reason:         input.Reason,
		Description:    input.Description,
		ProofImagePath: input.ProofImagePath,
		Amount:         input.Amount,
	}

	if err := h.refundService.CreateRefund(refund); err != nil {
		util.Logger.Error("创建退款申请失败",
			zap.Error(err),
			zap.Int("order_id", input.OrderID))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": refund,
	})
}

// GetRefund 获取退款单详情
func (h *RefundHandler) GetRefund(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid refund ID",
		})
		return
	}

	refund, err := h.refundService.GetRefund(id)
	if err != nil {
		util.Logger.Error("获取退款单失败", zap.Error(err), zap.Int("refund_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}
	if refund == nil {
		errors.HandleError(c, errors.New(errors.ErrRefundNotFound, "Refund not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": refund,
	})
}

// ListRefunds 获取退款单列表
func (h *RefundHandler) ListRefunds(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	refunds, total, err := h.refundService.ListRefunds(page, pageSize)
	if err != nil {
		util.Logger.Error("获取退款单列表失败", zap.Error(err))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"refunds":   refunds,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// ApproveRefund 审批通过退款申请（管理员）
func (h *RefundHandler) ApproveRefund(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid refund ID",
		})
		return
	}

	var input struct {
		AdminNotes string `json:"admin_notes"`
	}
	c.ShouldBindJSON(&input)

	refund, err := h.refundService.ApproveRefund(c.Request.Context(), id, input.AdminNotes)
	if err != nil {
		util.Logger.Error("审批退款申请失败",
			zap.Error(err),
			zap.Int("refund_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": refund,
	})
}

// RejectRefund 驳回退款申请（管理员），原因必填
func (h *RefundHandler) RejectRefund(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid refund ID",
		})
		return
	}

	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Rejection reason is required",
		})
		return
	}

	refund, err := h.refundService.RejectRefund(c.Request.Context(), id, input.Reason)
	if err != nil {
		util.Logger.Error("驳回退款申请失败",
			zap.Error(err),
			zap.Int("refund_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": refund,
	})
}

// CompleteRefund 完成退款（管理员）
func (h *RefundHandler) CompleteRefund(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid refund ID",
		})
		return
	}

	refund, err := h.refundService.CompleteRefund(c.Request.Context(), id)
	if err != nil {
		util.Logger.Error("完成退款失败",
			zap.Error(err),
			zap.Int("refund_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": refund,
	})
}
