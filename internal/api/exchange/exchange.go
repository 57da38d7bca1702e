package exchange

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

// ExchangeHandler 处理换货相关的请求
type ExchangeHandler struct {
	exchangeService *service.ExchangeService
}

func NewExchangeHandler(exchangeService *service.ExchangeService) *ExchangeHandler {
	return &ExchangeHandler{exchangeService}
}

// CreateExchange 客户提交换货申请
func (h *ExchangeHandler) CreateExchange(c *gin.Context) {
	var input struct {
		OrderID        int     `json:"order_id" binding:"required"`
		Reason         string  `json:"reason" binding:"required"`
		Description    string  `json:"description"`
		ProofImagePath string  `json:"proof_image_path"`
		ProductID      string  `json:"product_id" binding:"required"`
		ProductName    string  `json:"product_name" binding:"required"`
		ProductVariant string  `json:"product_variant"`
		Quantity       int     `json:"quantity" binding:"required,gt=0"`
		Price          float64 `json:"price" binding:"required,gt=0"`
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

	exchange := &model.Exchange{
		OrderID:        input.OrderID,
		Reason:         input.Reason,
		Description:    input.Description,
		ProofImagePath: input.ProofImagePath,
		ProductID:      input.ProductID,
		ProductName:    input.ProductName,
		ProductVariant: input.ProductVariant,
		Quantity:       input.Quantity,
		Price:          input.Price,
	}

	if err := h.exchangeService.CreateExchange(exchange); err != nil {
		util.Logger.Error("创建换货申请失败",
			zap.Error(err),
			zap.Int("order_id", input.OrderID))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": exchange,
	})
}

// GetExchange 获取换货单详情
func (h *ExchangeHandler) GetExchange(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid exchange ID",
		})
		return
	}

	exchange, err := h.exchangeService.GetExchange(id)
	if err != nil {
		util.Logger.Error("获取换货单失败", zap.Error(err), zap.Int("exchange_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}
	if exchange == nil {
		errors.HandleError(c, errors.New(errors.ErrExchangeNotFound, "Exchange not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": exchange,
	})
}

// ListExchanges 获取换货单列表
func (h *ExchangeHandler) ListExchanges(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	exchanges, total, err := h.exchangeService.ListExchanges(page, pageSize)
	if err != nil {
		util.Logger.Error("获取换货单列表失败", zap.Error(err))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"exchanges": exchanges,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// ApproveExchange 审批通过换货申请（管理员）
func (h *ExchangeHandler) ApproveExchange(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid exchange ID",
		})
		return
	}

	var input struct {
		AdminNotes string `json:"admin_notes"`
	}
	c.ShouldBindJSON(&input)

	exchange, err := h.exchangeService.ApproveExchange(c.Request.Context(), id, input.AdminNotes)
	if err != nil {
		util.Logger.Error("审批换货申请失败",
			zap.Error(err),
			zap.Int("exchange_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": exchange,
	})
}

// RejectExchange 驳回换货申请（管理员）
func (h *ExchangeHandler) RejectExchange(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid exchange ID",
		})
		return
	}

	var input struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid input",
		})
		return
	}

	exchange, err := h.exchangeService.RejectExchange(c.Request.Context(), id, input.Reason)
	if err != nil {
		util.Logger.Error("驳回换货申请失败",
			zap.Error(err),
			zap.Int("exchange_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": exchange,
	})
}

// QualityCheck 退货质检（管理员）
// 质检通过会自动触发补发
func (h *ExchangeHandler) QualityCheck(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid exchange ID",
		})
		return
	}

	var input struct {
		Approved *bool  `json:"approved" binding:"required"`
		Notes    string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid input",
		})
		return
	}

	exchange, err := h.exchangeService.QualityCheck(c.Request.Context(), id, *input.Approved, input.Notes)
	if err != nil {
		util.Logger.Error("换货质检处理失败",
			zap.Error(err),
			zap.Int("exchange_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": exchange,
	})
}

// RefundExchange 换货转退款（管理员）
func (h *ExchangeHandler) RefundExchange(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid exchange ID",
		})
		return
	}

	var input struct {
		Notes string `json:"notes"`
	}
	c.ShouldBindJSON(&input)

	exchange, err := h.exchangeService.RefundExchange(c.Request.Context(), id, input.Notes)
	if err != nil {
		util.Logger.Error("换货转退款失败",
			zap.Error(err),
			zap.Int("exchange_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": exchange,
	})
}
