package order

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/service"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// OrderHandler 处理订单和派送相关的请求
type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService}
}

// CreateOrder 创建订单
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var input struct {
		CustomerName string  `json:"customer_name" binding:"required"`
		CustomerType string  `json:"customer_type"`
		Email        string  `json:"email" binding:"required,email"`
		Phone        string  `json:"phone" binding:"required"`
		Products     string  `json:"products" binding:"required"`
		Amount       float64 `json:"amount" binding:"required,gt=0"`
		PaymentMode  string  `json:"payment_mode" binding:"required,oneof=Prepaid COD"`
		Address      string  `json:"address" binding:"required"`
		City         string  `json:"city" binding:"required"`
		State        string  `json:"state" binding:"required"`
		Pincode      string  `json:"pincode" binding:"required"`
		HeightCM     float64 `json:"height_cm"`
		BreadthCM    float64 `json:"breadth_cm"`
		LengthCM     float64 `json:"length_cm"`
		WeightKG     float64 `json:"weight_kg"`
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

	order := &model.Order{
		CustomerName: input.CustomerName,
		CustomerType: input.CustomerType,
		Email:        input.Email,
		Phone:        input.Phone,
		Products:     input.Products,
		Amount:       input.Amount,
		PaymentMode:  input.PaymentMode,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		Pincode:      input.Pincode,
		HeightCM:     input.HeightCM,
		BreadthCM:    input.BreadthCM,
		LengthCM:     input.LengthCM,
		WeightKG:     input.WeightKG,
	}

	if err := h.orderService.CreateOrder(order); err != nil {
		util.Logger.Error("创建订单失败", zap.Error(err))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": order,
	})
}

// GetOrder 获取订单详情
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid order ID",
		})
		return
	}

	order, err := h.orderService.GetOrder(id)
	if err != nil {
		util.Logger.Error("获取订单失败", zap.Error(err), zap.Int("order_id", id))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}
	if order == nil {
		errors.HandleError(c, errors.New(errors.ErrOrderNotFound, "Order not found"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": order,
	})
}

// ListOrders 获取订单列表
func (h *OrderHandler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	orders, total, err := h.orderService.ListOrders(page, pageSize)
	if err != nil {
		util.Logger.Error("获取订单列表失败", zap.Error(err))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"orders":    orders,
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// UpdateOrderStatus 更新订单状态
// 状态改为 "Ready to Pickup" 会触发发货流程
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid order ID",
		})
		return
	}

	var input struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid input",
		})
		return
	}

	if err := h.orderService.UpdateOrderStatus(c.Request.Context(), id, input.Status); err != nil {
		util.Logger.Error("更新订单状态失败",
			zap.Error(err),
			zap.Int("order_id", id),
			zap.String("status", input.Status))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Order status updated successfully",
	})
}

// GetDeliveries 获取派送列表
func (h *OrderHandler) GetDeliveries(c *gin.Context) {
	rows, err := h.orderService.GetDeliveries()
	if err != nil {
		util.Logger.Error("获取派送列表失败", zap.Error(err))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": rows,
	})
}

// ScheduleDelivery 为派送记录预约上门取件时间
func (h *OrderHandler) ScheduleDelivery(c *gin.Context) {
	legID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid delivery ID",
		})
		return
	}

	var input struct {
		PickupTime time.Time `json:"pickup_time" binding:"required,future_date"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		util.Logger.Error("无效的取件时间", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    400,
			"message": "Invalid pickup time",
			"error":   err.Error(),
		})
		return
	}

	if err := h.orderService.ScheduleDelivery(c.Request.Context(), legID, input.PickupTime); err != nil {
		util.Logger.Error("预约取件失败",
			zap.Error(err),
			zap.Int("leg_id", legID))
		c.Error(err)
		errors.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "Pickup scheduled successfully",
	})
}
