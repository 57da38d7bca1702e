package service

import (
	"context"
	"fmt"
	"time"

	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/repository/interfaces"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo    interfaces.OrderRepository
	shipmentRepo interfaces.ShipmentRepository
	exchangeRepo interfaces.ExchangeRepository
	refundRepo   interfaces.RefundRepository
	shipments    *ShipmentService
}

func NewOrderService(
	orderRepo interfaces.OrderRepository,
	shipmentRepo interfaces.ShipmentRepository,
	exchangeRepo interfaces.ExchangeRepository,
	refundRepo interfaces.RefundRepository,
	shipments *ShipmentService,
) *OrderService {
	return &OrderService{
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		exchangeRepo: exchangeRepo,
		refundRepo:   refundRepo,
		shipments:    shipments,
	}
}

func (s *OrderService) CreateOrder(order *model.Order) error {
	return s.orderRepo.Create(order)
}

func (s *OrderService) GetOrder(id int) (*model.Order, error) {
	return s.orderRepo.GetByID(id)
}

func (s *OrderService) ListOrders(page, pageSize int) ([]*model.Order, int, error) {
	return s.orderRepo.List(page, pageSize)
}

// UpdateOrderStatus 更新订单状态
// 状态改为 "Ready to Pickup" 时触发正向发货：创建运单、拉面单、回写 AWB
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID int, status string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errors.New(errors.ErrOrderNotFound, fmt.Sprintf("order %d not found", orderID))
	}

	if err := s.orderRepo.UpdateStatus(orderID, status); err != nil {
		return err
	}

	if status == model.OrderStatusReadyToPickup {
		if err := s.dispatchOrder(ctx, order); err != nil {
			util.Logger.Error("订单发货失败",
				zap.Error(err),
				zap.Int("order_id", orderID))
			return err
		}
	}
	return nil
}

// dispatchOrder 触发正向发货，订单已有运单号时直接跳过
func (s *OrderService) dispatchOrder(ctx context.Context, order *model.Order) error {
	if order.AWBNumber != "" {
		util.Logger.Info("订单已有运单号，跳过发货",
			zap.Int("order_id", order.ID),
			zap.String("awb", order.AWBNumber))
		return nil
	}

	leg, err := s.shipments.CreateForwardLeg(ctx, order)
	if err != nil {
		return err
	}

	if err := s.orderRepo.UpdateAWB(order.ID, leg.AWB); err != nil {
		return err
	}
	order.AWBNumber = leg.AWB

	util.Logger.Info("订单发货完成",
		zap.Int("order_id", order.ID),
		zap.String("awb", leg.AWB))
	return nil
}

// GetDeliveries 派送列表读模型
// 每个正向运单一行；订单存在进行中的换货/退款运单时由其覆盖，补发运单优先于退回运单
func (s *OrderService) GetDeliveries() ([]*model.DeliveryRow, error) {
	forwardLegs, err := s.shipmentRepo.ListByKind(model.LegOrderForward)
	if err != nil {
		return nil, err
	}

	rows := make([]*model.DeliveryRow, 0, len(forwardLegs))
	rowByOrder := make(map[int]*model.DeliveryRow)

	for _, leg := range forwardLegs {
		order, err := s.orderRepo.GetByID(leg.ParentID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			util.Logger.Warn("运单指向的订单不存在",
				zap.Int("leg_id", leg.ID),
				zap.Int("order_id", leg.ParentID))
			continue
		}
		row := buildDeliveryRow(leg, order, order.ID)
		rows = append(rows, row)
		rowByOrder[order.ID] = row
	}

	// 覆盖顺序：退款退回、换货退回，最后换货补发
	if err := s.overlayRefundLegs(rowByOrder); err != nil {
		return nil, err
	}
	if err := s.overlayExchangeLegs(rowByOrder, model.LegExchangeReturn); err != nil {
		return nil, err
	}
	if err := s.overlayExchangeLegs(rowByOrder, model.LegExchangeForward); err != nil {
		return nil, err
	}

	return rows, nil
}

func (s *OrderService) overlayExchangeLegs(rowByOrder map[int]*model.DeliveryRow, kind model.LegKind) error {
	legs, err := s.shipmentRepo.ListByKind(kind)
	if err != nil {
		return err
	}
	for _, leg := range legs {
		if !leg.IsActive() && kind == model.LegExchangeReturn {
			continue
		}
		exchange, err := s.exchangeRepo.GetByID(leg.ParentID)
		if err != nil {
			return err
		}
		if exchange == nil {
			continue
		}
		row, ok := rowByOrder[exchange.OrderID]
		if !ok {
			continue
		}
		overlayRow(row, leg, exchange.ID)
	}
	return nil
}

func (s *OrderService) overlayRefundLegs(rowByOrder map[int]*model.DeliveryRow) error {
	legs, err := s.shipmentRepo.ListByKind(model.LegRefundReturn)
	if err != nil {
		return err
	}
	for _, leg := range legs {
		if !leg.IsActive() {
			continue
		}
		refund, err := s.refundRepo.GetByID(leg.ParentID)
		if err != nil {
			return err
		}
		if refund == nil {
			continue
		}
		row, ok := rowByOrder[refund.OrderID]
		if !ok {
			continue
		}
		overlayRow(row, leg, refund.ID)
	}
	return nil
}

func buildDeliveryRow(leg *model.ShipmentLeg, order *model.Order, orderID int) *model.DeliveryRow {
	return &model.DeliveryRow{
		ID:             leg.ID,
		Kind:           string(leg.Kind),
		UnderlyingID:   leg.ParentID,
		OrderID:        orderID,
		OrderNumber:    order.OrderNumber,
		CustomerName:   order.CustomerName,
		Phone:          order.Phone,
		FullAddress:    order.Address,
		City:           order.City,
		State:          order.State,
		Pincode:        order.Pincode,
		AWBNumber:      leg.AWB,
		CourierPartner: leg.CourierPartner,
		PaymentMode:    order.PaymentMode,
		Amount:         order.Amount,
		DeliveryStatus: leg.Status,
		SchedulePickup: leg.SchedulePickup,
		LabelPath:      leg.LabelPath,
	}
}

func overlayRow(row *model.DeliveryRow, leg *model.ShipmentLeg, underlyingID int) {
	row.ID = leg.ID
	row.Kind = string(leg.Kind)
	row.UnderlyingID = underlyingID
	row.AWBNumber = leg.AWB
	row.CourierPartner = leg.CourierPartner
	row.DeliveryStatus = leg.Status
	row.SchedulePickup = leg.SchedulePickup
	row.LabelPath = leg.LabelPath
}

// ScheduleDelivery 为派送列表中的一行预约取件时间
func (s *OrderService) ScheduleDelivery(ctx context.Context, legID int, pickupAt time.Time) error {
	return s.shipments.SchedulePickup(ctx, legID, pickupAt)
}
