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

// ExchangeService 换货流程编排
// 审批通过创建退回运单，质检通过自动补发新品
type ExchangeService struct {
	exchangeRepo interfaces.ExchangeRepository
	orderRepo    interfaces.OrderRepository
	shipmentRepo interfaces.ShipmentRepository
	shipments    *ShipmentService
	email        CustomerNotifier
}

func NewExchangeService(
	exchangeRepo interfaces.ExchangeRepository,
	orderRepo interfaces.OrderRepository,
	shipmentRepo interfaces.ShipmentRepository,
	shipments *ShipmentService,
	email CustomerNotifier,
) *ExchangeService {
	return &ExchangeService{
		exchangeRepo: exchangeRepo,
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		shipments:    shipments,
		email:        email,
	}
}

// CreateExchange 客户发起换货申请
func (s *ExchangeService) CreateExchange(exchange *model.Exchange) error {
	order, err := s.orderRepo.GetByID(exchange.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errors.New(errors.ErrOrderNotFound, "订单不存在")
	}

	existing, err := s.exchangeRepo.GetActiveByOrderID(exchange.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New(errors.ErrResourceExists,
			fmt.Sprintf("该订单已存在进行中的换货申请，状态为：%s", existing.Status))
	}

	exchange.Status = model.ExchangeStatusPending
	if err := s.exchangeRepo.Create(exchange); err != nil {
		return err
	}

	return s.orderRepo.UpdateStatus(exchange.OrderID, model.OrderStatusExchangeRequested)
}

func (s *ExchangeService) GetExchange(id int) (*model.Exchange, error) {
	return s.exchangeRepo.GetByID(id)
}

func (s *ExchangeService) ListExchanges(page, pageSize int) ([]*model.Exchange, int, error) {
	return s.exchangeRepo.List(page, pageSize)
}

// ApproveExchange 审批通过换货申请并创建退回运单
// 重复审批是幂等的：已有进行中的退回运单时直接返回当前状态，不再建新运单
func (s *ExchangeService) ApproveExchange(ctx context.Context, id int, adminNotes string) (*model.Exchange, error) {
	exchange, err := s.exchangeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exchange == nil {
		return nil, errors.New(errors.ErrExchangeNotFound, "换货单不存在")
	}
	if exchange.IsTerminal() {
		util.Logger.Warn("换货单已处于终态，忽略审批请求",
			zap.Int("exchange_id", id),
			zap.String("status", exchange.Status))
		return exchange, nil
	}

	existingLeg, err := s.shipmentRepo.GetActiveLeg(model.LegExchangeReturn, id)
	if err != nil {
		return nil, err
	}
	if existingLeg != nil {
		util.Logger.Info("换货单已有进行中的退回运单，跳过创建",
			zap.Int("exchange_id", id),
			zap.String("awb", existingLeg.AWB))
		return exchange, nil
	}

	order, err := s.orderRepo.GetByID(exchange.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New(errors.ErrOrderNotFound, "订单不存在")
	}

	// 先落审批状态再调网关，网关失败时换货单保持已审批，可人工重试建运单
	now := time.Now()
	exchange.Status = model.ExchangeStatusApproved
	exchange.AdminNotes = adminNotes
	exchange.ApprovedAt = &now
	if err := s.exchangeRepo.Update(exchange); err != nil {
		return nil, err
	}

	orderRef := fmt.Sprintf("%s-EXCH-%d-RET", order.OrderNumber, exchange.ID)
	leg, label, err := s.shipments.CreateReturnLeg(ctx, order, model.LegExchangeReturn, exchange.ID, orderRef)
	if err != nil {
		util.Logger.Error("创建换货退回运单失败，换货单保持已审批状态",
			zap.Error(err),
			zap.Int("exchange_id", id))
		return nil, errors.Wrap(errors.ErrCarrierGateway, "failed to create return shipment", err)
	}

	exchange.ReturnAWB = leg.AWB
	if err := s.exchangeRepo.Update(exchange); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(order.ID, model.OrderStatusExchangeApproved); err != nil {
		return nil, err
	}

	// 通知失败不影响审批结果
	if ok := s.email.SendReturnLabelEmail(order.Email, order.CustomerName, leg.AWB, label); !ok {
		util.Logger.Warn("退货面单邮件发送失败",
			zap.Int("exchange_id", id),
			zap.String("email", order.Email))
	}

	return exchange, nil
}

// RejectExchange 驳回换货申请
func (s *ExchangeService) RejectExchange(ctx context.Context, id int, reason string) (*model.Exchange, error) {
	exchange, err := s.exchangeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exchange == nil {
		return nil, errors.New(errors.ErrExchangeNotFound, "换货单不存在")
	}
	if exchange.IsTerminal() {
		return exchange, nil
	}

	exchange.Status = model.ExchangeStatusRejected
	exchange.AdminNotes = reason
	if err := s.exchangeRepo.Update(exchange); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(exchange.OrderID, model.OrderStatusExchangeRejected); err != nil {
		return nil, err
	}

	if order, _ := s.orderRepo.GetByID(exchange.OrderID); order != nil {
		s.email.SendRejectionEmail(order.Email, order.CustomerName, "换货", reason)
	}
	return exchange, nil
}

// QualityCheck 退货收到后质检
// 质检通过后同步触发补发，绝不静默跳过
func (s *ExchangeService) QualityCheck(ctx context.Context, id int, approved bool, notes string) (*model.Exchange, error) {
	exchange, err := s.exchangeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exchange == nil {
		return nil, errors.New(errors.ErrExchangeNotFound, "换货单不存在")
	}
	if exchange.IsTerminal() {
		util.Logger.Warn("换货单已处于终态，忽略质检请求",
			zap.Int("exchange_id", id),
			zap.String("status", exchange.Status))
		return exchange, nil
	}

	now := time.Now()
	exchange.QualityApproved = &approved
	exchange.QualityNotes = notes
	exchange.QualityCheckedAt = &now

	if !approved {
		exchange.Status = model.ExchangeStatusQualityCheckFailed
		if err := s.exchangeRepo.Update(exchange); err != nil {
			return nil, err
		}
		if err := s.orderRepo.UpdateStatus(exchange.OrderID, model.OrderStatusExchangeRejected); err != nil {
			return nil, err
		}
		return exchange, nil
	}

	exchange.Status = model.ExchangeStatusQualityCheckPassed
	if err := s.exchangeRepo.Update(exchange); err != nil {
		return nil, err
	}

	return s.ProcessReplacement(ctx, id)
}

// ProcessReplacement 创建补发运单并回写订单
// 新运单号覆盖订单上的 AWB，订单回到待取件状态
func (s *ExchangeService) ProcessReplacement(ctx context.Context, id int) (*model.Exchange, error) {
	exchange, err := s.exchangeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exchange == nil {
		return nil, errors.New(errors.ErrExchangeNotFound, "换货单不存在")
	}
	if exchange.NewAWB != "" {
		util.Logger.Info("换货单已有补发运单，跳过创建",
			zap.Int("exchange_id", id),
			zap.String("new_awb", exchange.NewAWB))
		return exchange, nil
	}

	order, err := s.orderRepo.GetByID(exchange.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New(errors.ErrOrderNotFound, "订单不存在")
	}

	orderRef := fmt.Sprintf("%s-EXCH-%d-NEW", order.OrderNumber, exchange.ID)
	leg, err := s.shipments.CreateExchangeForwardLeg(ctx, order, exchange.ID, orderRef)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCarrierGateway, "failed to create replacement shipment", err)
	}

	exchange.NewAWB = leg.AWB
	exchange.Status = model.ExchangeStatusNewDispatched
	if err := s.exchangeRepo.Update(exchange); err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateAWB(order.ID, leg.AWB); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(order.ID, model.OrderStatusReadyToPickup); err != nil {
		return nil, err
	}

	util.Logger.Info("换货补发完成",
		zap.Int("exchange_id", id),
		zap.String("new_awb", leg.AWB))
	return exchange, nil
}

// RefundExchange 换货转退款的兜底出口，不再创建任何运单
func (s *ExchangeService) RefundExchange(ctx context.Context, id int, notes string) (*model.Exchange, error) {
	exchange, err := s.exchangeRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if exchange == nil {
		return nil, errors.New(errors.ErrExchangeNotFound, "换货单不存在")
	}
	if exchange.IsTerminal() {
		return exchange, nil
	}

	now := time.Now()
	exchange.Status = model.ExchangeStatusRefunded
	exchange.CompletedAt = &now
	if notes != "" {
		exchange.AdminNotes = notes
	}
	if err := s.exchangeRepo.Update(exchange); err != nil {
		return nil, err
	}

	return exchange, s.orderRepo.UpdateStatus(exchange.OrderID, model.OrderStatusRefunded)
}
