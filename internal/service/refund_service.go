package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/repository/interfaces"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// RefundService 退款流程编排
// 与换货不同，退款没有质检环节，收到退货后由管理员人工完成
type RefundService struct {
	refundRepo   interfaces.RefundRepository
	orderRepo    interfaces.OrderRepository
	shipmentRepo interfaces.ShipmentRepository
	shipments    *ShipmentService
	email        CustomerNotifier
}

func NewRefundService(
	refundRepo interfaces.RefundRepository,
	orderRepo interfaces.OrderRepository,
	shipmentRepo interfaces.ShipmentRepository,
	shipments *ShipmentService,
	email CustomerNotifier,
) *RefundService {
	return &RefundService{
		refundRepo:   refundRepo,
		orderRepo:    orderRepo,
		shipmentRepo: shipmentRepo,
		shipments:    shipments,
		email:        email,
	}
}

// CreateRefund 客户发起退款申请
func (s *RefundService) CreateRefund(refund *model.Refund) error {
	order, err := s.orderRepo.GetByID(refund.OrderID)
	if err != nil {
		return err
	}
	if order == nil {
		return errors.New(errors.ErrOrderNotFound, "订单不存在")
	}

	existing, err := s.refundRepo.GetActiveByOrderID(refund.OrderID)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New(errors.ErrResourceExists,
			fmt.Sprintf("该订单已存在进行中的退款申请，状态为：%s", existing.Status))
	}

	if refund.Amount <= 0 {
		refund.Amount = order.Amount
	}
	refund.Status = model.RefundStatusPending
	return s.refundRepo.Create(refund)
}

func (s *RefundService) GetRefund(id int) (*model.Refund, error) {
	return s.refundRepo.GetByID(id)
}

func (s *RefundService) ListRefunds(page, pageSize int) ([]*model.Refund, int, error) {
	return s.refundRepo.List(page, pageSize)
}

// ApproveRefund 审批通过退款申请并创建退回运单
// 重复审批幂等：已有进行中的退回运单时直接返回当前状态
func (s *RefundService) ApproveRefund(ctx context.Context, id int, adminNotes string) (*model.Refund, error) {
	refund, err := s.refundRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, errors.New(errors.ErrRefundNotFound, "退款单不存在")
	}
	if refund.IsTerminal() {
		util.Logger.Warn("退款单已处于终态，忽略审批请求",
			zap.Int("refund_id", id),
			zap.String("status", refund.Status))
		return refund, nil
	}

	existingLeg, err := s.shipmentRepo.GetActiveLeg(model.LegRefundReturn, id)
	if err != nil {
		return nil, err
	}
	if existingLeg != nil {
		util.Logger.Info("退款单已有进行中的退回运单，跳过创建",
			zap.Int("refund_id", id),
			zap.String("awb", existingLeg.AWB))
		return refund, nil
	}

	order, err := s.orderRepo.GetByID(refund.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New(errors.ErrOrderNotFound, "订单不存在")
	}

	now := time.Now()
	refund.Status = model.RefundStatusApproved
	refund.AdminNotes = adminNotes
	refund.ApprovedAt = &now
	if err := s.refundRepo.Update(refund); err != nil {
		return nil, err
	}

	orderRef := fmt.Sprintf("%s-REF-%d-RET", order.OrderNumber, refund.ID)
	leg, label, err := s.shipments.CreateReturnLeg(ctx, order, model.LegRefundReturn, refund.ID, orderRef)
	if err != nil {
		util.Logger.Error("创建退款退回运单失败，退款单保持已审批状态",
			zap.Error(err),
			zap.Int("refund_id", id))
		return nil, errors.Wrap(errors.ErrCarrierGateway, "failed to create return shipment", err)
	}

	refund.ReturnAWB = leg.AWB
	if err := s.refundRepo.Update(refund); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(order.ID, model.OrderStatusRefundApproved); err != nil {
		return nil, err
	}

	// 面单邮件失败只记日志，审批结果不受影响
	if ok := s.email.SendReturnLabelEmail(order.Email, order.CustomerName, leg.AWB, label); !ok {
		util.Logger.Warn("退货面单邮件发送失败",
			zap.Int("refund_id", id),
			zap.String("email", order.Email))
	}

	return refund, nil
}

// RejectRefund 驳回退款申请，驳回原因必填
// 原因校验在任何写操作之前完成
func (s *RefundService) RejectRefund(ctx context.Context, id int, reason string) (*model.Refund, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New(errors.ErrValidation, "驳回原因不能为空")
	}

	refund, err := s.refundRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, errors.New(errors.ErrRefundNotFound, "退款单不存在")
	}
	if refund.IsTerminal() {
		return refund, nil
	}

	refund.Status = model.RefundStatusRejected
	refund.RejectionReason = reason
	if err := s.refundRepo.Update(refund); err != nil {
		return nil, err
	}
	if err := s.orderRepo.UpdateStatus(refund.OrderID, model.OrderStatusRefundRejected); err != nil {
		return nil, err
	}

	if order, _ := s.orderRepo.GetByID(refund.OrderID); order != nil {
		s.email.SendRejectionEmail(order.Email, order.CustomerName, "退款", reason)
	}
	return refund, nil
}

// CompleteRefund 管理员确认收货并完成退款
func (s *RefundService) CompleteRefund(ctx context.Context, id int) (*model.Refund, error) {
	refund, err := s.refundRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, errors.New(errors.ErrRefundNotFound, "退款单不存在")
	}
	if refund.Status == model.RefundStatusCompleted {
		return refund, nil
	}
	if refund.Status == model.RefundStatusRejected {
		return nil, errors.New(errors.ErrInvalidTransition, "退款单已被驳回，无法完成")
	}

	now := time.Now()
	refund.Status = model.RefundStatusCompleted
	refund.CompletedAt = &now
	if err := s.refundRepo.Update(refund); err != nil {
		return nil, err
	}

	return refund, s.orderRepo.UpdateStatus(refund.OrderID, model.OrderStatusRefunded)
}
