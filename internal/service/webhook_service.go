package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/logeshtheni/sevenxt/internal/repository/interfaces"
	"github.com/logeshtheni/sevenxt/internal/util"
	"go.uber.org/zap"
)

// WebhookResult 回调处理结果
// 无法处理的事件同样返回 ok，快递商不应该为我们不认识的状态重推
type WebhookResult struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// WebhookService 快递状态回调的归一化与对账引擎
// 每个事件在一个事务内处理：按 AWB 锁定运单，更新运单并联动父实体
type WebhookService struct {
	db           *sql.DB
	shipmentRepo interfaces.ShipmentRepository
	orderRepo    interfaces.OrderRepository
	exchangeRepo interfaces.ExchangeRepository
	refundRepo   interfaces.RefundRepository
	email        FailureAlerter

	alertThreshold int
	alertRepeat    bool
}

func NewWebhookService(
	db *sql.DB,
	shipmentRepo interfaces.ShipmentRepository,
	orderRepo interfaces.OrderRepository,
	exchangeRepo interfaces.ExchangeRepository,
	refundRepo interfaces.RefundRepository,
	email FailureAlerter,
	alertThreshold int,
	alertRepeat bool,
) *WebhookService {
	if alertThreshold <= 0 {
		alertThreshold = 3
	}
	return &WebhookService{
		db:             db,
		shipmentRepo:   shipmentRepo,
		orderRepo:      orderRepo,
		exchangeRepo:   exchangeRepo,
		refundRepo:     refundRepo,
		email:          email,
		alertThreshold: alertThreshold,
		alertRepeat:    alertRepeat,
	}
}

// ParseEvent 解析快递商回调的几种报文形态
// 平铺字段、嵌套 Shipment 对象、scans 数组（取最后一条扫描）都要兼容
func ParseEvent(body []byte) (awb string, rawStatus string, err error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", "", fmt.Errorf("invalid webhook payload: %w", err)
	}

	awb = stringField(payload, "awb", "waybill", "AWB", "Waybill")
	rawStatus = statusField(payload)

	if shipment, ok := payload["Shipment"].(map[string]interface{}); ok {
		if awb == "" {
			awb = stringField(shipment, "AWB", "awb", "Waybill", "waybill")
		}
		if rawStatus == "" {
			rawStatus = statusField(shipment)
		}
	}

	// scans 数组里最后一条扫描记录为最新状态
	if scans, ok := payload["scans"].([]interface{}); ok && len(scans) > 0 {
		if last, ok := scans[len(scans)-1].(map[string]interface{}); ok {
			detail := last
			if d, ok := last["ScanDetail"].(map[string]interface{}); ok {
				detail = d
			}
			if s := stringField(detail, "Scan", "Status", "ScanType", "status"); s != "" {
				rawStatus = s
			}
			if awb == "" {
				awb = stringField(detail, "AWB", "awb", "Waybill", "waybill")
			}
		}
	}

	if awb == "" {
		return "", "", fmt.Errorf("webhook payload missing awb")
	}
	if rawStatus == "" {
		return "", "", fmt.Errorf("webhook payload missing status")
	}
	return awb, rawStatus, nil
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func statusField(m map[string]interface{}) string {
	switch v := m["Status"].(type) {
	case string:
		return v
	case map[string]interface{}:
		return stringField(v, "Status", "status")
	}
	if s, ok := m["status"].(string); ok {
		return s
	}
	return ""
}

type pendingAlert struct {
	awb         string
	orderNumber string
	attempts    int
}

// ProcessEvent 处理一个回调事件
// 业务上无法消费的事件返回 ok 结果；只有基础设施错误才返回 error
func (s *WebhookService) ProcessEvent(ctx context.Context, body []byte) (*WebhookResult, error) {
	awb, rawStatus, err := ParseEvent(body)
	if err != nil {
		util.Logger.Warn("回调报文无法解析", zap.Error(err))
		return &WebhookResult{OK: true, Reason: "unrecognized payload"}, nil
	}

	status, known := model.NormalizeCarrierStatus(rawStatus)
	if !known {
		util.Logger.Warn("未识别的快递状态词，丢弃事件",
			zap.String("awb", awb),
			zap.String("raw_status", rawStatus))
		return &WebhookResult{OK: true, Reason: "unhandled status"}, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	legs, err := s.shipmentRepo.GetByAWBForUpdate(tx, awb)
	if err != nil {
		return nil, err
	}
	if len(legs) == 0 {
		util.Logger.Warn("回调 AWB 无对应运单，丢弃事件",
			zap.String("awb", awb),
			zap.String("raw_status", rawStatus))
		return &WebhookResult{OK: true, Reason: "unknown awb"}, nil
	}

	var alerts []pendingAlert
	for _, leg := range legs {
		legAlerts, err := s.applyToLeg(tx, leg, status, rawStatus)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, legAlerts...)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit webhook transaction: %w", err)
	}

	// 告警在事务提交后发送
	for _, a := range alerts {
		s.email.SendDeliveryFailureAlert(a.awb, a.orderNumber, a.attempts)
	}

	return &WebhookResult{OK: true}, nil
}

// applyToLeg 将归一化后的事件应用到单条运单
func (s *WebhookService) applyToLeg(tx *sql.Tx, leg *model.ShipmentLeg, status model.DeliveryStatus, rawStatus string) ([]pendingAlert, error) {
	// 已标记异常或 RTO 的运单只接受人工处理
	if model.IsExceptionStatus(leg.Status) {
		util.Logger.Info("运单处于异常状态，事件仅记录",
			zap.Int("leg_id", leg.ID),
			zap.String("awb", leg.AWB),
			zap.String("stored_status", leg.Status),
			zap.String("raw_status", rawStatus))
		return nil, nil
	}

	switch status {
	case model.StatusFailed:
		return s.applyFailure(tx, leg)

	case model.StatusRTO:
		if err := s.shipmentRepo.UpdateStatusTx(tx, leg.ID, string(model.StatusRTO)); err != nil {
			return nil, err
		}
		util.Logger.Warn("运单进入退回状态，等待人工处理",
			zap.Int("leg_id", leg.ID),
			zap.String("awb", leg.AWB))
		return nil, nil

	case model.StatusException:
		// 保留快递商原始状态串，父实体不做任何推断
		stored := model.ExceptionPrefix + rawStatus
		if err := s.shipmentRepo.UpdateStatusTx(tx, leg.ID, stored); err != nil {
			return nil, err
		}
		util.Logger.Warn("运单进入异常状态，等待人工处理",
			zap.Int("leg_id", leg.ID),
			zap.String("awb", leg.AWB),
			zap.String("stored_status", stored))
		return nil, nil
	}

	// 主链状态：只允许沿顺序表前进
	current := model.DeliveryStatus(leg.Status)
	if current.IsMainLine() && status.Rank() <= current.Rank() {
		if status.Rank() < current.Rank() {
			util.Logger.Info("忽略回退的状态事件",
				zap.Int("leg_id", leg.ID),
				zap.String("awb", leg.AWB),
				zap.String("current", leg.Status),
				zap.String("incoming", string(status)))
		}
		return nil, nil
	}

	if err := s.shipmentRepo.UpdateStatusTx(tx, leg.ID, string(status)); err != nil {
		return nil, err
	}
	leg.Status = string(status)

	return nil, s.propagate(tx, leg, status)
}

// applyFailure 累计派送失败次数，达到阈值触发管理员告警
// 默认只在恰好越过阈值时告警一次，可配置为超过阈值后每次失败都告警
func (s *WebhookService) applyFailure(tx *sql.Tx, leg *model.ShipmentLeg) ([]pendingAlert, error) {
	attempts, err := s.shipmentRepo.IncrementAttemptsTx(tx, leg.ID)
	if err != nil {
		return nil, err
	}

	util.Logger.Warn("运单派送失败",
		zap.Int("leg_id", leg.ID),
		zap.String("awb", leg.AWB),
		zap.Int("attempts", attempts))

	if attempts < s.alertThreshold {
		return nil, nil
	}
	if attempts > s.alertThreshold && !s.alertRepeat {
		return nil, nil
	}

	orderNumber := s.lookupOrderNumber(tx, leg)
	return []pendingAlert{{awb: leg.AWB, orderNumber: orderNumber, attempts: attempts}}, nil
}

// lookupOrderNumber 尽力取运单所属的订单编号，仅用于告警内容
func (s *WebhookService) lookupOrderNumber(tx *sql.Tx, leg *model.ShipmentLeg) string {
	orderID := 0
	switch leg.Kind {
	case model.LegOrderForward:
		orderID = leg.ParentID
	case model.LegExchangeReturn, model.LegExchangeForward:
		if ex, err := s.exchangeRepo.GetByIDTx(tx, leg.ParentID); err == nil && ex != nil {
			orderID = ex.OrderID
		}
	case model.LegRefundReturn:
		if rf, err := s.refundRepo.GetByIDTx(tx, leg.ParentID); err == nil && rf != nil {
			orderID = rf.OrderID
		}
	}
	if orderID == 0 {
		return ""
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil || order == nil {
		return ""
	}
	return order.OrderNumber
}

// propagate 运单前进后联动父实体状态
func (s *WebhookService) propagate(tx *sql.Tx, leg *model.ShipmentLeg, status model.DeliveryStatus) error {
	switch leg.Kind {
	case model.LegOrderForward:
		return s.propagateOrderForward(tx, leg, status)
	case model.LegExchangeReturn:
		return s.propagateExchangeReturn(tx, leg, status)
	case model.LegExchangeForward:
		return s.propagateExchangeForward(tx, leg, status)
	case model.LegRefundReturn:
		return s.propagateRefundReturn(tx, leg, status)
	}
	return nil
}

func (s *WebhookService) propagateOrderForward(tx *sql.Tx, leg *model.ShipmentLeg, status model.DeliveryStatus) error {
	switch status {
	case model.StatusPickedUp, model.StatusInTransit, model.StatusOutForDelivery:
		return s.orderRepo.UpdateStatusTx(tx, leg.ParentID, model.OrderStatusInTransit)
	case model.StatusDelivered:
		return s.orderRepo.UpdateStatusTx(tx, leg.ParentID, model.OrderStatusDelivered)
	}
	return nil
}

func (s *WebhookService) propagateExchangeReturn(tx *sql.Tx, leg *model.ShipmentLeg, status model.DeliveryStatus) error {
	exchange, err := s.exchangeRepo.GetByIDTx(tx, leg.ParentID)
	if err != nil {
		return err
	}
	if exchange == nil {
		util.Logger.Warn("退回运单指向的换货单不存在",
			zap.Int("leg_id", leg.ID),
			zap.Int("exchange_id", leg.ParentID))
		return nil
	}
	if exchange.IsTerminal() {
		return nil
	}

	switch status {
	case model.StatusPickedUp, model.StatusInTransit, model.StatusOutForDelivery:
		if err := s.exchangeRepo.UpdateStatusTx(tx, exchange.ID, model.ExchangeStatusReturnInTransit); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusTx(tx, exchange.OrderID, model.OrderStatusReturnInTransit)
	case model.StatusDelivered:
		if err := s.exchangeRepo.UpdateStatusTx(tx, exchange.ID, model.ExchangeStatusReturnReceived); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusTx(tx, exchange.OrderID, model.OrderStatusReturnReceived)
	}
	return nil
}

func (s *WebhookService) propagateExchangeForward(tx *sql.Tx, leg *model.ShipmentLeg, status model.DeliveryStatus) error {
	exchange, err := s.exchangeRepo.GetByIDTx(tx, leg.ParentID)
	if err != nil {
		return err
	}
	if exchange == nil {
		util.Logger.Warn("补发运单指向的换货单不存在",
			zap.Int("leg_id", leg.ID),
			zap.Int("exchange_id", leg.ParentID))
		return nil
	}

	switch status {
	case model.StatusPickedUp, model.StatusInTransit, model.StatusOutForDelivery:
		return s.orderRepo.UpdateStatusTx(tx, exchange.OrderID, model.OrderStatusInTransit)
	case model.StatusDelivered:
		// 补发送达即换货完成
		if err := s.exchangeRepo.SetCompletedTx(tx, exchange.ID); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusTx(tx, exchange.OrderID, model.OrderStatusDelivered)
	}
	return nil
}

func (s *WebhookService) propagateRefundReturn(tx *sql.Tx, leg *model.ShipmentLeg, status model.DeliveryStatus) error {
	refund, err := s.refundRepo.GetByIDTx(tx, leg.ParentID)
	if err != nil {
		return err
	}
	if refund == nil {
		util.Logger.Warn("退回运单指向的退款单不存在",
			zap.Int("leg_id", leg.ID),
			zap.Int("refund_id", leg.ParentID))
		return nil
	}
	if refund.IsTerminal() {
		return nil
	}

	switch status {
	case model.StatusPickedUp, model.StatusInTransit, model.StatusOutForDelivery:
		if err := s.refundRepo.UpdateStatusTx(tx, refund.ID, model.RefundStatusReturnInTransit); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusTx(tx, refund.OrderID, model.OrderStatusReturnInTransit)
	case model.StatusDelivered:
		// 收到退货后等待管理员人工完成退款，订单状态同步镜像
		if err := s.refundRepo.UpdateStatusTx(tx, refund.ID, model.RefundStatusReturnReceived); err != nil {
			return err
		}
		return s.orderRepo.UpdateStatusTx(tx, refund.OrderID, model.OrderStatusReturnReceived)
	}
	return nil
}
