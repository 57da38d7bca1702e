package service

import (
	"context"
	"testing"

	"github.com/logeshtheni/sevenxt/internal/errors"
	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newExchangeFixture() (*ExchangeService, *MockExchangeRepository, *MockOrderRepository, *MockShipmentRepository, *MockCarrierGateway, *MockStorage, *MockNotifier) {
	exchangeRepo := new(MockExchangeRepository)
	orderRepo := new(MockOrderRepository)
	shipmentRepo := new(MockShipmentRepository)
	gateway := new(MockCarrierGateway)
	store := new(MockStorage)
	notifier := new(MockNotifier)

	shipments := NewShipmentService(shipmentRepo, gateway, store)
	svc := NewExchangeService(exchangeRepo, orderRepo, shipmentRepo, shipments, notifier)
	return svc, exchangeRepo, orderRepo, shipmentRepo, gateway, store, notifier
}

func testOrder() *model.Order {
	return &model.Order{
		ID:           7,
		OrderNumber:  "ORD-1700000000-0001",
		CustomerName: "Asha",
		Email:        "asha@example.com",
		Phone:        "9999999999",
		Amount:       1200,
		PaymentMode:  "Prepaid",
		Address:      "12 MG Road",
		City:         "Chennai",
		State:        "Tamil Nadu",
		Pincode:      "600001",
		WeightKG:     0.5,
	}
}

// TestCreateExchange 创建换货申请并把订单置为换货申请中
func TestCreateExchange(t *testing.T) {
	svc, exchangeRepo, orderRepo, _, _, _, _ := newExchangeFixture()

	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	exchangeRepo.On("GetActiveByOrderID", 7).Return(nil, nil)
	exchangeRepo.On("Create", mock.AnythingOfType("*model.Exchange")).Return(nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusExchangeRequested).Return(nil)

	exchange := &model.Exchange{OrderID: 7, Reason: "尺码不合适"}
	err := svc.CreateExchange(exchange)
	assert.NoError(t, err)
	assert.Equal(t, "Pending", exchange.Status)
	exchangeRepo.AssertExpectations(t)
}

// TestCreateExchange_ActiveExists 同一订单不允许并行换货
func TestCreateExchange_ActiveExists(t *testing.T) {
	svc, exchangeRepo, orderRepo, _, _, _, _ := newExchangeFixture()

	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	exchangeRepo.On("GetActiveByOrderID", 7).Return(&model.Exchange{ID: 3, Status: model.ExchangeStatusApproved}, nil)

	err := svc.CreateExchange(&model.Exchange{OrderID: 7})
	assert.Error(t, err)
	exchangeRepo.AssertNotCalled(t, "Create", mock.Anything)
}

// TestApproveExchange 审批通过后创建退回运单并通知客户
func TestApproveExchange(t *testing.T) {
	svc, exchangeRepo, orderRepo, shipmentRepo, gateway, store, notifier := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusPending}
	label := []byte("%PDF-1.4 label")

	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	shipmentRepo.On("GetActiveLeg", model.LegExchangeReturn, 5).Return(nil, nil)
	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	exchangeRepo.On("Update", exchange).Return(nil)
	gateway.On("CreateShipment", mock.Anything, mock.Anything).Return("RETAWB1", nil)
	shipmentRepo.On("Create", mock.AnythingOfType("*model.ShipmentLeg")).Return(nil)
	gateway.On("FetchLabel", mock.Anything, "RETAWB1").Return(label, nil)
	store.On("Save", "return_awb/RETAWB1.pdf", label, "application/pdf").Return("/uploads/return_awb/RETAWB1.pdf", nil)
	shipmentRepo.On("UpdateLabelPath", 0, "/uploads/return_awb/RETAWB1.pdf").Return(nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusExchangeApproved).Return(nil)
	notifier.On("SendReturnLabelEmail", "asha@example.com", "Asha", "RETAWB1", label).Return(true)

	got, err := svc.ApproveExchange(context.Background(), 5, "ok")
	assert.NoError(t, err)
	assert.Equal(t, model.ExchangeStatusApproved, got.Status)
	assert.Equal(t, "RETAWB1", got.ReturnAWB)
	assert.NotNil(t, got.ApprovedAt)
	notifier.AssertExpectations(t)
}

// TestApproveExchange_Idempotent 已有进行中的退回运单时重复审批不建新运单
func TestApproveExchange_Idempotent(t *testing.T) {
	svc, exchangeRepo, _, shipmentRepo, gateway, _, _ := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusApproved, ReturnAWB: "RETAWB1"}
	activeLeg := &model.ShipmentLeg{ID: 21, AWB: "RETAWB1", Kind: model.LegExchangeReturn, ParentID: 5, Status: string(model.StatusInTransit)}

	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	shipmentRepo.On("GetActiveLeg", model.LegExchangeReturn, 5).Return(activeLeg, nil)

	got, err := svc.ApproveExchange(context.Background(), 5, "again")
	assert.NoError(t, err)
	assert.Equal(t, "RETAWB1", got.ReturnAWB)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
	exchangeRepo.AssertNotCalled(t, "Update", mock.Anything)
}

// TestApproveExchange_Terminal 终态换货单忽略审批请求
func TestApproveExchange_Terminal(t *testing.T) {
	svc, exchangeRepo, _, _, gateway, _, _ := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusCompleted}
	exchangeRepo.On("GetByID", 5).Return(exchange, nil)

	got, err := svc.ApproveExchange(context.Background(), 5, "late")
	assert.NoError(t, err)
	assert.Equal(t, model.ExchangeStatusCompleted, got.Status)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
}

// TestApproveExchange_GatewayFailure 网关失败时换货单保持已审批，错误归类为快递网关故障
func TestApproveExchange_GatewayFailure(t *testing.T) {
	svc, exchangeRepo, orderRepo, shipmentRepo, gateway, _, notifier := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusPending}

	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	shipmentRepo.On("GetActiveLeg", model.LegExchangeReturn, 5).Return(nil, nil)
	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	exchangeRepo.On("Update", exchange).Return(nil)
	gateway.On("CreateShipment", mock.Anything, mock.Anything).Return("", assert.AnError)

	_, err := svc.ApproveExchange(context.Background(), 5, "ok")
	assert.Error(t, err)
	appErr, ok := err.(*errors.AppError)
	assert.True(t, ok)
	assert.Equal(t, errors.ErrCarrierGateway, appErr.Code)
	assert.Equal(t, model.ExchangeStatusApproved, exchange.Status)
	shipmentRepo.AssertNotCalled(t, "Create", mock.Anything)
	notifier.AssertNotCalled(t, "SendReturnLabelEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestQualityCheck_PassChainsReplacement 质检通过后同步补发新品
func TestQualityCheck_PassChainsReplacement(t *testing.T) {
	svc, exchangeRepo, orderRepo, shipmentRepo, gateway, store, _ := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusReturnReceived}
	label := []byte("%PDF-1.4 label")

	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	exchangeRepo.On("Update", exchange).Return(nil)
	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	gateway.On("CreateShipment", mock.Anything, mock.Anything).Return("NEWAWB1", nil)
	shipmentRepo.On("Create", mock.AnythingOfType("*model.ShipmentLeg")).Return(nil)
	gateway.On("FetchLabel", mock.Anything, "NEWAWB1").Return(label, nil)
	store.On("Save", "awb/NEWAWB1.pdf", label, "application/pdf").Return("/uploads/awb/NEWAWB1.pdf", nil)
	shipmentRepo.On("UpdateLabelPath", 0, "/uploads/awb/NEWAWB1.pdf").Return(nil)
	orderRepo.On("UpdateAWB", 7, "NEWAWB1").Return(nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusReadyToPickup).Return(nil)

	got, err := svc.QualityCheck(context.Background(), 5, true, "完好")
	assert.NoError(t, err)
	assert.Equal(t, model.ExchangeStatusNewDispatched, got.Status)
	assert.Equal(t, "NEWAWB1", got.NewAWB)
	assert.NotNil(t, got.QualityCheckedAt)
	orderRepo.AssertExpectations(t)
}

// TestQualityCheck_Fail 质检不通过，换货驳回
func TestQualityCheck_Fail(t *testing.T) {
	svc, exchangeRepo, orderRepo, _, gateway, _, _ := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusReturnReceived}

	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	exchangeRepo.On("Update", exchange).Return(nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusExchangeRejected).Return(nil)

	got, err := svc.QualityCheck(context.Background(), 5, false, "商品破损")
	assert.NoError(t, err)
	assert.Equal(t, model.ExchangeStatusQualityCheckFailed, got.Status)
	assert.NotNil(t, got.QualityApproved)
	assert.False(t, *got.QualityApproved)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
}

// TestProcessReplacement_Idempotent 已有补发运单时不再创建
func TestProcessReplacement_Idempotent(t *testing.T) {
	svc, exchangeRepo, _, _, gateway, _, _ := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusNewDispatched, NewAWB: "NEWAWB1"}
	exchangeRepo.On("GetByID", 5).Return(exchange, nil)

	got, err := svc.ProcessReplacement(context.Background(), 5)
	assert.NoError(t, err)
	assert.Equal(t, "NEWAWB1", got.NewAWB)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
}

// TestRefundExchange 换货转退款出口不创建任何运单
func TestRefundExchange(t *testing.T) {
	svc, exchangeRepo, orderRepo, _, gateway, _, _ := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusQualityCheckPassed}
	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	exchangeRepo.On("Update", exchange).Return(nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusRefunded).Return(nil)

	got, err := svc.RefundExchange(context.Background(), 5, "客户改要退款")
	assert.NoError(t, err)
	assert.Equal(t, model.ExchangeStatusRefunded, got.Status)
	assert.NotNil(t, got.CompletedAt)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
}

// TestRejectExchange 驳回后通知客户
func TestRejectExchange(t *testing.T) {
	svc, exchangeRepo, orderRepo, _, _, _, notifier := newExchangeFixture()

	exchange := &model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusPending}
	exchangeRepo.On("GetByID", 5).Return(exchange, nil)
	exchangeRepo.On("Update", exchange).Return(nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusExchangeRejected).Return(nil)
	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	notifier.On("SendRejectionEmail", "asha@example.com", "Asha", "换货", "超出换货期限").Return(true)

	got, err := svc.RejectExchange(context.Background(), 5, "超出换货期限")
	assert.NoError(t, err)
	assert.Equal(t, model.ExchangeStatusRejected, got.Status)
	notifier.AssertExpectations(t)
}
