package service

import (
	"context"
	"testing"

	"github.com/logeshtheni/sevenxt/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newOrderFixture() (*OrderService, *MockOrderRepository, *MockShipmentRepository, *MockExchangeRepository, *MockRefundRepository, *MockCarrierGateway, *MockStorage) {
	orderRepo := new(MockOrderRepository)
	shipmentRepo := new(MockShipmentRepository)
	exchangeRepo := new(MockExchangeRepository)
	refundRepo := new(MockRefundRepository)
	gateway := new(MockCarrierGateway)
	store := new(MockStorage)

	shipments := NewShipmentService(shipmentRepo, gateway, store)
	svc := NewOrderService(orderRepo, shipmentRepo, exchangeRepo, refundRepo, shipments)
	return svc, orderRepo, shipmentRepo, exchangeRepo, refundRepo, gateway, store
}

// TestUpdateOrderStatus_Dispatch 状态改为待取件时触发发货并回写运单号
func TestUpdateOrderStatus_Dispatch(t *testing.T) {
	svc, orderRepo, shipmentRepo, _, _, gateway, store := newOrderFixture()

	order := testOrder()
	label := []byte("%PDF-1.4 label")

	orderRepo.On("GetByID", 7).Return(order, nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusReadyToPickup).Return(nil)
	gateway.On("CreateShipment", mock.Anything, mock.Anything).Return("FWDAWB1", nil)
	shipmentRepo.On("Create", mock.AnythingOfType("*model.ShipmentLeg")).Return(nil)
	gateway.On("FetchLabel", mock.Anything, "FWDAWB1").Return(label, nil)
	store.On("Save", "awb/FWDAWB1.pdf", label, "application/pdf").Return("/uploads/awb/FWDAWB1.pdf", nil)
	shipmentRepo.On("UpdateLabelPath", 0, "/uploads/awb/FWDAWB1.pdf").Return(nil)
	orderRepo.On("UpdateAWB", 7, "FWDAWB1").Return(nil)

	err := svc.UpdateOrderStatus(context.Background(), 7, model.OrderStatusReadyToPickup)
	assert.NoError(t, err)
	assert.Equal(t, "FWDAWB1", order.AWBNumber)
	gateway.AssertExpectations(t)
	orderRepo.AssertExpectations(t)
}

// TestUpdateOrderStatus_DispatchSkipsExistingAWB 已有运单号的订单不再发货
func TestUpdateOrderStatus_DispatchSkipsExistingAWB(t *testing.T) {
	svc, orderRepo, _, _, _, gateway, _ := newOrderFixture()

	order := testOrder()
	order.AWBNumber = "FWDAWB1"

	orderRepo.On("GetByID", 7).Return(order, nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusReadyToPickup).Return(nil)

	err := svc.UpdateOrderStatus(context.Background(), 7, model.OrderStatusReadyToPickup)
	assert.NoError(t, err)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
	orderRepo.AssertNotCalled(t, "UpdateAWB", mock.Anything, mock.Anything)
}

// TestUpdateOrderStatus_NoDispatchOnOtherStatus 其他状态变更不触发发货
func TestUpdateOrderStatus_NoDispatchOnOtherStatus(t *testing.T) {
	svc, orderRepo, _, _, _, gateway, _ := newOrderFixture()

	orderRepo.On("GetByID", 7).Return(testOrder(), nil)
	orderRepo.On("UpdateStatus", 7, model.OrderStatusInTransit).Return(nil)

	err := svc.UpdateOrderStatus(context.Background(), 7, model.OrderStatusInTransit)
	assert.NoError(t, err)
	gateway.AssertNotCalled(t, "CreateShipment", mock.Anything, mock.Anything)
}

// TestGetDeliveries_Overlay 进行中的换货退回运单覆盖正向运单行
func TestGetDeliveries_Overlay(t *testing.T) {
	svc, orderRepo, shipmentRepo, exchangeRepo, _, _, _ := newOrderFixture()

	order := testOrder()
	forward := &model.ShipmentLeg{ID: 11, AWB: "FWDAWB1", Kind: model.LegOrderForward, ParentID: 7, Status: string(model.StatusDelivered)}
	returnLeg := &model.ShipmentLeg{ID: 21, AWB: "RETAWB1", Kind: model.LegExchangeReturn, ParentID: 5, Status: string(model.StatusInTransit)}

	shipmentRepo.On("ListByKind", model.LegOrderForward).Return([]*model.ShipmentLeg{forward}, nil)
	orderRepo.On("GetByID", 7).Return(order, nil)
	shipmentRepo.On("ListByKind", model.LegRefundReturn).Return([]*model.ShipmentLeg{}, nil)
	shipmentRepo.On("ListByKind", model.LegExchangeReturn).Return([]*model.ShipmentLeg{returnLeg}, nil)
	exchangeRepo.On("GetByID", 5).Return(&model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusApproved}, nil)
	shipmentRepo.On("ListByKind", model.LegExchangeForward).Return([]*model.ShipmentLeg{}, nil)

	rows, err := svc.GetDeliveries()
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 21, rows[0].ID)
	assert.Equal(t, string(model.LegExchangeReturn), rows[0].Kind)
	assert.Equal(t, 5, rows[0].UnderlyingID)
	assert.Equal(t, "RETAWB1", rows[0].AWBNumber)
	assert.Equal(t, string(model.StatusInTransit), rows[0].DeliveryStatus)
	assert.Equal(t, order.OrderNumber, rows[0].OrderNumber)
}

// TestGetDeliveries_ForwardOverlayWins 补发运单覆盖优先于退回运单
func TestGetDeliveries_ForwardOverlayWins(t *testing.T) {
	svc, orderRepo, shipmentRepo, exchangeRepo, _, _, _ := newOrderFixture()

	order := testOrder()
	forward := &model.ShipmentLeg{ID: 11, AWB: "FWDAWB1", Kind: model.LegOrderForward, ParentID: 7, Status: string(model.StatusDelivered)}
	returnLeg := &model.ShipmentLeg{ID: 21, AWB: "RETAWB1", Kind: model.LegExchangeReturn, ParentID: 5, Status: string(model.StatusInTransit)}
	newLeg := &model.ShipmentLeg{ID: 31, AWB: "NEWAWB1", Kind: model.LegExchangeForward, ParentID: 5, Status: string(model.StatusAWBGenerated)}

	shipmentRepo.On("ListByKind", model.LegOrderForward).Return([]*model.ShipmentLeg{forward}, nil)
	orderRepo.On("GetByID", 7).Return(order, nil)
	shipmentRepo.On("ListByKind", model.LegRefundReturn).Return([]*model.ShipmentLeg{}, nil)
	shipmentRepo.On("ListByKind", model.LegExchangeReturn).Return([]*model.ShipmentLeg{returnLeg}, nil)
	shipmentRepo.On("ListByKind", model.LegExchangeForward).Return([]*model.ShipmentLeg{newLeg}, nil)
	exchangeRepo.On("GetByID", 5).Return(&model.Exchange{ID: 5, OrderID: 7, Status: model.ExchangeStatusNewDispatched}, nil)

	rows, err := svc.GetDeliveries()
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 31, rows[0].ID)
	assert.Equal(t, string(model.LegExchangeForward), rows[0].Kind)
	assert.Equal(t, "NEWAWB1", rows[0].AWBNumber)
}

// TestGetDeliveries_InactiveReturnIgnored 已完结的退回运单不覆盖
func TestGetDeliveries_InactiveReturnIgnored(t *testing.T) {
	svc, orderRepo, shipmentRepo, _, _, _, _ := newOrderFixture()

	order := testOrder()
	forward := &model.ShipmentLeg{ID: 11, AWB: "FWDAWB1", Kind: model.LegOrderForward, ParentID: 7, Status: string(model.StatusDelivered)}
	doneReturn := &model.ShipmentLeg{ID: 21, AWB: "RETAWB1", Kind: model.LegExchangeReturn, ParentID: 5, Status: string(model.StatusDelivered)}

	shipmentRepo.On("ListByKind", model.LegOrderForward).Return([]*model.ShipmentLeg{forward}, nil)
	orderRepo.On("GetByID", 7).Return(order, nil)
	shipmentRepo.On("ListByKind", model.LegRefundReturn).Return([]*model.ShipmentLeg{}, nil)
	shipmentRepo.On("ListByKind", model.LegExchangeReturn).Return([]*model.ShipmentLeg{doneReturn}, nil)
	shipmentRepo.On("ListByKind", model.LegExchangeForward).Return([]*model.ShipmentLeg{}, nil)

	rows, err := svc.GetDeliveries()
	assert.NoError(t, err)
	assert.Len(t, rows, 1)
	assert.Equal(t, 11, rows[0].ID)
	assert.Equal(t, "FWDAWB1", rows[0].AWBNumber)
	assert.Equal(t, string(model.LegOrderForward), rows[0].Kind)
}
