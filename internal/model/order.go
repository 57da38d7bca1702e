package model

import "time"

// Order 订单模型
type Order struct {
	ID           int       `json:"id"`
	OrderNumber  string    `json:"order_number"`
	CustomerName string    `json:"customer_name"`
	CustomerType string    `json:"customer_type,omitempty"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Products     string    `json:"products"` // JSON 商品快照
	Amount       float64   `json:"amount"`
	PaymentMode  string    `json:"payment_mode"`
	Status       string    `json:"status"`
	AWBNumber    string    `json:"awb_number,omitempty"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	Pincode      string    `json:"pincode"`
	HeightCM     float64   `json:"height_cm,omitempty"`
	BreadthCM    float64   `json:"breadth_cm,omitempty"`
	LengthCM     float64   `json:"length_cm,omitempty"`
	WeightKG     float64   `json:"weight_kg,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// 订单状态常量
const (
	OrderStatusReadyToPickup     = "Ready to Pickup"
	OrderStatusInTransit         = "In Transit"
	OrderStatusDelivered         = "Delivered"
	OrderStatusExchangeRequested = "Exchange Requested"
	OrderStatusExchangeApproved  = "Exchange Approved"
	OrderStatusExchangeRejected  = "Exchange Rejected"
	OrderStatusReturnInTransit   = "Return In Transit"
	OrderStatusReturnReceived    = "Return Received"
	OrderStatusRefundApproved    = "Refund Approved"
	OrderStatusRefundRejected    = "Refund Rejected"
	OrderStatusRefunded          = "Refunded"
)

// DeliveryRow 派送列表读模型的一行
// 正向运单一行，若订单存在进行中的换货/退款运单则由其覆盖
type DeliveryRow struct {
	ID             int        `json:"id"`
	Kind           string     `json:"kind"` // 运单类型，见 LegKind
	UnderlyingID   int        `json:"underlying_id"`
	OrderID        int        `json:"order_id"`
	OrderNumber    string     `json:"order_number"`
	CustomerName   string     `json:"customer_name"`
	Phone          string     `json:"phone"`
	FullAddress    string     `json:"full_address"`
	City           string     `json:"city"`
	State          string     `json:"state"`
	Pincode        string     `json:"pincode"`
	AWBNumber      string     `json:"awb_number"`
	CourierPartner string     `json:"courier_partner"`
	PaymentMode    string     `json:"payment_mode"`
	Amount         float64    `json:"amount"`
	DeliveryStatus string     `json:"delivery_status"`
	SchedulePickup *time.Time `json:"schedule_pickup,omitempty"`
	LabelPath      string     `json:"awb_label_path,omitempty"`
}
