package model

import "time"

// 换货单状态常量
const (
	ExchangeStatusPending            = "Pending"
	ExchangeStatusApproved           = "Approved"
	ExchangeStatusReturnInTransit    = "Return In Transit"
	ExchangeStatusReturnReceived     = "Return Received"
	ExchangeStatusQualityCheckPassed = "Quality Check Passed"
	ExchangeStatusQualityCheckFailed = "Quality Check Failed"
	ExchangeStatusNewDispatched      = "New Product Dispatched"
	ExchangeStatusCompleted          = "Completed"
	ExchangeStatusRefunded           = "Refunded"
	ExchangeStatusRejected           = "Rejected"
)

// Exchange 换货单模型
type Exchange struct {
	ID             int    `json:"id"`
	OrderID        int    `json:"order_id"`
	Reason         string `json:"reason"`
	Description    string `json:"description,omitempty"`
	ProofImagePath string `json:"proof_image_path,omitempty"`

	// 商品快照，审批和补发时不再回查订单商品
	ProductID      string  `json:"product_id"`
	ProductName    string  `json:"product_name"`
	ProductVariant string  `json:"product_variant,omitempty"`
	Quantity       int     `json:"quantity"`
	Price          float64 `json:"price"`

	Status          string `json:"status"`
	AdminNotes      string `json:"admin_notes,omitempty"`
	QualityNotes    string `json:"quality_notes,omitempty"`
	QualityApproved *bool  `json:"quality_approved,omitempty"`

	ReturnAWB string `json:"return_awb,omitempty"`
	NewAWB    string `json:"new_awb,omitempty"`

	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	QualityCheckedAt *time.Time `json:"quality_checked_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Order *Order `json:"order,omitempty"`
}

// IsTerminal 判断换货单是否处于终态
func (e *Exchange) IsTerminal() bool {
	switch e.Status {
	case ExchangeStatusCompleted, ExchangeStatusRefunded, ExchangeStatusRejected:
		return true
	}
	return false
}
