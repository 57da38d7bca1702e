package model

import "time"

// 退款单状态常量
const (
	RefundStatusPending         = "Pending"
	RefundStatusApproved        = "Approved"
	RefundStatusReturnInTransit = "Return In Transit"
	RefundStatusReturnReceived  = "Return Received"
	RefundStatusCompleted       = "Completed"
	RefundStatusRejected        = "Rejected"
)

// Refund 退款单模型
// 退款没有质检环节，收到退货后由管理员人工确认完成
type Refund struct {
	ID             int     `json:"id"`
	OrderID        int     `json:"order_id"`
	Reason         string  `json:"reason"`
	Description    string  `json:"description,omitempty"`
	ProofImagePath string  `json:"proof_image_path,omitempty"`
	Amount         float64 `json:"amount"`

	Status          string `json:"status"`
	AdminNotes      string `json:"admin_notes,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`

	ReturnAWB string `json:"return_awb,omitempty"`

	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Order *Order `json:"order,omitempty"`
}

// IsTerminal 判断退款单是否处于终态
func (r *Refund) IsTerminal() bool {
	return r.Status == RefundStatusCompleted || r.Status == RefundStatusRejected
}
