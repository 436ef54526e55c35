package models

import "time"

// ExportStatus is the lifecycle state of an export request.
type ExportStatus string

const (
	ExportStatusPending  ExportStatus = "PENDING"
	ExportStatusAccepted ExportStatus = "ACCEPTED"
	ExportStatusRejected ExportStatus = "REJECTED"
	// ExportStatusCompleted is reserved; no transition produces it.
	ExportStatusCompleted ExportStatus = "COMPLETED"
)

// Valid reports whether s is one of the known statuses.
func (s ExportStatus) Valid() bool {
	switch s {
	case ExportStatusPending, ExportStatusAccepted, ExportStatusRejected, ExportStatusCompleted:
		return true
	}
	return false
}

// ExportRequest is a proposal to move a quantity of one product from one shop to another.
type ExportRequest struct {
	ID         string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ProductID  string       `json:"productId" gorm:"type:varchar(36);not null;index"`
	FromShopID string       `json:"fromShopId" gorm:"type:varchar(36);not null;index"`
	ToShopID   string       `json:"toShopId" gorm:"type:varchar(36);not null;index"`
	Quantity   int          `json:"quantity" gorm:"not null"`
	Message    string       `json:"message,omitempty" gorm:"type:text"`
	Status     ExportStatus `json:"status" gorm:"type:varchar(20);not null;default:PENDING;index"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`

	Product  *Product     `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	FromShop *ShopSummary `json:"fromShop,omitempty" gorm:"foreignKey:FromShopID"`
	ToShop   *ShopSummary `json:"toShop,omitempty" gorm:"foreignKey:ToShopID"`
}

// ExportRequestFilter narrows export request listings. Zero values mean "no constraint".
type ExportRequestFilter struct {
	ProductID  string
	FromShopID string
	ToShopID   string
	// ParticipantID matches requests where the shop is either sender or receiver.
	ParticipantID string
	Status        ExportStatus
}

// ExportEvent is the notification published when an export request changes.
type ExportEvent struct {
	Type       string       `json:"type"` // e.g. "export_request.accepted"
	RequestID  string       `json:"requestId"`
	ProductID  string       `json:"productId"`
	FromShopID string       `json:"fromShopId"`
	ToShopID   string       `json:"toShopId"`
	Quantity   int          `json:"quantity"`
	Status     ExportStatus `json:"status"`
	OccurredAt time.Time    `json:"occurredAt"`
}

// NewExportEvent builds an event of the given type from the request's current state.
func NewExportEvent(eventType string, req *ExportRequest) ExportEvent {
	return ExportEvent{
		Type:       eventType,
		RequestID:  req.ID,
		ProductID:  req.ProductID,
		FromShopID: req.FromShopID,
		ToShopID:   req.ToShopID,
		Quantity:   req.Quantity,
		Status:     req.Status,
		OccurredAt: time.Now().UTC(),
	}
}
