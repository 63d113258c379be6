package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const orderIDPrefix = "PAY2ME"

type Order struct {
	ID                uint            `gorm:"primaryKey"                           json:"id"`
	OrderID           string          `gorm:"size:32;uniqueIndex;not null"         json:"order_id"`
	UserID            uuid.UUID       `gorm:"type:uuid;index;not null"             json:"user_id"`
	Status            OrderStatus     `gorm:"not null;default:1;index"             json:"status"`
	PaymentStatus     PaymentStatus   `gorm:"not null"                             json:"payment_status"`
	PaymentMethod     PaymentMethod   `gorm:"size:32;not null"                     json:"payment_method"`
	BillingAddress    string          `gorm:"size:512;not null"                    json:"billing_address"`
	ShippingAddress   string          `gorm:"size:512;not null"                    json:"shipping_address"`
	Total             decimal.Decimal `gorm:"type:decimal(10,2);not null"          json:"total"`
	CouponID          *uint           `gorm:"index"                                json:"coupon_id,omitempty"`
	Discount          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	ShippingMethod    ShippingMethod  `gorm:"not null;default:1"                   json:"shipping_method"`
	PaidAt            time.Time       `gorm:"not null"                             json:"datetime_of_payment"`
	EstimatedDelivery *time.Time      `json:"estimated_delivery,omitempty"`
	TransactionID     *string         `gorm:"size:128;uniqueIndex"                 json:"transaction_id,omitempty"`
	Lines             []OrderLine     `gorm:"constraint:OnDelete:CASCADE"          json:"lines,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (o *Order) IsCashOnDelivery() bool {
	return o.PaymentMethod == PaymentMethodCashOnDelivery
}

// BeforeCreate assigns the public order id once; existing ids are never replaced.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.PaidAt.IsZero() {
		o.PaidAt = tx.NowFunc()
	}
	if o.OrderID == "" {
		o.OrderID = NewOrderID(o.PaidAt)
	}
	return nil
}

// NewOrderID renders PAY2ME<YYYYMMDD>ODR<6 hex> from the payment timestamp.
func NewOrderID(paidAt time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s%sODR%s", orderIDPrefix, paidAt.Format("20060102"), suffix)
}

type OrderLine struct {
	ID          uint            `gorm:"primaryKey"                               json:"id"`
	OrderID     uint            `gorm:"not null;uniqueIndex:idx_order_line_product" json:"order_id"`
	ProductID   uint            `gorm:"not null;uniqueIndex:idx_order_line_product" json:"product_id"`
	ProductName string          `gorm:"size:255;not null"                        json:"product_name"`
	Quantity    int             `gorm:"not null;check:quantity > 0"              json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"              json:"unit_price"`
}

func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// WebhookEvent records gateway notifications already applied to an order.
type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:128" json:"event_id"`
	EventType   string    `gorm:"size:64;index"       json:"event_type"`
	OrderID     uint      `gorm:"index"               json:"order_id"`
	ProcessedAt time.Time `gorm:"not null"            json:"processed_at"`
}
