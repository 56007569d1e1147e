package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "Cash"
	PaymentMobileMoney PaymentMethod = "MobileMoney"
	PaymentCard        PaymentMethod = "Card"
)

// PaymentMethods lists every method in display order.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentMobileMoney, PaymentCard}

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCash, PaymentMobileMoney, PaymentCard:
		return true
	}

	return false
}

// ParsePaymentMethod accepts the canonical names plus the till's "M-Pesa" label.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return PaymentCash, true
	case "mobilemoney", "mobile_money", "m-pesa", "mpesa":
		return PaymentMobileMoney, true
	case "card":
		return PaymentCard, true
	}

	return "", false
}

// CustomerType segments buyers for reporting.
type CustomerType string

const (
	CustomerWalkIn  CustomerType = "WalkIn"
	CustomerRegular CustomerType = "Regular"
	CustomerVIP     CustomerType = "VIP"
)

var CustomerTypes = []CustomerType{CustomerWalkIn, CustomerRegular, CustomerVIP}

func (c CustomerType) Valid() bool {
	switch c {
	case CustomerWalkIn, CustomerRegular, CustomerVIP:
		return true
	}

	return false
}

func ParseCustomerType(s string) (CustomerType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "walkin", "walk-in", "walk_in":
		return CustomerWalkIn, true
	case "regular":
		return CustomerRegular, true
	case "vip":
		return CustomerVIP, true
	}

	return "", false
}

// Sale is an immutable ledger entry. Name and price are snapshots taken at
// commit time and never follow later catalog edits.
type Sale struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Size            string          `json:"size"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	CustomerType    CustomerType    `json:"customer_type"`
	Timestamp       time.Time       `json:"timestamp"`
}

var hundred = decimal.NewFromInt(100)

// LineTotal is unitPrice * quantity * (1 - discount/100) rounded to cents.
func LineTotal(unitPrice decimal.Decimal, quantity int, discountPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(hundred))

	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Mul(factor).Round(2)
}

// NotBefore keeps a commit timestamp from running behind the last committed
// sale, so ledger order and timestamp order agree.
func NotBefore(ts, last time.Time) time.Time {
	if ts.Before(last) {
		return last
	}

	return ts
}
