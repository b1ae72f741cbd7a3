package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// --- Input snapshot ---

// LineItem is a single cart line.
type LineItem struct {
	ProductID string          `json:"productId" yaml:"productId"`
	UnitPrice decimal.Decimal `json:"unitPrice" yaml:"unitPrice"`
	Quantity  int             `json:"quantity" yaml:"quantity"`
}

// Total is UnitPrice * Quantity.
func (i LineItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the immutable snapshot promotions are evaluated against.
type Cart struct {
	ID            string     `json:"id" yaml:"id"`
	Currency      string     `json:"currency" yaml:"currency"`
	CustomerTier  string     `json:"customerTier,omitempty" yaml:"customerTier,omitempty"`
	PaymentMethod string     `json:"paymentMethod,omitempty" yaml:"paymentMethod,omitempty"`
	Items         []LineItem `json:"items" yaml:"items"`
}

// Subtotal sums every line before any discount.
func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Total())
	}
	return total
}

// TotalQuantity sums the quantities of every line.
func (c Cart) TotalQuantity() int {
	var q int
	for _, item := range c.Items {
		q += item.Quantity
	}
	return q
}

// Item returns the line for productID.
func (c Cart) Item(productID string) (LineItem, bool) {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return LineItem{}, false
}

// Validate rejects structurally malformed carts. It is the only check that
// aborts a whole evaluation.
func (c Cart) Validate() error {
	if strings.TrimSpace(c.Currency) == "" {
		return &InvalidCartError{Field: "currency", Reason: "currency is required"}
	}
	if _, err := CurrencyScale(c.Currency); err != nil {
		return &InvalidCartError{Field: "currency", Reason: err.Error()}
	}
	seen := make(map[string]struct{}, len(c.Items))
	for idx, item := range c.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return &InvalidCartError{Field: fieldIndex("items", idx, "productId"), Reason: "product id is required"}
		}
		if _, dup := seen[item.ProductID]; dup {
			return &InvalidCartError{Field: fieldIndex("items", idx, "productId"), Reason: "duplicate product id " + item.ProductID}
		}
		seen[item.ProductID] = struct{}{}
		if item.Quantity <= 0 {
			return &InvalidCartError{Field: fieldIndex("items", idx, "quantity"), Reason: "quantity must be positive"}
		}
		if item.UnitPrice.IsNegative() {
			return &InvalidCartError{Field: fieldIndex("items", idx, "unitPrice"), Reason: "unit price cannot be negative"}
		}
	}
	return nil
}

// CurrencyScale returns the number of minor-unit digits for an ISO 4217 code.
func CurrencyScale(code string) (int32, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return 0, err
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// --- Rule model ---

// Combinability decides how a rule combines with the other eligible rules.
type Combinability string

const (
	Exclusive Combinability = "exclusive"
	Stackable Combinability = "stackable"
)

// DiscountKind is the shape of a discount.
type DiscountKind string

const (
	Percentage  DiscountKind = "percentage"
	FixedAmount DiscountKind = "fixed_amount"
	FreeItem    DiscountKind = "free_item"
)

// Effect describes what an eligible rule takes off the cart. An empty Target
// means the whole cart; otherwise it names a product id.
type Effect struct {
	Kind      DiscountKind
	Target    string
	Magnitude decimal.Decimal
	// Currency optionally pins a fixed amount to a currency.
	Currency string
}

// PromotionRule is an immutable promotion definition.
type PromotionRule struct {
	ID          string
	Description string
	Condition   Condition
	Effect      Effect
	Priority    int
	// Combinability defaults to Exclusive when empty.
	Combinability Combinability
	ValidFrom     time.Time
	ValidUntil    time.Time
	// Mandatory rules abort the evaluation instead of degrading to a diagnostic.
	Mandatory bool
	// Malformed carries a decoding failure so it can be reported per evaluation.
	Malformed error
}

// ActiveAt reports whether asOf falls inside [ValidFrom, ValidUntil]. Zero
// bounds are open.
func (r PromotionRule) ActiveAt(asOf time.Time) bool {
	if !r.ValidFrom.IsZero() && asOf.Before(r.ValidFrom) {
		return false
	}
	if !r.ValidUntil.IsZero() && asOf.After(r.ValidUntil) {
		return false
	}
	return true
}

// Discount is the effect of one rule resolved against a cart.
type Discount struct {
	Kind      DiscountKind    `json:"kind"`
	Target    string          `json:"target,omitempty"`
	Magnitude decimal.Decimal `json:"magnitude"`
}

// AppliedDiscount is a discount that made it into the final result.
type AppliedDiscount struct {
	RuleID        string          `json:"ruleId"`
	Combinability Combinability   `json:"combinability"`
	Discount      Discount        `json:"discount"`
	Amount        decimal.Decimal `json:"amount"`
}
