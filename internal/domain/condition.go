package domain

import "github.com/shopspring/decimal"

// Condition is a node of a rule's eligibility tree. The set of node types is
// closed: only the types in this file implement it.
type Condition interface {
	condition()
}

// All holds when every child holds.
type All struct {
	Conditions []Condition
}

// Any holds when at least one child holds.
type Any struct {
	Conditions []Condition
}

// Not negates its child.
type Not struct {
	Condition Condition
}

// MinSubtotal holds when the pre-discount subtotal reaches Amount.
type MinSubtotal struct {
	Amount decimal.Decimal
}

// HasItem holds when ProductID is in the cart with at least MinQuantity units
// (one when unset).
type HasItem struct {
	ProductID   string
	MinQuantity int
}

// MinQuantity holds when the cart carries at least Quantity units overall.
type MinQuantity struct {
	Quantity int
}

// CustomerTier holds when the cart's tier is one of Tiers.
type CustomerTier struct {
	Tiers []string
}

// PaymentMethod holds when the cart is paid with one of Methods.
type PaymentMethod struct {
	Methods []string
}

// Expression languages understood by the default engine.
const (
	LanguageJSONLogic = "jsonlogic"
	LanguageExpr      = "expr"
)

// Expression is a predicate written in an embedded rule language and
// evaluated against the cart facts. Source is a JsonLogic document or an
// expr-lang string depending on Language.
type Expression struct {
	Language string
	Source   any
}

func (All) condition()           {}
func (Any) condition()           {}
func (Not) condition()           {}
func (MinSubtotal) condition()   {}
func (HasItem) condition()       {}
func (MinQuantity) condition()   {}
func (CustomerTier) condition()  {}
func (PaymentMethod) condition() {}
func (Expression) condition()    {}
