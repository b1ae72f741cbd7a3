// Package settlement plans how a list of orders is paid with a customer's
// payment methods so that the total price is as low as possible, honouring
// card promotions and loyalty points.
package settlement

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownMethod        = errors.New("settlement: unknown payment method")
	ErrInsufficientBalance  = errors.New("settlement: insufficient balance")
	ErrPointsMethodMissing  = errors.New("settlement: points method is not configured")
	ErrInvalidPaymentMethod = errors.New("settlement: invalid payment method")
)

// PaymentMethod is a card or the points account. Discount is a fraction
// (0.1 means 10 % off) and Limit the amount available for spending.
type PaymentMethod struct {
	ID       string          `json:"id"`
	Discount decimal.Decimal `json:"discount"`
	Limit    decimal.Decimal `json:"limit"`
}

// Wallet tracks the remaining balance of every payment method.
type Wallet struct {
	methods  []PaymentMethod
	byID     map[string]PaymentMethod
	balances map[string]decimal.Decimal
	pointsID string
}

func NewWallet(methods []PaymentMethod, pointsID string) (*Wallet, error) {
	w := &Wallet{
		methods:  make([]PaymentMethod, 0, len(methods)),
		byID:     make(map[string]PaymentMethod, len(methods)),
		balances: make(map[string]decimal.Decimal, len(methods)),
		pointsID: pointsID,
	}
	for _, m := range methods {
		switch {
		case strings.TrimSpace(m.ID) == "":
			return nil, fmt.Errorf("%w: empty id", ErrInvalidPaymentMethod)
		case m.Discount.IsNegative() || m.Discount.GreaterThan(decimal.NewFromInt(1)):
			return nil, fmt.Errorf("%w: %s discount %s is outside [0, 1]", ErrInvalidPaymentMethod, m.ID, m.Discount)
		case m.Limit.IsNegative():
			return nil, fmt.Errorf("%w: %s has a negative limit", ErrInvalidPaymentMethod, m.ID)
		}
		if _, dup := w.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidPaymentMethod, m.ID)
		}
		w.methods = append(w.methods, m)
		w.byID[m.ID] = m
		w.balances[m.ID] = m.Limit
	}
	if _, ok := w.byID[pointsID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPointsMethodMissing, pointsID)
	}
	return w, nil
}

// Points returns the points account.
func (w *Wallet) Points() PaymentMethod {
	return w.byID[w.pointsID]
}

func (w *Wallet) Method(id string) (PaymentMethod, bool) {
	m, ok := w.byID[id]
	return m, ok
}

func (w *Wallet) Balance(id string) decimal.Decimal {
	return w.balances[id]
}

// Take debits amount from the method's balance.
func (w *Wallet) Take(id string, amount decimal.Decimal) error {
	balance, ok := w.balances[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMethod, id)
	}
	if balance.LessThan(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ErrInsufficientBalance, id, balance, amount)
	}
	w.balances[id] = balance.Sub(amount)
	return nil
}

// cardCovering returns the first card, in configuration order, whose balance
// covers amount.
func (w *Wallet) cardCovering(amount decimal.Decimal) (PaymentMethod, bool) {
	for _, m := range w.methods {
		if m.ID != w.pointsID && w.balances[m.ID].GreaterThanOrEqual(amount) {
			return m, true
		}
	}
	return PaymentMethod{}, false
}

// bestPromotedCard returns the promoted card with the highest discount whose
// balance covers amount. The earliest promotion wins a tie.
func (w *Wallet) bestPromotedCard(promotions []string, amount decimal.Decimal) (PaymentMethod, bool) {
	var best PaymentMethod
	found := false
	for _, id := range promotions {
		m, ok := w.byID[id]
		if !ok || id == w.pointsID || w.balances[id].LessThan(amount) {
			continue
		}
		if !found || m.Discount.GreaterThan(best.Discount) {
			best, found = m, true
		}
	}
	return best, found
}

// MethodSpend is how much was spent with one payment method.
type MethodSpend struct {
	MethodID string          `json:"methodId"`
	Amount   decimal.Decimal `json:"amount"`
}

// SpendingReport lists the spending of every method, sorted by method id.
type SpendingReport []MethodSpend

// Report computes limit minus balance for every method.
func (w *Wallet) Report() SpendingReport {
	report := make(SpendingReport, 0, len(w.methods))
	for _, m := range w.methods {
		report = append(report, MethodSpend{MethodID: m.ID, Amount: m.Limit.Sub(w.balances[m.ID])})
	}
	sort.Slice(report, func(i, j int) bool { return report[i].MethodID < report[j].MethodID })
	return report
}

// String renders one "ID: amount" line per method.
func (r SpendingReport) String() string {
	lines := make([]string, len(r))
	for i, s := range r {
		lines[i] = fmt.Sprintf("%s: %s", s.MethodID, s.Amount.StringFixed(2))
	}
	return strings.Join(lines, "\n")
}
