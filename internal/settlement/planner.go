package settlement

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrNoFeasibleOffer = errors.New("settlement: no feasible payment offer")

// Strategy names a way of paying an order.
type Strategy string

const (
	FullPoints    Strategy = "FULL_POINTS"
	PartialPoints Strategy = "PARTIAL_POINTS"
	FullCard      Strategy = "FULL_CARD"
)

var (
	// PartialPointsThreshold is the share of the order value the points
	// balance must cover before a partial points payment is offered.
	PartialPointsThreshold = decimal.RequireFromString("0.1")
	// PartialPointsDiscount is both the discount granted and the share of the
	// order value paid with points in a partial points payment.
	PartialPointsDiscount = decimal.RequireFromString("0.1")
)

type Order struct {
	ID    string          `json:"id"`
	Value decimal.Decimal `json:"value"`
	// Promotions lists the payment method ids that give a discount on this order.
	Promotions []string `json:"promotions,omitempty"`
}

type Payment struct {
	MethodID string          `json:"methodId"`
	Amount   decimal.Decimal `json:"amount"`
}

// Offer is one way to pay an order. Price is what the customer pays after
// discounts; Payments splits it between methods.
type Offer struct {
	Strategy Strategy        `json:"strategy"`
	Price    decimal.Decimal `json:"price"`
	Payments []Payment       `json:"payments"`
}

func (o Offer) paidWith(methodID string) (decimal.Decimal, bool) {
	for _, p := range o.Payments {
		if p.MethodID == methodID {
			return p.Amount, true
		}
	}
	return decimal.Zero, false
}

type strategyFunc func(w *Wallet, o Order) (Offer, bool)

// Planner picks the cheapest offer for each order and debits the wallet.
type Planner struct {
	wallet     *Wallet
	strategies []strategyFunc
	logger     *zap.Logger
}

func NewPlanner(wallet *Wallet, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		wallet:     wallet,
		strategies: []strategyFunc{fullPoints, partialPoints, fullCard},
		logger:     logger,
	}
}

// Settlement records the offer chosen for one order.
type Settlement struct {
	OrderID string `json:"orderId"`
	Offer   Offer  `json:"offer"`
}

type Plan struct {
	Settlements []Settlement   `json:"settlements"`
	Report      SpendingReport `json:"report"`
}

// Settle processes orders from the smallest value to the largest, ties by
// id. The first order that cannot be paid aborts the run; balances debited
// for earlier orders stay debited.
func (p *Planner) Settle(ctx context.Context, orders []Order) (*Plan, error) {
	sorted := make([]Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool {
		if cmp := sorted[i].Value.Cmp(sorted[j].Value); cmp != 0 {
			return cmp < 0
		}
		return sorted[i].ID < sorted[j].ID
	})

	plan := &Plan{Settlements: make([]Settlement, 0, len(sorted))}
	for _, order := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if order.Value.IsNegative() {
			return nil, fmt.Errorf("settlement: order %s has a negative value", order.ID)
		}
		offer, ok := p.Best(order)
		if !ok {
			return nil, fmt.Errorf("%w: order %s (%s)", ErrNoFeasibleOffer, order.ID, order.Value)
		}
		for _, payment := range offer.Payments {
			if err := p.wallet.Take(payment.MethodID, payment.Amount); err != nil {
				return nil, fmt.Errorf("order %s: %w", order.ID, err)
			}
		}
		p.logger.Debug("order settled",
			zap.String("orderId", order.ID),
			zap.String("strategy", string(offer.Strategy)),
			zap.String("price", offer.Price.String()),
		)
		plan.Settlements = append(plan.Settlements, Settlement{OrderID: order.ID, Offer: offer})
	}
	plan.Report = p.wallet.Report()
	return plan, nil
}

// Best returns the cheapest offer the current balances allow.
func (p *Planner) Best(order Order) (Offer, bool) {
	var best Offer
	found := false
	pointsID := p.wallet.Points().ID
	for _, strategy := range p.strategies {
		offer, ok := strategy(p.wallet, order)
		if !ok {
			continue
		}
		if !found || better(offer, best, pointsID) {
			best, found = offer, true
		}
	}
	return best, found
}

// better reports whether a beats b: a lower price wins, then more points
// used. An offer without points never beats one with points at equal price.
func better(a, b Offer, pointsID string) bool {
	if cmp := a.Price.Cmp(b.Price); cmp != 0 {
		return cmp < 0
	}
	pa, okA := a.paidWith(pointsID)
	pb, okB := b.paidWith(pointsID)
	switch {
	case okA && okB:
		return pa.GreaterThan(pb)
	case okA:
		return true
	default:
		return false
	}
}

func fullPoints(w *Wallet, o Order) (Offer, bool) {
	points := w.Points()
	price := o.Value.Sub(o.Value.Mul(points.Discount))
	if w.Balance(points.ID).LessThan(price) {
		return Offer{}, false
	}
	return Offer{
		Strategy: FullPoints,
		Price:    price,
		Payments: []Payment{{MethodID: points.ID, Amount: price}},
	}, true
}

func partialPoints(w *Wallet, o Order) (Offer, bool) {
	if !o.Value.IsPositive() {
		return Offer{}, false
	}
	points := w.Points()
	if w.Balance(points.ID).LessThan(o.Value.Mul(PartialPointsThreshold)) {
		return Offer{}, false
	}
	share := o.Value.Mul(PartialPointsDiscount)
	price := o.Value.Sub(share)
	rest := price.Sub(share)

	card, ok := w.cardCovering(rest)
	if !ok {
		return Offer{}, false
	}
	return Offer{
		Strategy: PartialPoints,
		Price:    price,
		Payments: []Payment{
			{MethodID: points.ID, Amount: share},
			{MethodID: card.ID, Amount: rest},
		},
	}, true
}

func fullCard(w *Wallet, o Order) (Offer, bool) {
	card, promoted := w.bestPromotedCard(o.Promotions, o.Value)
	if !promoted {
		var ok bool
		if card, ok = w.cardCovering(o.Value); !ok {
			return Offer{}, false
		}
		promoted = contains(o.Promotions, card.ID)
	}

	price := o.Value
	if promoted {
		price = o.Value.Sub(o.Value.Mul(card.Discount))
	}
	return Offer{
		Strategy: FullCard,
		Price:    price,
		Payments: []Payment{{MethodID: card.ID, Amount: price}},
	}, true
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
