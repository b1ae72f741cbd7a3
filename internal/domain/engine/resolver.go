package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/service-promotions/internal/domain"
)

type candidate struct {
	rule     domain.PromotionRule
	discount domain.Discount
	// amount is computed against the pre-discount cart and only ranks
	// exclusive rules.
	amount decimal.Decimal
}

type resolution struct {
	applied    []domain.AppliedDiscount
	superseded []supersededRule
	total      decimal.Decimal
}

type supersededRule struct {
	ruleID string
	winner string
}

// resolve picks at most one exclusive rule, the one giving the customer the
// largest discount, then layers every stackable rule on top of it in
// ascending priority order.
func resolve(cands []candidate, start *balance) resolution {
	var exclusive, stackable []candidate
	for _, c := range cands {
		if c.rule.Combinability == domain.Exclusive {
			exclusive = append(exclusive, c)
		} else {
			stackable = append(stackable, c)
		}
	}

	running := start.clone()
	res := resolution{}

	if len(exclusive) > 0 {
		sort.SliceStable(exclusive, func(i, j int) bool {
			a, b := exclusive[i], exclusive[j]
			if cmp := a.amount.Cmp(b.amount); cmp != 0 {
				return cmp > 0
			}
			return rulePrecedes(a.rule, b.rule)
		})
		winner := exclusive[0]
		res.applied = append(res.applied, take(running, winner))
		for _, loser := range exclusive[1:] {
			res.superseded = append(res.superseded, supersededRule{ruleID: loser.rule.ID, winner: winner.rule.ID})
		}
	}

	sort.SliceStable(stackable, func(i, j int) bool {
		return rulePrecedes(stackable[i].rule, stackable[j].rule)
	})
	for _, c := range stackable {
		res.applied = append(res.applied, take(running, c))
	}

	res.total = running.cart
	if res.total.IsNegative() {
		res.total = decimal.Zero
	}
	return res
}

func take(running *balance, c candidate) domain.AppliedDiscount {
	amount := running.amountFor(c.rule.Effect)
	running.take(c.rule.Effect, amount)
	return domain.AppliedDiscount{
		RuleID:        c.rule.ID,
		Combinability: c.rule.Combinability,
		Discount:      c.discount,
		Amount:        amount,
	}
}

// rulePrecedes orders rules by priority, then id.
func rulePrecedes(a, b domain.PromotionRule) bool {
	if a.Priority != b.Priority {
		return a.Priority < b.Priority
	}
	return a.ID < b.ID
}

func (s supersededRule) message() string {
	return fmt.Sprintf("exclusive rule superseded by %s", s.winner)
}
