package model

import "github.com/Victor-armando18/service-promotions/internal/domain"

// Facts flattens a cart into the plain map that expression leaves see, under
// the "cart" key. Money is exposed as float64 because both rule languages
// compare plain numbers.
func Facts(cart domain.Cart) map[string]any {
	items := make([]any, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = map[string]any{
			"productId": item.ProductID,
			"unitPrice": item.UnitPrice.InexactFloat64(),
			"quantity":  item.Quantity,
			"total":     item.Total().InexactFloat64(),
		}
	}
	return map[string]any{
		"cart": map[string]any{
			"id":            cart.ID,
			"currency":      cart.Currency,
			"customerTier":  cart.CustomerTier,
			"paymentMethod": cart.PaymentMethod,
			"subtotal":      cart.Subtotal().InexactFloat64(),
			"totalQuantity": cart.TotalQuantity(),
			"items":         items,
		},
	}
}
