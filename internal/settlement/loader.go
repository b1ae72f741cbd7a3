package settlement

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/service-promotions/internal/infrastructure/yaml"
)

var hundred = decimal.NewFromInt(100)

// paymentMethodFile is the on-disk form: discount is an integer percent.
type paymentMethodFile struct {
	ID       string          `json:"id"`
	Discount decimal.Decimal `json:"discount"`
	Limit    decimal.Decimal `json:"limit"`
}

// LoadOrders reads a JSON (or YAML, by extension) array of orders.
func LoadOrders(path string) ([]Order, error) {
	var orders []Order
	if err := loadList(path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// LoadPaymentMethods reads payment methods, converting percent discounts to
// fractions floored to four decimal places.
func LoadPaymentMethods(path string) ([]PaymentMethod, error) {
	var raw []paymentMethodFile
	if err := loadList(path, &raw); err != nil {
		return nil, err
	}
	methods := make([]PaymentMethod, len(raw))
	for i, m := range raw {
		methods[i] = PaymentMethod{
			ID:       m.ID,
			Discount: m.Discount.Div(hundred).RoundFloor(4),
			Limit:    m.Limit,
		}
	}
	return methods, nil
}

func loadList(path string, out any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.LoadFile(path, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
