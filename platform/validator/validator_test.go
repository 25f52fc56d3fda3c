package validator

import (
	"testing"

	"github.com/shopspring/decimal"
)

type moneyRequest struct {
	Price    decimal.Decimal  `validate:"decimal_gte0"`
	Discount *decimal.Decimal `validate:"omitempty,decimal_gte0"`
	Value    decimal.Decimal  `validate:"decimal_gt0"`
}

func TestDecimalRules(t *testing.T) {
	val := New()
	neg := decimal.NewFromInt(-1)

	tests := []struct {
		name    string
		req     moneyRequest
		wantErr bool
	}{
		{"valid", moneyRequest{Price: decimal.Zero, Value: decimal.NewFromInt(1)}, false},
		{"negative price", moneyRequest{Price: neg, Value: decimal.NewFromInt(1)}, true},
		{"negative optional discount", moneyRequest{Discount: &neg, Value: decimal.NewFromInt(1)}, true},
		{"zero value", moneyRequest{Value: decimal.Zero}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := val.Struct(tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
