package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/gogogo1024/storefront-bot/internal/common"
)

func catalog() []common.Product {
	return []common.Product{
		{ID: 1, Name: "Key", Price: decimal.RequireFromString("10.00"), PaymentMethods: []string{"PayPal"}},
		{ID: 2, Name: "Pack", Price: decimal.RequireFromString("5.00"), PaymentMethods: []string{"CashApp"}, DiscountPercent: 50},
	}
}

func TestFlatDiscount(t *testing.T) {
	tot := Compute(common.Cart{"1": 2, "2": 1}, catalog(), 3)
	require.True(t, tot.Subtotal.Equal(decimal.RequireFromString("25")), tot.Subtotal.String())
	require.True(t, tot.Total.Equal(decimal.RequireFromString("22")), tot.Total.String())
	require.True(t, tot.DiscountApplied.Equal(decimal.NewFromInt(3)))
	require.ElementsMatch(t, []string{"PayPal", "CashApp"}, tot.PaymentMethods)
	require.Len(t, tot.Lines, 2)
	require.Equal(t, 1, tot.Lines[0].Product.ID)
	require.True(t, tot.Lines[0].LineTotal.Equal(decimal.NewFromInt(20)))
}

func TestDiscountClampsAtZero(t *testing.T) {
	tot := Compute(common.Cart{"1": 2, "2": 1}, catalog(), 30)
	require.True(t, tot.Total.IsZero(), tot.Total.String())
	require.Equal(t, 30, tot.Discount)
	require.True(t, tot.DiscountApplied.Equal(decimal.NewFromInt(25)))
}

func TestStaleLineOmitted(t *testing.T) {
	tot := Compute(common.Cart{"1": 1, "9": 4, "junk": 2}, catalog(), 0)
	require.Len(t, tot.Lines, 1)
	require.True(t, tot.Subtotal.Equal(decimal.NewFromInt(10)))
	require.Equal(t, []string{"PayPal"}, tot.PaymentMethods)
}

func TestSubtotalIsSumOfLines(t *testing.T) {
	carts := []common.Cart{
		{},
		{"2": 7},
		{"1": 1, "2": 3, "3": 1},
	}
	for _, c := range carts {
		tot := Compute(c, catalog(), 0)
		sum := decimal.Zero
		for _, l := range tot.Lines {
			sum = sum.Add(l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
		require.True(t, sum.Equal(tot.Subtotal))
		require.True(t, tot.Total.Equal(tot.Subtotal))
	}
	require.True(t, Compute(common.Cart{}, catalog(), 5).Empty())
}
