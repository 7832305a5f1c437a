package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubtotal(t *testing.T) {
	require.EqualValues(t, 0, Subtotal(nil))
	items := []Item{{Price: 500}, {Price: 1200}}
	require.EqualValues(t, 1700, Subtotal(items))
}

func TestReconcileClassification(t *testing.T) {
	cases := []struct {
		name     string
		subtotal Money
		discount Money
		cash     Money
		balance  Money
		status   Status
		display  string
	}{
		{"due", 100, 0, 80, 20, StatusDue, "20 (Due)"},
		{"settled", 100, 0, 100, 0, StatusSettled, "0 (Paid)"},
		{"change", 100, 0, 120, -20, StatusChange, "20 (Change)"},
		{"discount due", 1700, 200, 1000, 500, StatusDue, "500 (Due)"},
		{"no discount change", 1700, 0, 2000, -300, StatusChange, "300 (Change)"},
		{"empty cart", 0, 0, 0, 0, StatusSettled, "0 (Paid)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Reconcile(tc.subtotal, tc.discount, tc.cash)
			require.Equal(t, tc.balance, res.Balance)
			require.Equal(t, tc.status, res.Status)
			require.Equal(t, tc.subtotal-tc.discount, res.Net)
			require.Equal(t, tc.display, res.Display())
		})
	}
}

func TestReconcileIdempotent(t *testing.T) {
	first := Reconcile(1700, 200, 1000)
	second := Reconcile(1700, 200, 1000)
	require.Equal(t, first, second)
}
