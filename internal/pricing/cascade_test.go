package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetUnitPrice_Cascade(t *testing.T) {
	// Tier 5 discounts the remainder left by tier 1: 100 * 0.9 * 0.95.
	net, err := NetUnitPrice(100, DiscountTiers{10, 0, 0, 0, 5})
	require.NoError(t, err)
	assert.Equal(t, 85.50, net)
}

func TestNetUnitPrice_SuccessiveNotSummed(t *testing.T) {
	net, err := NetUnitPrice(200, DiscountTiers{50, 50, 0, 0, 0})
	require.NoError(t, err)
	// 200 * 0.5 * 0.5 = 50, not 200 * (1 - 1.0) = 0.
	assert.Equal(t, 50.0, net)
}

func TestNetUnitPrice_ZeroTiersNeutral(t *testing.T) {
	net, err := NetUnitPrice(123.45, DiscountTiers{})
	require.NoError(t, err)
	assert.Equal(t, 123.45, net)
}

func TestNetUnitPrice_FullDiscountLegal(t *testing.T) {
	net, err := NetUnitPrice(999.99, DiscountTiers{0, 0, 100, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 0.0, net)
}

func TestNetUnitPrice_RejectsOutOfRange(t *testing.T) {
	_, err := NetUnitPrice(100, DiscountTiers{0, 101, 0, 0, 0})
	require.Error(t, err)
	var rangeErr ErrDiscountOutOfRange
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 2, rangeErr.Tier)

	_, err = NetUnitPrice(100, DiscountTiers{-0.5, 0, 0, 0, 0})
	require.Error(t, err)
}

func TestNetUnitPrice_RejectsNegativeListPrice(t *testing.T) {
	_, err := NetUnitPrice(-1, DiscountTiers{})
	require.Error(t, err)
}

func TestNetUnitPrice_Rounds(t *testing.T) {
	// 33.33 * 0.9 = 29.997 -> 30.00
	net, err := NetUnitPrice(33.33, DiscountTiers{10, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 30.0, net)
}

func TestComputeTotals_WorkedExample(t *testing.T) {
	// Two lines: (1800, d1=5, qty=2) and (95, d1=10, qty=10).
	net1, err := NetUnitPrice(1800, DiscountTiers{5, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 1710.0, net1)

	net2, err := NetUnitPrice(95, DiscountTiers{10, 0, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 85.50, net2)

	totals := ComputeTotals([]float64{LineTotal(net1, 2), LineTotal(net2, 10)})
	assert.Equal(t, 4275.0, totals.Subtotal)
	assert.Equal(t, 769.50, totals.Tax)
	assert.Equal(t, 5044.50, totals.Total)
}

func TestComputeTotals_EmptySet(t *testing.T) {
	totals := ComputeTotals(nil)
	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.Tax)
	assert.Zero(t, totals.Total)
}

func TestComputeTotals_Idempotent(t *testing.T) {
	lineTotals := []float64{3420, 855}
	first := ComputeTotals(lineTotals)
	second := ComputeTotals(lineTotals)
	assert.Equal(t, first, second)
}

func TestParseAmount_DecimalSeparators(t *testing.T) {
	v, err := ParseAmount("1234.56")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, v)

	v, err = ParseAmount("1234,56")
	require.NoError(t, err)
	assert.Equal(t, 1234.56, v)

	v, err = ParseAmount("  7 ")
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)

	v, err = ParseAmount("")
	require.NoError(t, err)
	assert.Zero(t, v)

	_, err = ParseAmount("abc")
	require.Error(t, err)
}

func TestParseQuantity(t *testing.T) {
	qty, err := ParseQuantity("3,9")
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	_, err = ParseQuantity("0")
	require.Error(t, err)

	_, err = ParseQuantity("-2")
	require.Error(t, err)
}
