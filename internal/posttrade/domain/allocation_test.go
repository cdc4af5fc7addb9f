package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitProRataEvenDivision(t *testing.T) {
	shares := SplitProRata(d("100"), []string{"ACC1", "ACC2"}, 0)

	require.Len(t, shares, 2)
	assert.True(t, shares[0].Qty.Equal(d("50")))
	assert.True(t, shares[1].Qty.Equal(d("50")))
}

func TestSplitProRataResidualToLexicographicFirst(t *testing.T) {
	// 100 股分 3 户除不尽，余量按账户号字典序补给最前者
	shares := SplitProRata(d("100"), []string{"ACC3", "ACC1", "ACC2"}, 0)

	require.Len(t, shares, 3)
	assert.Equal(t, "ACC1", shares[0].AccountID)
	assert.True(t, shares[0].Qty.Equal(d("34")), "got %s", shares[0].Qty)
	assert.True(t, shares[1].Qty.Equal(d("33")))
	assert.True(t, shares[2].Qty.Equal(d("33")))

	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Qty)
	}
	assert.True(t, total.Equal(d("100")))
}

func TestSplitProRataGrossSmallerThanAccounts(t *testing.T) {
	// 总量覆盖不了全部账户时，只有前两户各得一个单位，第三户不产生零分配
	shares := SplitProRata(d("2"), []string{"ACC1", "ACC2", "ACC3"}, 0)

	require.Len(t, shares, 2)
	assert.Equal(t, "ACC1", shares[0].AccountID)
	assert.True(t, shares[0].Qty.Equal(d("1")))
	assert.Equal(t, "ACC2", shares[1].AccountID)
	assert.True(t, shares[1].Qty.Equal(d("1")))
}

func TestSplitProRataFractionalScale(t *testing.T) {
	shares := SplitProRata(d("10"), []string{"A", "B", "C"}, 2)

	require.Len(t, shares, 3)
	// base 3.33，余量 0.01 补给 A
	assert.True(t, shares[0].Qty.Equal(d("3.34")), "got %s", shares[0].Qty)
	assert.True(t, shares[1].Qty.Equal(d("3.33")))
	assert.True(t, shares[2].Qty.Equal(d("3.33")))

	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Qty)
	}
	assert.True(t, total.Equal(d("10")))
}

func TestSplitProRataDeterministicAcrossInputOrder(t *testing.T) {
	a := SplitProRata(d("7"), []string{"X", "Y", "Z"}, 0)
	b := SplitProRata(d("7"), []string{"Z", "X", "Y"}, 0)

	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].AccountID, b[i].AccountID)
		assert.True(t, a[i].Qty.Equal(b[i].Qty))
	}
}

func TestSplitProRataDegenerate(t *testing.T) {
	assert.Nil(t, SplitProRata(d("100"), nil, 0))
	assert.Nil(t, SplitProRata(decimal.Zero, []string{"A"}, 0))
}
