package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexString_Unmarshal(t *testing.T) {
	cases := map[string]FlexString{
		`"12.50"`: "12.50",
		`12.50`:   "12.50",
		`1234`:    "1234",
		`null`:    "",
		`"  7 "`:  "  7 ",
	}
	for in, want := range cases {
		var got FlexString
		require.NoError(t, json.Unmarshal([]byte(in), &got), in)
		assert.Equal(t, want, got, in)
	}

	var bad FlexString
	assert.Error(t, json.Unmarshal([]byte(`true`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestOrder_CompositeID(t *testing.T) {
	var o Order
	require.NoError(t, json.Unmarshal([]byte(`{"marketplace":"cdiscount","order_id":1234}`), &o))
	assert.Equal(t, "cdiscount_1234", o.CompositeID())

	o = Order{Marketplace: "fnac", OrderID: "AB-1"}
	assert.Equal(t, "fnac_AB-1", o.CompositeID())
}

func TestAddress_TreeOmitsCity(t *testing.T) {
	a := Address{City: "Tokyo", CountryCode: "JP"}
	assert.Equal(t, "Tokyo", a.Tree()["City"])

	a.OmitCity = true
	_, ok := a.Tree()["City"]
	assert.False(t, ok)
	assert.Equal(t, "JP", a.Tree()["CountryCode"])
}
