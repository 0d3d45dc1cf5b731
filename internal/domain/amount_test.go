package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount_UnmarshalLenient(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"number", `100000`, "100000"},
		{"fraction", `1234.56`, "1234.56"},
		{"numeric string", `"5000.5"`, "5000.5"},
		{"padded string", `"  42 "`, "42"},
		{"empty string", `""`, "0"},
		{"garbage string", `"abc"`, "0"},
		{"null", `null`, "0"},
		{"bool", `true`, "0"},
		{"object", `{"v":1}`, "0"},
		{"rounded to cents", `1234.5678`, "1234.57"},
		{"scientific", `1.5e3`, "1500"},
		{"huge exponent", `1e30000000`, "0"},
		{"tiny exponent", `1e-30000000`, "0"},
		{"huge exponent string", `"9e999999999"`, "0"},
		{"above numeric(14,2)", `1000000000000`, "0"},
		{"largest numeric(14,2)", `999999999999.99`, "999999999999.99"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Amount
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &a))
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestAmount_MissingFieldIsZero(t *testing.T) {
	var s Sale
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s1","totalValue":"oops"}`), &s))

	assert.True(t, s.TotalValue.IsZero())
	assert.True(t, s.CommissionValue.IsZero())
}

func TestAmount_MarshalAsNumber(t *testing.T) {
	b, err := json.Marshal(struct {
		V Amount `json:"v"`
	}{V: ParseAmount("1500.25")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1500.25}`, string(b))
}

func TestAmount_OutOfRangeRoundTripsSmall(t *testing.T) {
	var in struct {
		V Amount `json:"v"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"v": 1e30000000}`), &in))

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":0}`, string(b))
	assert.Equal(t, "0", ParseAmount("-4e20000000").String())
	assert.Equal(t, "-12.35", ParseAmount(" -12.345 ").String())
}

func TestAmount_AddIsExact(t *testing.T) {
	sum := Amount{}
	for i := 0; i < 10; i++ {
		sum = sum.Add(ParseAmount("0.1"))
	}
	assert.True(t, sum.Equal(ParseAmount("1")))
}

func TestSaleStatus_Labels(t *testing.T) {
	assert.Equal(t, "Pago", StatusPaid.Label())
	assert.Equal(t, "Aguardando Prazo de 07 dias", StatusWaitingSevenDays.Label())
	assert.Equal(t, "unknown", SaleStatus("unknown").Label())
	assert.False(t, SaleStatus("").Valid())
	assert.Len(t, SaleStatuses, 6)
}

func TestRole_Policies(t *testing.T) {
	assert.True(t, RoleBroker.CanViewCommissions())
	assert.True(t, RoleTeamLeader.CanViewCommissions())
	assert.False(t, RoleAdmin.CanViewCommissions())
	assert.True(t, RoleUser.CanManageCatalog())
	assert.False(t, RoleBroker.CanManageCatalog())
	assert.False(t, Role("root").Valid())
}
