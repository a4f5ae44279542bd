package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/busroute/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCalc_Table(t *testing.T) {
	out, err := execute(t, "calc", "--tier", "basic", "--buses", "120", "--legacy", "20", "--new", "100", "--district", "Lincoln County")
	require.NoError(t, err)

	assert.Contains(t, out, "Lincoln County")
	assert.Contains(t, out, "Basic plan, 120 buses (20 legacy, 100 new)")
	assert.Contains(t, out, "-$2.50")
	assert.Contains(t, out, "$20,700.00")
	assert.Contains(t, out, "$4,000.00")
	assert.Contains(t, out, "$27,700.00")
}

func TestCalc_JSON(t *testing.T) {
	tests := []struct {
		tier string
		want domain.Money
	}{
		{"basic", domain.Dollars(27700)},
		{"PROFESSIONAL", domain.Dollars(48900)},
		{"Enterprise", domain.Dollars(71900)},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			out, err := execute(t, "calc", "--tier", tt.tier, "--buses", "120", "--legacy", "20", "--new", "100", "--json")
			require.NoError(t, err)

			var got calcOutput
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got.Amount)
			assert.Equal(t, domain.ParseTier(tt.tier), got.Tier)
		})
	}
}

func TestCalc_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing tier", []string{"calc", "--buses", "10"}, "tier"},
		{"unknown tier", []string{"calc", "--tier", "gold", "--buses", "10"}, "tier"},
		{"negative buses", []string{"calc", "--tier", "basic", "--buses=-1"}, "bus count"},
		{"oversized fleet", []string{"calc", "--tier", "enterprise", "--buses", "1125899906842624"}, "must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRates(t *testing.T) {
	out, err := execute(t, "rates")
	require.NoError(t, err)

	for _, want := range []string{"Basic", "Professional", "Enterprise", "$10,000.00", "$460.00", "0-100", "101-250", "1001+", "$5.00", "$200.00", "$3,000.00"} {
		assert.Contains(t, out, want)
	}
}
