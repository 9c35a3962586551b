package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestChargeIsSettledByExactSum(t *testing.T) {
	charge := Charge{Amount: decimal.RequireFromString("100.00")}

	partial := []PaymentEvent{
		{EndToEndID: "E-1", Amount: decimal.RequireFromString("60.00")},
	}
	assert.False(t, charge.IsSettledBy(partial))

	exact := append(partial, PaymentEvent{EndToEndID: "E-2", Amount: decimal.RequireFromString("40.00")})
	assert.True(t, charge.IsSettledBy(exact))

	over := append(exact, PaymentEvent{EndToEndID: "E-3", Amount: decimal.RequireFromString("0.01")})
	assert.False(t, charge.IsSettledBy(over))
}

func TestChargeIsSettledByNoEpsilon(t *testing.T) {
	charge := Charge{Amount: decimal.RequireFromString("250.00")}
	events := []PaymentEvent{{Amount: decimal.RequireFromString("250.01")}}
	assert.False(t, charge.IsSettledBy(events))
}

func TestPaidTotalSumsEvents(t *testing.T) {
	charge := Charge{Events: []PaymentEvent{
		{Amount: decimal.RequireFromString("60.00")},
		{Amount: decimal.RequireFromString("40.00")},
	}}
	assert.True(t, decimal.RequireFromString("100.00").Equal(charge.PaidTotal()))
}

func TestCountsTowardWriteOff(t *testing.T) {
	assert.True(t, Instrument{}.CountsTowardWriteOff())
	assert.False(t, Instrument{Abated: true}.CountsTowardWriteOff())
	assert.False(t, Instrument{Prorogued: true}.CountsTowardWriteOff())
	assert.False(t, Instrument{Overdue: true}.CountsTowardWriteOff())
	assert.True(t, Instrument{Settled: true}.CountsTowardWriteOff())
}
