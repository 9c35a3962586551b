package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionToFollowsLifecycleOrder(t *testing.T) {
	order := []OperationStatus{
		OperationOpen,
		OperationValued,
		OperationChargeIssued,
		OperationPaid,
		OperationWrittenOff,
		OperationBankWrittenOff,
	}

	for i, from := range order {
		op := RepurchaseOperation{Status: from}
		for j, to := range order {
			allowed := op.CanTransitionTo(to)
			switch {
			case i == j:
				assert.True(t, allowed, "re-asserting %s must be allowed", from)
			case j == i+1:
				assert.True(t, allowed, "%s -> %s must be allowed", from, to)
			default:
				assert.False(t, allowed, "%s -> %s must be rejected", from, to)
			}
		}
	}
}
