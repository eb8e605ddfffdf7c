package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	type testCase struct {
		name     string
		err      error
		target   error
		expected bool
	}
	tests := []testCase{
		{name: "sentinel", err: ErrAlreadySigned, target: ErrAlreadySigned, expected: true},
		{name: "formatted copy", err: ErrActorsNotApproved.With("tenant %s", "a1"), target: ErrActorsNotApproved, expected: true},
		{name: "wrapped", err: fmt.Errorf("approve: %w", ErrNotComplete), target: ErrNotComplete, expected: true},
		{name: "different code same kind", err: ErrAlreadySigned, target: ErrNoCurrentContract, expected: false},
		{name: "foreign error", err: errors.New("boom"), target: ErrNotFound, expected: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, errors.Is(tc.err, tc.target))
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindExpiredGrant, KindOf(fmt.Errorf("redeem: %w", ErrGrantExpired)))
	assert.Equal(t, KindNotFound, KindOf(ErrGrantNotFound))
	assert.Equal(t, KindUnknown, KindOf(errors.New("x")))
	assert.True(t, IsFatal(ErrMultipleCurrentContracts.With("policy %s", "p1")))
	assert.False(t, IsFatal(ErrIllegalTransition))
	assert.Equal(t, Code("ALREADY_LOCKED"), CodeOf(ErrAlreadyLocked))
	assert.Equal(t, "ALREADY_SIGNED: contract already signed", ErrAlreadySigned.Error())
}
