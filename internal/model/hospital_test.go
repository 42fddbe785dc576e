package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionVerification(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{VerificationPending, VerificationUnderReview, true},
		{VerificationPending, VerificationApproved, true},
		{VerificationPending, VerificationRejected, true},
		{VerificationUnderReview, VerificationApproved, true},
		{VerificationUnderReview, VerificationRejected, true},

		// Terminal states never move.
		{VerificationApproved, VerificationRejected, false},
		{VerificationApproved, VerificationPending, false},
		{VerificationRejected, VerificationApproved, false},
		{VerificationRejected, VerificationUnderReview, false},

		// No backward moves.
		{VerificationUnderReview, VerificationPending, false},

		// Same-state reapplication is a service-level no-op, not a
		// transition.
		{VerificationApproved, VerificationApproved, false},
		{VerificationPending, VerificationPending, false},

		{"bogus", VerificationApproved, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransitionVerification(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestValidVerificationStatus(t *testing.T) {
	for _, s := range []string{VerificationPending, VerificationUnderReview, VerificationApproved, VerificationRejected} {
		assert.True(t, ValidVerificationStatus(s), s)
	}
	assert.False(t, ValidVerificationStatus("verified"))
	assert.False(t, ValidVerificationStatus(""))
}

func TestValidHospitalType(t *testing.T) {
	assert.True(t, ValidHospitalType(HospitalTypeGeneral))
	assert.True(t, ValidHospitalType(HospitalTypeMultispecialty))
	assert.False(t, ValidHospitalType("hospice"))
	assert.False(t, ValidHospitalType(""))
}
