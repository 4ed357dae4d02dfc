package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentRequestCanTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		from   string
		target string
		want   bool
	}{
		{name: "pending to paid", from: RequestStatusPending, target: RequestStatusPaid, want: true},
		{name: "paid to approved", from: RequestStatusPaid, target: RequestStatusApproved, want: true},
		{name: "paid to rejected", from: RequestStatusPaid, target: RequestStatusRejected, want: true},
		{name: "pending cannot skip to approved", from: RequestStatusPending, target: RequestStatusApproved, want: false},
		{name: "pending cannot skip to rejected", from: RequestStatusPending, target: RequestStatusRejected, want: false},
		{name: "approved is terminal", from: RequestStatusApproved, target: RequestStatusRejected, want: false},
		{name: "rejected is terminal", from: RequestStatusRejected, target: RequestStatusApproved, want: false},
		{name: "paid cannot go back to pending", from: RequestStatusPaid, target: RequestStatusPending, want: false},
		{name: "approved cannot go back to paid", from: RequestStatusApproved, target: RequestStatusPaid, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := &PaymentRequest{Status: tc.from}
			assert.Equal(t, tc.want, req.CanTransition(tc.target))
		})
	}
}

func TestPaymentRequestActiveAndTerminal(t *testing.T) {
	t.Parallel()

	assert.True(t, (&PaymentRequest{Status: RequestStatusPending}).IsActive())
	assert.True(t, (&PaymentRequest{Status: RequestStatusPaid}).IsActive())
	assert.False(t, (&PaymentRequest{Status: RequestStatusApproved}).IsActive())
	assert.False(t, (&PaymentRequest{Status: RequestStatusRejected}).IsActive())

	assert.True(t, (&PaymentRequest{Status: RequestStatusApproved}).IsTerminal())
	assert.True(t, (&PaymentRequest{Status: RequestStatusRejected}).IsTerminal())
	assert.False(t, (&PaymentRequest{Status: RequestStatusPending}).IsTerminal())
}

func TestIsValidDeliveryStatus(t *testing.T) {
	t.Parallel()

	for _, s := range []string{DeliveryStatusPending, DeliveryStatusSent, DeliveryStatusFailed, DeliveryStatusManual} {
		assert.True(t, IsValidDeliveryStatus(s), s)
	}
	assert.False(t, IsValidDeliveryStatus("delivered"))
	assert.False(t, IsValidDeliveryStatus(""))
	assert.False(t, IsValidDeliveryStatus("PENDING"))
}

func TestIsValidRequestType(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidRequestType(RequestTypeContactUnlock))
	assert.True(t, IsValidRequestType(RequestTypePostPromotion))
	assert.False(t, IsValidRequestType("unlock"))
	assert.False(t, IsValidRequestType(""))
}
