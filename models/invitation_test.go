package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvitationTransitions(t *testing.T) {
	cases := []struct {
		status  string
		action  string
		allowed bool
	}{
		{InvitationStatusPending, InvitationActionAccept, true},
		{InvitationStatusPending, InvitationActionDecline, true},
		{InvitationStatusPending, InvitationActionCancel, true},
		{InvitationStatusPending, InvitationActionClear, false},
		{InvitationStatusAccepted, InvitationActionAccept, false},
		{InvitationStatusAccepted, InvitationActionDecline, false},
		{InvitationStatusAccepted, InvitationActionCancel, false},
		{InvitationStatusAccepted, InvitationActionClear, true},
		{InvitationStatusDeclined, InvitationActionAccept, false},
		{InvitationStatusDeclined, InvitationActionClear, true},
		{InvitationStatusDeclined, InvitationActionCancel, false},
	}
	for _, c := range cases {
		inv := Invitation{Status: c.status}
		assert.Equal(t, c.allowed, inv.CanTransition(c.action), "%s from %s", c.action, c.status)
	}
}

func TestInvitationUnknownAction(t *testing.T) {
	inv := Invitation{Status: InvitationStatusPending}
	assert.False(t, inv.CanTransition("expire"))
}

func TestValidSessionStatus(t *testing.T) {
	for _, s := range []string{SessionStatusPlanned, SessionStatusActive, SessionStatusCompleted, SessionStatusCancelled} {
		assert.True(t, ValidSessionStatus(s))
	}
	assert.False(t, ValidSessionStatus("archived"))
	assert.False(t, ValidSessionStatus(""))
}
