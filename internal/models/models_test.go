package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReservationStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status   ReservationStatus
		terminal bool
	}{
		{StatusUpcoming, false},
		{StatusAccepted, false},
		{StatusCanceled, true},
		{StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.status.IsTerminal())
		})
	}
}

func TestReservationStatus_IsValid(t *testing.T) {
	assert.True(t, StatusAccepted.IsValid())
	assert.False(t, ReservationStatus("pending").IsValid())
	assert.False(t, ReservationStatus("").IsValid())
}

func TestTemporaryClosure_Blocks(t *testing.T) {
	tests := []struct {
		name    string
		closure TemporaryClosure
		slot    string
		blocked bool
	}{
		{
			name:    "whole day closure blocks any slot",
			closure: TemporaryClosure{Date: "2026-03-02"},
			slot:    "10:00",
			blocked: true,
		},
		{
			name:    "partial closure blocks listed slot",
			closure: TemporaryClosure{Date: "2026-03-02", AffectedSlots: []string{"09:00", "10:00"}},
			slot:    "10:00",
			blocked: true,
		},
		{
			name:    "partial closure leaves other slots open",
			closure: TemporaryClosure{Date: "2026-03-02", AffectedSlots: []string{"09:00"}},
			slot:    "11:00",
			blocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, tt.closure.Blocks(tt.slot))
		})
	}
}

func TestShopSchedule_ClosureFor(t *testing.T) {
	sched := &ShopSchedule{
		BarberID: 1,
		TemporaryClosures: []TemporaryClosure{
			{Date: "2026-03-02", Reason: "renovation"},
			{Date: "2026-03-09", AffectedSlots: []string{"10:00"}},
		},
	}

	c := sched.ClosureFor("2026-03-09")
	assert.NotNil(t, c)
	assert.Equal(t, []string{"10:00"}, c.AffectedSlots)

	assert.Nil(t, sched.ClosureFor("2026-03-03"))
	assert.Nil(t, (*ShopSchedule)(nil).ClosureFor("2026-03-02"))
}

func TestShopSchedule_IsClosedOn(t *testing.T) {
	sched := &ShopSchedule{WeeklyClosure: map[Day]bool{Monday: true}}
	assert.True(t, sched.IsClosedOn(Monday))
	assert.False(t, sched.IsClosedOn(Tuesday))
	assert.False(t, (&ShopSchedule{}).IsClosedOn(Monday))
}

func TestBarber_HasPayoutAccount(t *testing.T) {
	assert.False(t, (&Barber{}).HasPayoutAccount())
	assert.False(t, (*Barber)(nil).HasPayoutAccount())
	assert.True(t, (&Barber{PayoutAccount: "acct_123"}).HasPayoutAccount())
}
