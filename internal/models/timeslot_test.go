package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		input    string
		expected Day
		wantErr  bool
	}{
		{"monday", Monday, false},
		{"MONDAY", Monday, false},
		{" Saturday ", Saturday, false},
		{"sundae", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			day, err := ParseDay(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, day)
		})
	}
}

func TestDayOf(t *testing.T) {
	// 2026-03-02 is a Monday.
	day, err := DayOf("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, Monday, day)

	day, err = DayOf("2026-03-08")
	require.NoError(t, err)
	assert.Equal(t, Sunday, day)

	_, err = DayOf("02.03.2026")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNormalizeSlot(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"09:00", "09:00", false},
		{"9:00", "09:00", false},
		{"15:30", "15:30", false},
		{"9:00 AM", "09:00", false},
		{"9:00 am", "09:00", false},
		{"12:30 PM", "12:30", false},
		{"12:30 AM", "00:30", false},
		{"5:15PM", "17:15", false},
		{" 10:00 ", "10:00", false},
		{"", "", true},
		{"25:00", "", true},
		{"morning", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeSlot(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
