package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeekdays_SetOperations(t *testing.T) {
	days := Monday.With(Wednesday).With(Friday)

	assert.True(t, days.Has(Monday))
	assert.True(t, days.Has(Wednesday))
	assert.True(t, days.Has(Friday))
	assert.False(t, days.Has(Tuesday))
	assert.False(t, days.IsZero())
	assert.True(t, Weekdays(0).IsZero())
}

func TestWeekdays_String(t *testing.T) {
	assert.Equal(t, "MoWeFr", Monday.With(Wednesday).With(Friday).String())
	assert.Equal(t, "TuTh", Tuesday.With(Thursday).String())
	assert.Equal(t, "SaSu", Saturday.With(Sunday).String())
	assert.Equal(t, "", Weekdays(0).String())
}
