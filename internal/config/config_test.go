package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJobs_Daily(t *testing.T) {
	jobs, err := parseJobs("scan_market@17:30")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	assert.Equal(t, "scan_market", jobs[0].Kind)
	assert.Equal(t, "17:30", jobs[0].TimeOfDay)
	assert.Empty(t, jobs[0].Weekdays)
}

func TestParseJobs_Weekdays(t *testing.T) {
	jobs, err := parseJobs("scan_market@09:15:mon,wed,fri;resource_snapshot@06:00")
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday, time.Friday}, jobs[0].Weekdays)
	assert.Equal(t, "resource_snapshot", jobs[1].Kind)
	assert.Empty(t, jobs[1].Weekdays)
}

func TestParseJobs_Invalid(t *testing.T) {
	_, err := parseJobs("scan_market")
	assert.Error(t, err)

	_, err = parseJobs("scan_market@25:99")
	assert.Error(t, err)

	_, err = parseJobs("scan_market@09:15:notaday")
	assert.Error(t, err)
}

func TestParseJobs_Empty(t *testing.T) {
	jobs, err := parseJobs("")
	require.NoError(t, err)
	assert.Empty(t, jobs)
}
