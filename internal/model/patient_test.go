package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatient_RecordNoShow(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	p := &Patient{}

	p.RecordNoShow(now)
	p.RecordNoShow(now)
	assert.False(t, p.IsBookingBlocked)
	assert.Equal(t, 2, p.ConsecutiveNoShows)

	p.RecordNoShow(now)
	assert.True(t, p.IsBookingBlocked)
	require.NotNil(t, p.BookingBlockReason)
	assert.Equal(t, BlockReasonExcessiveNoShows, *p.BookingBlockReason)
	assert.Equal(t, now, *p.BlockedAt)

	p.ResetNoShows()
	assert.Equal(t, 0, p.ConsecutiveNoShows)
	assert.True(t, p.IsBookingBlocked, "completing a visit does not lift an existing block")

	p.Unban()
	assert.False(t, p.IsBookingBlocked)
	assert.Nil(t, p.BookingBlockReason)
	assert.Nil(t, p.BlockedAt)
}

func TestCodes(t *testing.T) {
	assert.Equal(t, "BN-1001", PatientCodeFor(1))
	assert.Equal(t, "BN-1250", PatientCodeFor(250))
	assert.Equal(t, "EMP001", EmployeeCodeFor(1))
	assert.Equal(t, "EMP1234", EmployeeCodeFor(1234))
}

func TestDuplicateMatchType_Confidence(t *testing.T) {
	assert.Equal(t, 95, MatchExact.Confidence())
	assert.Equal(t, 85, MatchNameAndPhone.Confidence())
	assert.Equal(t, 80, MatchNameAndDOB.Confidence())
	assert.Equal(t, 60, MatchPhone.Confidence())
	assert.Equal(t, 0, DuplicateMatchType("UNKNOWN").Confidence())
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2010-06-15")
	require.NoError(t, err)

	b, err := json.Marshal(struct {
		DOB Date `json:"dob"`
	}{d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"dob":"2010-06-15"}`, string(b))

	var out struct {
		DOB *Date `json:"dob"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"dob":"2001-02-03"}`), &out))
	assert.Equal(t, "2001-02-03", out.DOB.String())

	assert.Error(t, json.Unmarshal([]byte(`{"dob":"03/02/2001"}`), &out))

	assert.Equal(t, 14, d.AgeAt(time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 15, d.AgeAt(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))

	var scanned Date
	require.NoError(t, scanned.Scan([]byte("1999-12-31")))
	assert.Equal(t, "1999-12-31", scanned.String())
	require.NoError(t, scanned.Scan(nil))
	assert.True(t, scanned.IsZero())

	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2010-06-15", v)
}
