package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	jerusalem, err := time.LoadLocation("Asia/Jerusalem")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		raw  string
		loc  *time.Location
		want Date
	}{
		{name: "date only", raw: "2024-01-01", loc: time.UTC, want: NewDate(2024, time.January, 1)},
		{name: "rfc3339 utc", raw: "2024-01-01T23:30:00Z", loc: time.UTC, want: NewDate(2024, time.January, 1)},
		{name: "rfc3339 shifted into local day", raw: "2024-01-01T23:30:00Z", loc: jerusalem, want: NewDate(2024, time.January, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw, tt.loc)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err = ParseDate("01/02/2024", time.UTC)
	assert.Error(t, err)
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Date Date  `json:"date"`
		Opt  *Date `json:"opt"`
	}

	data, err := json.Marshal(payload{Date: NewDate(2024, time.March, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-05","opt":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-03-05T10:00:00Z","opt":"2020-02-29"}`), &decoded))
	assert.Equal(t, "2024-03-05", decoded.Date.String())
	require.NotNil(t, decoded.Opt)
	assert.Equal(t, "2020-02-29", decoded.Opt.String())
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-01", d.String())

	require.NoError(t, d.Scan([]byte("2023-12-31")))
	assert.Equal(t, "2023-12-31", d.String())

	assert.Error(t, d.Scan(42))
}

func TestDateAddDays(t *testing.T) {
	d := NewDate(2024, time.March, 1)
	assert.Equal(t, "2024-02-29", d.AddDays(-1).String())
	assert.Equal(t, "2024-03-07", d.AddDays(6).String())
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" therapist ")
	assert.True(t, ok)
	assert.Equal(t, RoleTherapist, role)

	_, ok = ParseRole("admin")
	assert.False(t, ok)
}
