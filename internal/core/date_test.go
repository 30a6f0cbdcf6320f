package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_JSON(t *testing.T) {
	var v struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2026-03-01"}`), &v))
	assert.Equal(t, "2026-03-01", v.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":"2026-03-01T22:15:00Z"}`), &v))
	assert.Equal(t, "2026-03-01", v.D.String())

	require.NoError(t, json.Unmarshal([]byte(`{"d":null}`), &v))
	assert.True(t, v.D.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"d":"01/03/2026"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"d":20260301}`), &v))

	out, err := json.Marshal(struct {
		A Date `json:"a"`
		B Date `json:"b"`
	}{A: DateOf(time.Date(2026, 7, 4, 23, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"2026-07-04","b":null}`, string(out))
}

func TestDate_ValueScan(t *testing.T) {
	d, err := ParseDate("2026-11-30")
	require.NoError(t, err)

	v, err := d.Value()
	require.NoError(t, err)
	var back Date
	require.NoError(t, back.Scan(v))
	assert.Equal(t, d, back)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, back.Scan(nil))
	assert.True(t, back.IsZero())
	require.NoError(t, back.Scan("2026-01-05"))
	assert.Equal(t, "2026-01-05", back.String())
	assert.Error(t, back.Scan(42))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = ParseDate("2026-13-01")
	assert.Error(t, err)
}
