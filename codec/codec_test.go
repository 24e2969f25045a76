package codec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitJoin(t *testing.T) {
	cases := []struct {
		name    string
		fields  []string
		payload string
	}{
		{"single", []string{"49"}, "49\x00"},
		{"typical", []string{"1", "11", "5"}, "1\x0011\x005\x00"},
		{"interior empty kept", []string{"9", "", "42"}, "9\x00\x0042\x00"},
		{"trailing empty kept", []string{"4", ""}, "4\x00\x00"},
		{"empty", nil, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, []byte(tc.payload), Join(tc.fields))
			assert.Equal(t, tc.fields, Split([]byte(tc.payload)))
		})
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	fields := []string{"20", "101", "0", "", "1 D", "1", "", "TRADES", "1", "0", ""}
	assert.Equal(t, fields, Split(Join(fields)))
}

func TestWriterFormats(t *testing.T) {
	var w Writer
	w.Int(17).String("AAPL").Float(1.5).Float(265).Bool(true).Bool(false).Blank().BlankN(2)

	assert.Equal(t, []string{"17", "AAPL", "1.5", "265", "1", "0", "", "", ""}, w.Fields())
	assert.Equal(t, 9, w.Len())
}

func TestWriterTime(t *testing.T) {
	var w Writer
	ts := time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)
	w.Time(ts, "20060102 15:04:05").Time(time.Time{}, "20060102")

	assert.Equal(t, []string{"20240315 21:00:00", ""}, w.Fields())
}

func TestReaderTypedFields(t *testing.T) {
	r := NewReader([]string{"6", "2", "17", "1.25", "1", "0", "", "NASDAQ"})

	assert.EqualValues(t, 6, r.Int())
	r.Skip(1) // version
	assert.EqualValues(t, 17, r.Int())
	assert.Equal(t, 1.25, r.Float())
	assert.True(t, r.Bool())
	assert.False(t, r.Bool())
	assert.EqualValues(t, 0, r.Int()) // empty optional reads as zero
	assert.Equal(t, "NASDAQ", r.String())
	require.NoError(t, r.Err())
	assert.Equal(t, 0, r.Remaining())
}

func TestReaderShortMessage(t *testing.T) {
	r := NewReader([]string{"49"})
	r.Int()
	r.Int() // past the end

	require.Error(t, r.Err())
	assert.ErrorIs(t, r.Err(), ErrShortMessage)

	// Once failed, further reads stay zero and do not clobber the error
	assert.EqualValues(t, 0, r.Int())
	assert.ErrorIs(t, r.Err(), ErrShortMessage)
}

func TestReaderBadNumber(t *testing.T) {
	r := NewReader([]string{"1", "abc"})
	r.Int()
	got := r.Int()

	assert.EqualValues(t, 0, got)
	require.Error(t, r.Err())
	assert.Contains(t, r.Err().Error(), `"abc"`)
}

func TestReaderRest(t *testing.T) {
	r := NewReader([]string{"17", "3", "a", "b", "c"})
	r.Skip(2)

	assert.Equal(t, []string{"a", "b", "c"}, r.Rest())
	assert.Equal(t, 0, r.Remaining())
	assert.Nil(t, r.Rest())
	require.NoError(t, r.Err())
}

func TestReaderUnixTime(t *testing.T) {
	r := NewReader([]string{"1700000000"})
	got := r.UnixTime()

	require.NoError(t, r.Err())
	assert.Equal(t, time.Unix(1700000000, 0), got)
}
