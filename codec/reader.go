package codec

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ErrShortMessage reports a read past the last field.
var ErrShortMessage = errors.New("message has too few fields")

// Reader is a cursor over the fields of one inbound message. Getters
// record the first failure and return zero values afterwards, so a whole
// positional layout can be read without per-field error checks; inspect
// Err once at the end.
type Reader struct {
	fields []string
	pos    int
	err    error
}

// NewReader returns a cursor positioned at the first field.
func NewReader(fields []string) *Reader {
	return &Reader{fields: fields}
}

func (r *Reader) next() (string, bool) {
	if r.err != nil {
		return "", false
	}
	if r.pos >= len(r.fields) {
		r.err = errors.Wrapf(ErrShortMessage, "field %d", r.pos)
		return "", false
	}
	f := r.fields[r.pos]
	r.pos++
	return f, true
}

// String reads the next field as-is.
func (r *Reader) String() string {
	f, _ := r.next()
	return f
}

// Int reads the next field as a base-10 integer. An empty field (absent
// optional) reads as zero.
func (r *Reader) Int() int64 {
	f, ok := r.next()
	if !ok || f == "" {
		return 0
	}
	v, err := strconv.ParseInt(f, 10, 64)
	if err != nil {
		r.fail(err, f)
		return 0
	}
	return v
}

// Float reads the next field as a decimal number. Empty reads as zero.
func (r *Reader) Float() float64 {
	f, ok := r.next()
	if !ok || f == "" {
		return 0
	}
	v, err := strconv.ParseFloat(f, 64)
	if err != nil {
		r.fail(err, f)
		return 0
	}
	return v
}

// Bool reads the next field as "1"/"true" = true, anything else false.
func (r *Reader) Bool() bool {
	f, _ := r.next()
	return f == "1" || f == "true"
}

// UnixTime reads the next field as seconds since the epoch.
func (r *Reader) UnixTime() time.Time {
	v := r.Int()
	if r.err != nil || v == 0 {
		return time.Time{}
	}
	return time.Unix(v, 0)
}

// Time reads the next field with the given layout. Empty reads as the
// zero time.
func (r *Reader) Time(layout string) time.Time {
	f, ok := r.next()
	if !ok || f == "" {
		return time.Time{}
	}
	t, err := time.Parse(layout, f)
	if err != nil {
		r.fail(err, f)
		return time.Time{}
	}
	return t
}

// Skip advances past n fields without interpreting them.
func (r *Reader) Skip(n int) *Reader {
	for i := 0; i < n; i++ {
		r.next()
	}
	return r
}

// Rest returns every unread field and exhausts the cursor.
func (r *Reader) Rest() []string {
	if r.err != nil || r.pos >= len(r.fields) {
		return nil
	}
	rest := r.fields[r.pos:]
	r.pos = len(r.fields)
	return rest
}

// Remaining reports how many fields are left to read.
func (r *Reader) Remaining() int {
	if r.pos >= len(r.fields) {
		return 0
	}
	return len(r.fields) - r.pos
}

// Err returns the first failure encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) fail(cause error, field string) {
	// pos already advanced past the bad field
	r.err = errors.Wrapf(cause, "field %d %q", r.pos-1, field)
}
