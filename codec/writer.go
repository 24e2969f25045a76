package codec

import (
	"strconv"
	"time"
)

// Writer accumulates the fields of one outbound message. Zero value is
// ready to use. Methods return the Writer so short messages can be built
// in one expression.
type Writer struct {
	fields []string
}

// String appends a text field.
func (w *Writer) String(s string) *Writer {
	w.fields = append(w.fields, s)
	return w
}

// Int appends a base-10 integer field.
func (w *Writer) Int(v int64) *Writer {
	return w.String(strconv.FormatInt(v, 10))
}

// Float appends a decimal field without exponent, shortest form that
// round-trips.
func (w *Writer) Float(v float64) *Writer {
	return w.String(strconv.FormatFloat(v, 'f', -1, 64))
}

// Bool appends "1" or "0".
func (w *Writer) Bool(v bool) *Writer {
	if v {
		return w.String("1")
	}
	return w.String("0")
}

// Blank appends an empty field: the wire form of an absent optional.
func (w *Writer) Blank() *Writer {
	return w.String("")
}

// BlankN appends n empty fields. Several requests pad unused trailing
// parameters this way.
func (w *Writer) BlankN(n int) *Writer {
	for i := 0; i < n; i++ {
		w.Blank()
	}
	return w
}

// Time appends a timestamp rendered with the given layout, or an empty
// field for the zero time.
func (w *Writer) Time(t time.Time, layout string) *Writer {
	if t.IsZero() {
		return w.Blank()
	}
	return w.String(t.Format(layout))
}

// Fields returns the accumulated fields. The slice aliases the Writer's
// storage; callers must not retain it across further writes.
func (w *Writer) Fields() []string {
	return w.fields
}

// Payload renders the accumulated fields as a frame payload.
func (w *Writer) Payload() []byte {
	return Join(w.fields)
}

// Len reports how many fields have been written.
func (w *Writer) Len() int {
	return len(w.fields)
}
