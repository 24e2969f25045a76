// Package codec converts between a frame payload and its null-delimited
// text fields, and between fields and typed Go values.
//
// Every field is UTF-8 text followed by a single null byte; an absent
// optional value is an empty field; booleans are "1"/"0". Field order is
// positional and interpreted per message tag by the message package.
package codec

import "bytes"

// delimiter terminates every field on the wire.
const delimiter = byte(0)

// Split breaks a frame payload into its fields. The payload's trailing
// delimiter produces one empty token which is dropped; interior empty
// fields (absent optionals) are preserved.
func Split(payload []byte) []string {
	if len(payload) == 0 {
		return nil
	}
	raw := bytes.Split(payload, []byte{delimiter})
	if len(raw) > 0 && len(raw[len(raw)-1]) == 0 {
		raw = raw[:len(raw)-1]
	}
	fields := make([]string, len(raw))
	for i, f := range raw {
		fields[i] = string(f)
	}
	return fields
}

// Join renders fields as a frame payload, terminating each with the
// delimiter.
func Join(fields []string) []byte {
	n := len(fields)
	for _, f := range fields {
		n += len(f)
	}
	payload := make([]byte, 0, n)
	for _, f := range fields {
		payload = append(payload, f...)
		payload = append(payload, delimiter)
	}
	return payload
}
