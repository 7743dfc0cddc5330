// Package types contains value types shared across the Chirp SDK: time
// cursors, real-time update payloads and presence events.
package types

import "strconv"

// Cursor identifies a point in time in the Chirp event stream.
//
// The subscription loop uses the cursor as the "since" marker for the next
// long poll. The zero-value timetoken "0" asks the service for the current
// time, starting delivery from now.
type Cursor struct {
	// Timetoken is a high-precision decimal timestamp string.
	Timetoken string `json:"t"`
	// Region is the data center region for which Timetoken was generated.
	Region uint32 `json:"r"`
}

// DefaultCursor returns the "start from now" cursor.
func DefaultCursor() Cursor {
	return Cursor{Timetoken: "0", Region: 0}
}

// IsZero reports whether the cursor still points at "now".
func (c Cursor) IsZero() bool {
	return c.Timetoken == "" || c.Timetoken == "0"
}

// QueryParams returns the query parameters carrying the cursor on a
// subscribe request. A zero cursor serializes only tt; otherwise both tt
// and tr are sent.
func (c Cursor) QueryParams() map[string]string {
	if c.IsZero() {
		return map[string]string{"tt": "0"}
	}
	return map[string]string{
		"tt": c.Timetoken,
		"tr": strconv.FormatUint(uint64(c.Region), 10),
	}
}
