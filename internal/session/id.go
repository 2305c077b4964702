package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

const idLayout = "20060102-150405"

// NewID returns a session ID of the form YYYYMMDD-HHMMSS-xxxxxx. IDs sort
// chronologically and stay readable in `sessions list`.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(t time.Time) string {
	var suffix [3]byte
	_, _ = rand.Read(suffix[:])
	return t.Format(idLayout) + "-" + hex.EncodeToString(suffix[:])
}

// ParseIDTime returns the timestamp encoded in id, or the zero time.
func ParseIDTime(id string) time.Time {
	if len(id) < len(idLayout) {
		return time.Time{}
	}
	t, err := time.Parse(idLayout, id[:len(idLayout)])
	if err != nil {
		return time.Time{}
	}
	return t
}

// ShortID trims an ID for display: "20240115-143052-a1b2c3" -> "240115-1430".
func ShortID(id string) string {
	if len(id) < len(idLayout) {
		return id
	}
	return id[2:8] + "-" + id[9:13]
}
