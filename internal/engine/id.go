package engine

import "github.com/google/uuid"

// newRecordID returns a unique ID for a completed nap.
func newRecordID() string {
	return uuid.NewString()
}
