package models

import "time"

// Submission is a stored form submission. ID is minted by the client and
// acts as the idempotency key: an insert with an already-stored ID is a
// replay, not a new submission.
type Submission struct {
	ID              string
	UserID          string
	FormID          string
	Payload         []byte
	ClientCreatedAt time.Time
	ReceivedAt      time.Time
}
