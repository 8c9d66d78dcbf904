package models

import "time"

// Submission is a form payload pending delivery to the relay server.
//
// ID is minted client-side when the submission is first enqueued and doubles
// as the server-side idempotency key, so replaying the same entry on a later
// drain can never create a duplicate. Payload is opaque JSON owned by the
// form layer.
type Submission struct {
	ID        string
	FormID    string
	Payload   []byte
	CreatedAt time.Time
	Attempts  int
	LastError string
}
