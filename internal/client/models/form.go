package models

// Form describes a form definition served by the relay; the client caches
// the list for offline display.
type Form struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
