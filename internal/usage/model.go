package usage

import "time"

// Usage represents a user's daily parse quota snapshot.
type Usage struct {
	Plan     string    `json:"plan"`
	Limit    int       `json:"limit"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Window is the quota period; counters reset this long after first use.
const Window = 24 * time.Hour
