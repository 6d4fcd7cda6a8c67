package types

import "time"

// PlaybackState is the externally visible state of the playback controller.
type PlaybackState struct {
	Cursor        int     `json:"cursor"`
	Length        int     `json:"length"`
	Running       bool    `json:"running"`
	Speed         float64 `json:"speed"`
	AlertsEnabled bool    `json:"alertsEnabled"`
}

// Notification is an ephemeral alert raised during playback.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
