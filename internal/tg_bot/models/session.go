package models

import "time"

// TrackingSession is everything a tracking task needs, copied at spawn time.
type TrackingSession struct {
	ID              string    // Unique session ID, used in logs
	UserID          string    // Telegram user ID, key in the task registry
	ChatID          int64     // Chat to notify
	StationID       string    // Gateway station ID
	StationName     string    // Station name for notices
	Line            Line      // Tracked line and direction
	IntervalMinutes int       // Configured poll interval
	StartedAt       time.Time // Logical time of the first tick
	PromptMessageID int       // Interval prompt message, retracted on the first tick
}

// OutgoingMessage is a text message with optional selectable options rendered as buttons.
type OutgoingMessage struct {
	Text    string
	Options []string
	Columns int // Buttons per row, 1 when zero
}
