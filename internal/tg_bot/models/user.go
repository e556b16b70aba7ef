package models

// UserProfile is the last address a user resolved, kept so /start can skip the city and address steps.
type UserProfile struct {
	ID       string   `json:"id"`       // Telegram user ID
	City     string   `json:"city"`     // City typed by the user
	Address  string   `json:"address"`  // Street address or reverse-geocoded address
	Location Location `json:"location"` // Resolved coordinates of the address
}
