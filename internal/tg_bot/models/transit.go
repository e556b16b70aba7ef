package models

import (
	"fmt"
	"time"
)

// DistanceUnknown marks a Station that was not produced by a nearby-stations query.
const DistanceUnknown = -1

// Location is a WGS84 coordinate pair.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Station is a transit stop as reported by the gateway.
type Station struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
	Distance int      `json:"distance"` // Meters from the queried point, DistanceUnknown when not computed
}

// Line identifies a tracked departure by its line name and direction label.
type Line struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
}

// Key returns the composite selection key shown on line buttons.
func (l Line) Key() string {
	return fmt.Sprintf("%s (%s)", l.Name, l.Direction)
}

// Departure is one upcoming departure from a station at the time of a fetch.
type Departure struct {
	StationID       string
	Line            Line
	Planned         time.Time
	DelaySeconds    *int64
	Destination     Station
	CurrentPosition *Location
}

// EffectiveTime is the planned time shifted by the reported delay.
func (d Departure) EffectiveTime() time.Time {
	if d.DelaySeconds == nil {
		return d.Planned
	}
	return d.Planned.Add(time.Duration(*d.DelaySeconds) * time.Second)
}

// DelayMinutes returns the delay in whole minutes, zero when no delay is reported.
func (d Departure) DelayMinutes() int64 {
	if d.DelaySeconds == nil {
		return 0
	}
	return *d.DelaySeconds / 60
}
