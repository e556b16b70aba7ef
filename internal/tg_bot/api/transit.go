// Package api provides the HTTP clients of the transit bot: the transport.rest transit gateway,
// the Nominatim geocoder and the Telegram messenger.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// Transport.rest API paths.
const (
	NearbyStopsPath   = "/stops/nearby"
	DeparturesPathFmt = "/stops/%s/departures"
)

// TransitAPI fetches nearby stations and departures from a transport.rest compatible API.
type TransitAPI struct {
	jsonClient
}

type restLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type restStop struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Location *restLocation `json:"location"`
	Distance *int          `json:"distance"`
}

type restDeparture struct {
	Line struct {
		Name string `json:"name"`
	} `json:"line"`
	PlannedWhen         string        `json:"plannedWhen"`
	Delay               *int64        `json:"delay"`
	Direction           string        `json:"direction"`
	Destination         *restStop     `json:"destination"`
	CurrentTripPosition *restLocation `json:"currentTripPosition"`
}

// departuresEnvelope is the object shape of newer API versions.
type departuresEnvelope struct {
	Departures []restDeparture `json:"departures"`
}

// NewTransitAPI creates a new instance of TransitAPI.
// Arguments:
//   - endpoint: base URL of the API, e.g. https://v6.db.transport.rest.
//   - userAgent: User-Agent header sent with every request.
//   - timeout: per request timeout.
//
// Returns a pointer to a TransitAPI.
func NewTransitAPI(endpoint, userAgent string, timeout time.Duration) *TransitAPI {
	return &TransitAPI{jsonClient: newJSONClient("TransitAPI", endpoint, userAgent, timeout)}
}

// NearbyStations returns the stations around loc, nearest first as reported by the API.
// Station names are cut at the first comma.
func (t *TransitAPI) NearbyStations(ctx context.Context, loc models.Location) ([]models.Station, error) {
	query := url.Values{}
	query.Set("latitude", formatCoord(loc.Latitude))
	query.Set("longitude", formatCoord(loc.Longitude))

	var stops []restStop
	if err := t.getJSON(ctx, NearbyStopsPath, query, &stops); err != nil {
		return nil, fmt.Errorf("nearby stations: %w", err)
	}

	stations := make([]models.Station, 0, len(stops))
	for _, s := range stops {
		if s.ID == "" || s.Name == "" {
			continue
		}
		st := s.toStation()
		st.Name = shortName(st.Name)
		stations = append(stations, st)
	}
	logrus.Debugf("Found %d stations near %s", len(stations), query.Encode())
	return stations, nil
}

// Departures returns the upcoming departures from the station. Entries without a valid planned
// time are skipped.
func (t *TransitAPI) Departures(ctx context.Context, stationID string) ([]models.Departure, error) {
	var raw json.RawMessage
	path := fmt.Sprintf(DeparturesPathFmt, url.PathEscape(stationID))
	if err := t.getJSON(ctx, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("departures of %s: %w", stationID, err)
	}

	items, err := decodeDepartures(raw)
	if err != nil {
		logrus.WithError(err).Error("Failed to decode TransitAPI departures")
		return nil, fmt.Errorf("departures of %s: %w", stationID, err)
	}

	deps := make([]models.Departure, 0, len(items))
	for _, d := range items {
		planned, err := time.Parse(time.RFC3339, d.PlannedWhen)
		if err != nil {
			logrus.Debugf("Skipping departure of %s without planned time", d.Line.Name)
			continue
		}
		dep := models.Departure{
			StationID:    stationID,
			Line:         models.Line{Name: d.Line.Name, Direction: d.Direction},
			Planned:      planned,
			DelaySeconds: d.Delay,
		}
		if d.Destination != nil {
			dep.Destination = d.Destination.toStation()
			dep.Destination.Distance = models.DistanceUnknown
		}
		if p := d.CurrentTripPosition; p != nil {
			dep.CurrentPosition = &models.Location{Latitude: p.Latitude, Longitude: p.Longitude}
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// decodeDepartures accepts both a bare array and an object with a departures field.
func decodeDepartures(raw json.RawMessage) ([]restDeparture, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var items []restDeparture
		err := json.Unmarshal(raw, &items)
		return items, err
	}
	var env departuresEnvelope
	err := json.Unmarshal(raw, &env)
	return env.Departures, err
}

func (s restStop) toStation() models.Station {
	st := models.Station{ID: s.ID, Name: s.Name, Distance: models.DistanceUnknown}
	if s.Location != nil {
		st.Location = models.Location{Latitude: s.Location.Latitude, Longitude: s.Location.Longitude}
	}
	if s.Distance != nil {
		st.Distance = *s.Distance
	}
	return st
}

func shortName(name string) string {
	if i := strings.IndexByte(name, ','); i >= 0 {
		return strings.TrimSpace(name[:i])
	}
	return name
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
