package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// Nominatim API paths.
const (
	SearchPath  = "/search"
	ReversePath = "/reverse"
)

// GeocodeAPI resolves addresses with a Nominatim compatible API.
type GeocodeAPI struct {
	jsonClient
}

type nominatimPlace struct {
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
}

type nominatimAddress struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
}

type nominatimReverse struct {
	nominatimPlace
	Error string `json:"error"`
}

// NewGeocodeAPI creates a new instance of GeocodeAPI. Nominatim requires an identifying User-Agent.
func NewGeocodeAPI(endpoint, userAgent string, timeout time.Duration) *GeocodeAPI {
	return &GeocodeAPI{jsonClient: newJSONClient("GeocodeAPI", endpoint, userAgent, timeout)}
}

// Geocode resolves a street address within a city to coordinates.
// Returns models.ErrAddressNotFound when the search yields nothing.
func (g *GeocodeAPI) Geocode(ctx context.Context, address, city string) (models.Location, error) {
	query := url.Values{}
	query.Set("street", address)
	query.Set("city", city)
	query.Set("format", "json")
	query.Set("limit", "1")

	var places []nominatimPlace
	if err := g.getJSON(ctx, SearchPath, query, &places); err != nil {
		return models.Location{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	if len(places) == 0 {
		logrus.Infof("No geocoding result for %q in %q", address, city)
		return models.Location{}, models.ErrAddressNotFound
	}

	loc, err := places[0].location()
	if err != nil {
		logrus.WithError(err).Error("GeocodeAPI returned malformed coordinates")
		return models.Location{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	return loc, nil
}

// ReverseGeocode returns a short "road house_number" address for the coordinates.
func (g *GeocodeAPI) ReverseGeocode(ctx context.Context, loc models.Location) (string, error) {
	query := url.Values{}
	query.Set("lat", formatCoord(loc.Latitude))
	query.Set("lon", formatCoord(loc.Longitude))
	query.Set("format", "json")

	var place nominatimReverse
	if err := g.getJSON(ctx, ReversePath, query, &place); err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if place.Error != "" {
		return "", fmt.Errorf("reverse geocode: %s: %w", place.Error, models.ErrAddressNotFound)
	}

	address := strings.TrimSpace(place.Address.Road + " " + place.Address.HouseNumber)
	if address == "" {
		address = shortName(place.DisplayName)
	}
	if address == "" {
		return "", fmt.Errorf("reverse geocode: %w", models.ErrAddressNotFound)
	}
	return address, nil
}

func (p nominatimPlace) location() (models.Location, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("bad latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("bad longitude %q: %w", p.Lon, err)
	}
	return models.Location{Latitude: lat, Longitude: lon}, nil
}
