package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/go-chi/chi/v5"
)

func newNominatimServer(t *testing.T) *httptest.Server {
	t.Helper()
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("User-Agent") != "TransitBot-test" {
				http.Error(w, "missing user agent", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	router.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" {
			http.Error(w, "format", http.StatusBadRequest)
			return
		}
		if q.Get("street") == "Alexanderplatz 1" && q.Get("city") == "Berlin" {
			_, _ = w.Write([]byte(`[{"lat":"52.5219184","lon":"13.4132147","display_name":"1, Alexanderplatz, Mitte, Berlin"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	router.Get("/reverse", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("lat") {
		case "52.5219184":
			_, _ = w.Write([]byte(`{"lat":"52.5219184","lon":"13.4132147","display_name":"1, Alexanderplatz, Mitte, Berlin",
				"address":{"road":"Alexanderplatz","house_number":"1","city":"Berlin"}}`))
		case "52.5":
			_, _ = w.Write([]byte(`{"display_name":"Tiergarten, Berlin","address":{}}`))
		default:
			_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
		}
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestGeocodeAPIGeocode(t *testing.T) {
	api := NewGeocodeAPI(newNominatimServer(t).URL, "TransitBot-test", time.Second)

	loc, err := api.Geocode(context.Background(), "Alexanderplatz 1", "Berlin")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc != (models.Location{Latitude: 52.5219184, Longitude: 13.4132147}) {
		t.Errorf("location = %+v", loc)
	}

	_, err = api.Geocode(context.Background(), "Nowhere 0", "Berlin")
	if !errors.Is(err, models.ErrAddressNotFound) {
		t.Errorf("err = %v, want ErrAddressNotFound", err)
	}
}

func TestGeocodeAPIReverseGeocode(t *testing.T) {
	api := NewGeocodeAPI(newNominatimServer(t).URL, "TransitBot-test", time.Second)

	tests := []struct {
		name    string
		loc     models.Location
		want    string
		wantErr error
	}{
		{name: "road and house number", loc: models.Location{Latitude: 52.5219184, Longitude: 13.4132147}, want: "Alexanderplatz 1"},
		{name: "display name fallback", loc: models.Location{Latitude: 52.5, Longitude: 13.35}, want: "Tiergarten"},
		{name: "nothing there", loc: models.Location{Latitude: 0, Longitude: 0}, wantErr: models.ErrAddressNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := api.ReverseGeocode(context.Background(), tt.loc)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("address = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeocodeAPIRequiresUserAgent(t *testing.T) {
	api := NewGeocodeAPI(newNominatimServer(t).URL, "", time.Second)

	if _, err := api.Geocode(context.Background(), "Alexanderplatz 1", "Berlin"); err == nil {
		t.Fatal("want error when the server rejects the request")
	}
}
