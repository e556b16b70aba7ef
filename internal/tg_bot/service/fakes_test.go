package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
)

var errUpstream = errors.New("upstream unavailable")

var t0 = time.Date(2024, time.March, 4, 12, 0, 0, 0, time.UTC)

// sentMessage is one outbound message recorded by fakeMessenger.
type sentMessage struct {
	ID       int
	ChatID   int64
	Msg      models.OutgoingMessage
	Location *models.Location
}

type fakeMessenger struct {
	mu       sync.Mutex
	nextID   int
	sent     []sentMessage
	edited   []int
	cleared  []int
	deleted  []int
	answered []string
	sendErr  error
}

func (m *fakeMessenger) SendText(chatID int64, msg models.OutgoingMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, sentMessage{ID: m.nextID, ChatID: chatID, Msg: msg})
	return m.nextID, nil
}

func (m *fakeMessenger) SendLocation(chatID int64, loc models.Location) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return 0, m.sendErr
	}
	m.nextID++
	m.sent = append(m.sent, sentMessage{ID: m.nextID, ChatID: chatID, Location: &loc})
	return m.nextID, nil
}

func (m *fakeMessenger) EditText(_ int64, messageID int, _ models.OutgoingMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edited = append(m.edited, messageID)
	return nil
}

func (m *fakeMessenger) ClearButtons(_ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, messageID)
	return nil
}

func (m *fakeMessenger) Delete(_ int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, messageID)
	return nil
}

func (m *fakeMessenger) AnswerCallback(callbackID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answered = append(m.answered, callbackID)
	return nil
}

func (m *fakeMessenger) messages() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *fakeMessenger) deletedIDs() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.deleted...)
}

// countText returns how many text messages contain substr.
func (m *fakeMessenger) countText(substr string) int {
	n := 0
	for _, s := range m.messages() {
		if s.Location == nil && strings.Contains(s.Msg.Text, substr) {
			n++
		}
	}
	return n
}

type fetchResult struct {
	deps []models.Departure
	err  error
}

// fakeSource replays results in order and repeats the last one.
type fakeSource struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
}

func (s *fakeSource) Departures(_ context.Context, _ string) ([]models.Departure, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i].deps, s.results[i].err
}

// fakeTimer records every requested wait. The first fire calls fire at once, later calls block
// until the task is cancelled; fire < 0 never blocks.
type fakeTimer struct {
	mu    sync.Mutex
	waits []time.Duration
	fire  int
	armed chan struct{}
}

func newFakeTimer(fire int) *fakeTimer {
	return &fakeTimer{fire: fire, armed: make(chan struct{}, 1)}
}

func (f *fakeTimer) timer(d time.Duration) (<-chan time.Time, func() bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.waits = append(f.waits, d)
	c := make(chan time.Time, 1)
	if f.fire < 0 || len(f.waits) <= f.fire {
		c <- t0
		return c, func() bool { return false }
	}
	select {
	case f.armed <- struct{}{}:
	default:
	}
	return c, func() bool { return true }
}

func (f *fakeTimer) recorded() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.waits...)
}

type fakeGeocoder struct {
	loc        models.Location
	err        error
	reverse    string
	reverseErr error
	queries    []string
}

func (g *fakeGeocoder) Geocode(_ context.Context, address, city string) (models.Location, error) {
	g.queries = append(g.queries, address+"|"+city)
	return g.loc, g.err
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, _ models.Location) (string, error) {
	return g.reverse, g.reverseErr
}

type fakeTransit struct {
	stations    []models.Station
	stationsErr error
	deps        map[string][]models.Departure
	depsErr     error
}

func (f *fakeTransit) NearbyStations(_ context.Context, _ models.Location) ([]models.Station, error) {
	return f.stations, f.stationsErr
}

func (f *fakeTransit) Departures(_ context.Context, stationID string) ([]models.Departure, error) {
	return f.deps[stationID], f.depsErr
}

type fakeProfiles struct {
	profiles map[string]models.UserProfile
	getErr   error
	putErr   error
	puts     []models.UserProfile
}

func (p *fakeProfiles) Get(_ context.Context, userID string) (models.UserProfile, bool, error) {
	if p.getErr != nil {
		return models.UserProfile{}, false, p.getErr
	}
	pr, ok := p.profiles[userID]
	return pr, ok, nil
}

func (p *fakeProfiles) Put(_ context.Context, profile models.UserProfile) error {
	p.puts = append(p.puts, profile)
	if p.putErr != nil {
		return p.putErr
	}
	if p.profiles == nil {
		p.profiles = make(map[string]models.UserProfile)
	}
	p.profiles[profile.ID] = profile
	return nil
}

func departure(line models.Line, planned time.Time) models.Departure {
	return models.Departure{StationID: "900100003", Line: line, Planned: planned}
}

func delayed(d models.Departure, seconds int64) models.Departure {
	d.DelaySeconds = &seconds
	return d
}
