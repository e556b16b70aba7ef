package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownStation   = errors.New("station is not in the offered list")
	ErrAmbiguousStation = errors.New("station name matches several stations")
	ErrUnknownLine      = errors.New("line is not in the offered list")
	ErrAmbiguousLine    = errors.New("line key matches several lines")
)

const maxIntervalMinutes = 60

// Geocoder resolves addresses to coordinates and back.
type Geocoder interface {
	Geocode(ctx context.Context, address, city string) (models.Location, error)
	ReverseGeocode(ctx context.Context, loc models.Location) (string, error)
}

// TransitGateway fetches stations and departures from the transit data provider.
type TransitGateway interface {
	DepartureSource
	NearbyStations(ctx context.Context, loc models.Location) ([]models.Station, error)
}

// ProfileStore keeps the last resolved address of each user.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (models.UserProfile, bool, error)
	Put(ctx context.Context, profile models.UserProfile) error
}

// EventKind classifies inbound events.
type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventLocation
	EventSelection
)

// Event is one inbound chat event.
type Event struct {
	Kind      EventKind
	UserID    string
	ChatID    int64
	MessageID int             // Message the event came from; for selections, the message carrying the buttons
	Command   string          // Command name without the slash
	Text      string          // Text line or selection data
	Location  models.Location // Shared location
}

// Effect is an outbound action produced by a transition.
type Effect interface {
	isEffect()
}

type (
	// SendEffect sends a new message to the chat.
	SendEffect struct{ Message models.OutgoingMessage }
	// EditEffect replaces the text and buttons of a message.
	EditEffect struct {
		MessageID int
		Message   models.OutgoingMessage
	}
	// ClearButtonsEffect removes the buttons of a message.
	ClearButtonsEffect struct{ MessageID int }
	// DeleteEffect deletes a message.
	DeleteEffect struct{ MessageID int }
	// StartTrackingEffect spawns a tracking task for the session.
	StartTrackingEffect struct{ Session models.TrackingSession }
	// StopTrackingEffect cancels the tracking task of a user, if any.
	StopTrackingEffect struct{ UserID string }
)

func (SendEffect) isEffect()          {}
func (EditEffect) isEffect()          {}
func (ClearButtonsEffect) isEffect()  {}
func (DeleteEffect) isEffect()        {}
func (StartTrackingEffect) isEffect() {}
func (StopTrackingEffect) isEffect()  {}

func say(text string) []Effect {
	return []Effect{SendEffect{Message: models.OutgoingMessage{Text: text}}}
}

// DialogOption configures a Dialog.
type DialogOption func(*Dialog)

// WithClock sets the clock used to stamp new tracking sessions.
func WithClock(now func() time.Time) DialogOption {
	return func(d *Dialog) { d.now = now }
}

// WithSessionIDs sets the generator of tracking session IDs.
func WithSessionIDs(newID func() string) DialogOption {
	return func(d *Dialog) { d.newID = newID }
}

// WithIntervals sets the poll intervals offered as buttons.
func WithIntervals(minutes ...int) DialogOption {
	return func(d *Dialog) {
		if len(minutes) > 0 {
			d.intervals = minutes
		}
	}
}

// Dialog is the conversation state machine. Advance is its only entry point; it never mutates
// the state it is given and never touches the chat directly.
type Dialog struct {
	geocoder  Geocoder
	transit   TransitGateway
	profiles  ProfileStore
	now       func() time.Time
	newID     func() string
	intervals []int
}

// NewDialog creates a Dialog backed by the given collaborators.
func NewDialog(geocoder Geocoder, transit TransitGateway, profiles ProfileStore, opts ...DialogOption) *Dialog {
	d := &Dialog{
		geocoder:  geocoder,
		transit:   transit,
		profiles:  profiles,
		now:       time.Now,
		newID:     uuid.NewString,
		intervals: []int{1, 2, 3, 5},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Advance applies ev to state and returns the next state with the effects to carry out.
// Upstream failures leave the state unchanged.
func (d *Dialog) Advance(ctx context.Context, state models.DialogState, ev Event) (models.DialogState, []Effect) {
	if state == nil {
		state = models.Idle{}
	}
	if ev.Kind == EventCommand {
		return d.onCommand(ctx, state, ev)
	}

	switch s := state.(type) {
	case models.Idle:
		if ev.Kind == EventSelection {
			return s, say(textExpired())
		}
		return s, say(textUnhandled())
	case models.AwaitingCity:
		return d.onCity(s, ev)
	case models.AwaitingAddress:
		return d.onAddress(ctx, s, ev)
	case models.AwaitingStation:
		return d.onStation(ctx, s, ev)
	case models.AwaitingLine:
		return d.onLine(s, ev)
	case models.AwaitingInterval:
		return d.onInterval(s, ev)
	case models.Tracking:
		return d.onTracking(s, ev)
	}
	return state, say(textUnhandled())
}

func (d *Dialog) onCommand(ctx context.Context, state models.DialogState, ev Event) (models.DialogState, []Effect) {
	switch ev.Command {
	case constant.COMMAND_HELP:
		return state, say(helpText)
	case constant.COMMAND_CANCEL:
		return models.Idle{}, []Effect{
			StopTrackingEffect{UserID: ev.UserID},
			SendEffect{Message: models.OutgoingMessage{Text: textCancelled()}},
		}
	case constant.COMMAND_START:
		if state.Kind() == models.StateTracking {
			return state, say(textTrackingActive())
		}
		return d.start(ctx, state, ev)
	}
	return state, say(textUnhandled())
}

func (d *Dialog) start(ctx context.Context, state models.DialogState, ev Event) (models.DialogState, []Effect) {
	log := logrus.WithFields(logrus.Fields{"userID": ev.UserID, "chatID": ev.ChatID})

	profile, ok, err := d.profiles.Get(ctx, ev.UserID)
	if err != nil {
		log.WithError(err).Warn("Failed to load user profile, asking for the city")
		ok = false
	}
	if !ok {
		return models.AwaitingCity{}, say(textAskCity())
	}

	stations, err := d.transit.NearbyStations(ctx, profile.Location)
	if err != nil {
		log.WithError(err).Error("Nearby stations lookup failed")
		return state, say(textUpstreamFailure())
	}
	if len(stations) == 0 {
		return models.Idle{}, say(textNoStations())
	}
	return models.AwaitingStation{
		City:     profile.City,
		Address:  profile.Address,
		Stations: stations,
	}, []Effect{SendEffect{Message: stationPrompt(profile.Address, profile.City, true, stations)}}
}

func stationPrompt(address, city string, known bool, stations []models.Station) models.OutgoingMessage {
	options := make([]string, 0, len(stations)+1)
	for _, st := range stations {
		options = append(options, st.Name)
	}
	options = append(options, constant.BUTTON_TEXT_CHANGE_ADDRESS)
	return models.OutgoingMessage{
		Text:    textStations(address, city, known),
		Options: options,
		Columns: 2,
	}
}

func (d *Dialog) onCity(s models.AwaitingCity, ev Event) (models.DialogState, []Effect) {
	city := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || city == "" {
		return s, say(textAskCityAgain())
	}
	return models.AwaitingAddress{City: city}, say(textAskAddress(city))
}

func (d *Dialog) onAddress(ctx context.Context, s models.AwaitingAddress, ev Event) (models.DialogState, []Effect) {
	log := logrus.WithFields(logrus.Fields{"userID": ev.UserID, "chatID": ev.ChatID})

	var (
		address string
		loc     models.Location
		err     error
	)
	switch ev.Kind {
	case EventLocation:
		loc = ev.Location
		address, err = d.geocoder.ReverseGeocode(ctx, loc)
		if err != nil {
			log.WithError(err).Error("Reverse geocoding failed")
			return s, say(textUpstreamFailure())
		}
	case EventText:
		address = strings.TrimSpace(ev.Text)
		if address == "" {
			return s, say(textAskAddressAgain())
		}
		loc, err = d.geocoder.Geocode(ctx, address, s.City)
		if errors.Is(err, models.ErrAddressNotFound) {
			return s, say(textAddressNotFound())
		}
		if err != nil {
			log.WithError(err).Error("Geocoding failed")
			return s, say(textUpstreamFailure())
		}
	default:
		return s, say(textAskAddressAgain())
	}

	stations, err := d.transit.NearbyStations(ctx, loc)
	if err != nil {
		log.WithError(err).Error("Nearby stations lookup failed")
		return s, say(textUpstreamFailure())
	}

	profile := models.UserProfile{ID: ev.UserID, City: s.City, Address: address, Location: loc}
	if err = d.profiles.Put(ctx, profile); err != nil {
		log.WithError(err).Error("Failed to store user profile")
	}

	if len(stations) == 0 {
		return models.Idle{}, say(textNoStations())
	}
	return models.AwaitingStation{
		City:     s.City,
		Address:  address,
		Stations: stations,
	}, []Effect{SendEffect{Message: stationPrompt(address, s.City, false, stations)}}
}

// matchName resolves a reply against the names of items. An exact name wins; otherwise the reply
// must be the prefix of exactly one name, which covers names truncated to fit callback data.
// n is the number of matches: 0 for none, above 1 when the reply is ambiguous.
func matchName[T any](items []T, name func(T) string, choice string) (match T, n int) {
	if choice == "" {
		return match, 0
	}
	for _, it := range items {
		if name(it) == choice {
			return it, 1
		}
	}
	for _, it := range items {
		if strings.HasPrefix(name(it), choice) {
			if n == 0 {
				match = it
			}
			n++
		}
	}
	if n > 1 {
		var zero T
		return zero, n
	}
	return match, n
}

func matchStation(stations []models.Station, choice string) (models.Station, error) {
	st, n := matchName(stations, func(s models.Station) string { return s.Name }, choice)
	switch {
	case n == 0:
		return models.Station{}, ErrUnknownStation
	case n > 1:
		return models.Station{}, ErrAmbiguousStation
	}
	return st, nil
}

func (d *Dialog) onStation(ctx context.Context, s models.AwaitingStation, ev Event) (models.DialogState, []Effect) {
	if ev.Kind != EventSelection && ev.Kind != EventText {
		return s, say(textUnhandled())
	}
	choice := strings.TrimSpace(ev.Text)

	if strings.HasPrefix(choice, constant.BUTTON_PREFIX_NAVIGATION) {
		next := models.AwaitingAddress{City: s.City}
		if ev.Kind == EventSelection {
			return next, []Effect{EditEffect{MessageID: ev.MessageID, Message: models.OutgoingMessage{Text: textChangeAddress()}}}
		}
		return next, say(textChangeAddress())
	}

	station, err := matchStation(s.Stations, choice)
	switch {
	case errors.Is(err, ErrAmbiguousStation):
		return s, say(textAmbiguousStation())
	case err != nil && ev.Kind == EventSelection:
		return models.Idle{}, say(textExpired())
	case err != nil:
		return s, say(textUnhandled())
	}

	deps, err := d.transit.Departures(ctx, station.ID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"userID":    ev.UserID,
			"stationID": station.ID,
		}).Error("Departures lookup failed")
		return s, say(textUpstreamFailure())
	}

	var effects []Effect
	if ev.Kind == EventSelection {
		effects = append(effects, ClearButtonsEffect{MessageID: ev.MessageID})
	}
	if len(deps) == 0 {
		return models.Idle{}, append(effects, SendEffect{Message: models.OutgoingMessage{Text: textNoDepartures()}})
	}

	lines := uniqueLines(deps)
	keys := make([]string, 0, len(lines))
	for _, l := range lines {
		keys = append(keys, l.Key())
	}
	effects = append(effects,
		SendEffect{Message: models.OutgoingMessage{Text: textDepartures(station.Name, deps)}},
		SendEffect{Message: models.OutgoingMessage{Text: textSelectLine(), Options: keys, Columns: 2}},
	)
	return models.AwaitingLine{
		City:      s.City,
		Address:   s.Address,
		Stations:  s.Stations,
		Station:   station.Name,
		StationID: station.ID,
		Lines:     lines,
	}, effects
}

func uniqueLines(deps []models.Departure) []models.Line {
	seen := make(map[models.Line]struct{}, len(deps))
	lines := make([]models.Line, 0, len(deps))
	for _, dep := range deps {
		if _, ok := seen[dep.Line]; ok {
			continue
		}
		seen[dep.Line] = struct{}{}
		lines = append(lines, dep.Line)
	}
	return lines
}

// findLine resolves a line reply by its "{name} ({direction})" key.
func findLine(lines []models.Line, key string) (models.Line, error) {
	l, n := matchName(lines, models.Line.Key, key)
	switch {
	case n == 0:
		return models.Line{}, ErrUnknownLine
	case n > 1:
		return models.Line{}, ErrAmbiguousLine
	}
	return l, nil
}

func (d *Dialog) onLine(s models.AwaitingLine, ev Event) (models.DialogState, []Effect) {
	if ev.Kind != EventSelection && ev.Kind != EventText {
		return s, say(textUnhandled())
	}
	line, err := findLine(s.Lines, strings.TrimSpace(ev.Text))
	if errors.Is(err, ErrAmbiguousLine) {
		return s, say(textAmbiguousLine())
	}
	if err != nil {
		if ev.Kind == EventSelection {
			return models.Idle{}, say(textExpired())
		}
		return s, say(textUnhandled())
	}

	options := make([]string, 0, len(d.intervals))
	for _, m := range d.intervals {
		options = append(options, strconv.Itoa(m))
	}
	var effects []Effect
	if ev.Kind == EventSelection {
		effects = append(effects, DeleteEffect{MessageID: ev.MessageID})
	}
	effects = append(effects, SendEffect{Message: models.OutgoingMessage{
		Text:    textAskInterval(),
		Options: options,
		Columns: len(options),
	}})
	return models.AwaitingInterval{
		City:      s.City,
		Address:   s.Address,
		Stations:  s.Stations,
		Station:   s.Station,
		StationID: s.StationID,
		Line:      line,
	}, effects
}

func (d *Dialog) onInterval(s models.AwaitingInterval, ev Event) (models.DialogState, []Effect) {
	if ev.Kind != EventSelection && ev.Kind != EventText {
		return s, say(textUnhandled())
	}
	n, err := strconv.Atoi(strings.TrimSpace(ev.Text))
	if err != nil || n < 1 || n > maxIntervalMinutes {
		return s, say(textAskIntervalAgain())
	}

	session := models.TrackingSession{
		ID:              d.newID(),
		UserID:          ev.UserID,
		ChatID:          ev.ChatID,
		StationID:       s.StationID,
		StationName:     s.Station,
		Line:            s.Line,
		IntervalMinutes: n,
		StartedAt:       d.now(),
	}
	if ev.Kind == EventSelection {
		session.PromptMessageID = ev.MessageID
	}
	return models.Tracking{Station: s.Station, Line: s.Line}, []Effect{
		SendEffect{Message: models.OutgoingMessage{Text: textTimerStarted(n)}},
		StartTrackingEffect{Session: session},
	}
}

func (d *Dialog) onTracking(s models.Tracking, ev Event) (models.DialogState, []Effect) {
	if ev.Kind == EventSelection && ev.Text == constant.BUTTON_TEXT_CANCEL {
		return models.Idle{}, []Effect{
			StopTrackingEffect{UserID: ev.UserID},
			ClearButtonsEffect{MessageID: ev.MessageID},
			SendEffect{Message: models.OutgoingMessage{Text: textCancelled()}},
		}
	}
	return s, say(textUnhandled())
}
