package service

import (
	"context"
	"time"

	"github.com/DenisKhanov/TransitBot/internal/tg_bot/constant"
	"github.com/DenisKhanov/TransitBot/internal/tg_bot/models"
	"github.com/sirupsen/logrus"
)

// DepartureSource is the part of the transit gateway the tracker polls.
type DepartureSource interface {
	Departures(ctx context.Context, stationID string) ([]models.Departure, error)
}

// TimerFunc returns a channel that fires once after d and a function that stops the timer.
type TimerFunc func(d time.Duration) (<-chan time.Time, func() bool)

func realTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTimer replaces the timer used between ticks.
func WithTimer(f TimerFunc) TrackerOption {
	return func(t *Tracker) { t.timer = f }
}

// WithNotFoundAfter sets how many consecutive fetches must miss the tracked line before the
// session ends as not found. Values below 1 are ignored.
func WithNotFoundAfter(n int) TrackerOption {
	return func(t *Tracker) {
		if n >= 1 {
			t.notFoundAfter = n
		}
	}
}

// WithOnFinish registers a callback run after a session ends by itself (departed or not found).
// It is not called for cancelled sessions.
func WithOnFinish(f func(models.TrackingSession, Outcome)) TrackerOption {
	return func(t *Tracker) { t.onFinish = f }
}

// Tracker spawns and runs tracking sessions.
type Tracker struct {
	base          context.Context
	source        DepartureSource
	messenger     Messenger
	registry      *TaskRegistry
	timer         TimerFunc
	notFoundAfter int
	onFinish      func(models.TrackingSession, Outcome)
}

// NewTracker creates a Tracker. Sessions are children of base, so cancelling base stops them all.
func NewTracker(base context.Context, source DepartureSource, messenger Messenger, registry *TaskRegistry, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		base:          base,
		source:        source,
		messenger:     messenger,
		registry:      registry,
		timer:         realTimer,
		notFoundAfter: 2,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start registers the session in the task registry and runs it in its own goroutine.
func (t *Tracker) Start(s models.TrackingSession) *TaskHandle {
	ctx, cancel := context.WithCancel(t.base)
	h := newTaskHandle(s.ID, cancel)
	t.registry.Register(s.UserID, h)

	go func() {
		outcome := t.run(ctx, s)
		t.registry.Remove(s.UserID, h)
		cancel()
		h.finish(outcome)

		logrus.WithFields(logrus.Fields{
			"sessionID": s.ID,
			"userID":    s.UserID,
			"outcome":   outcome.String(),
		}).Info("Tracking session finished")

		if outcome != OutcomeCancelled && t.onFinish != nil {
			t.onFinish(s, outcome)
		}
	}()
	return h
}

// session is the mutable state owned by one running task.
type session struct {
	models.TrackingSession
	interval   int       // Current poll interval in minutes, never grows
	logicalNow time.Time // Advanced by interval on every tick
	misses     int       // Consecutive fetches without the tracked line
	progressID int       // Last progress message, 0 if none
	captionID  int       // Last position caption, 0 if none
	locationID int       // Last location marker, 0 if none
}

func minutes(n int) time.Duration {
	return time.Duration(n) * time.Minute
}

func (t *Tracker) run(ctx context.Context, s models.TrackingSession) Outcome {
	log := logrus.WithFields(logrus.Fields{
		"sessionID": s.ID,
		"userID":    s.UserID,
		"stationID": s.StationID,
		"line":      s.Line.Key(),
	})
	st := &session{
		TrackingSession: s,
		interval:        s.IntervalMinutes,
		logicalNow:      s.StartedAt.Add(-minutes(s.IntervalMinutes)),
		progressID:      s.PromptMessageID,
	}
	if st.interval < 1 {
		st.interval = 1
	}
	// A cancelled session leaves no live cancel button behind.
	defer func() {
		if ctx.Err() != nil {
			t.retract(st)
		}
	}()
	log.Infof("Tracking started with %d minute interval", st.interval)

	wait := time.Duration(0)
	for {
		if !t.sleep(ctx, wait) {
			return OutcomeCancelled
		}
		st.logicalNow = st.logicalNow.Add(minutes(st.interval))
		wait = minutes(st.interval)

		deps, err := t.source.Departures(ctx, st.StationID)
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
		if err != nil {
			log.WithError(err).Warn("Departures fetch failed, retrying on next tick")
			continue
		}

		dep, ok := findDeparture(deps, st.Line)
		if !ok {
			st.misses++
			if st.misses < t.notFoundAfter {
				log.Infof("Tracked line missing from feed (%d/%d)", st.misses, t.notFoundAfter)
				continue
			}
			t.finish(ctx, st, textLineGone(st.Line, st.StationName))
			return terminal(ctx, OutcomeNotFound)
		}
		st.misses = 0

		departAt := dep.EffectiveTime()
		remaining := departAt.Sub(st.logicalNow)
		mins := int(remaining / time.Minute)

		if st.interval > 1 && mins > 0 && mins < st.interval {
			log.Debugf("Shrinking interval from %d to %d minutes", st.interval, mins)
			st.interval = mins
			wait = minutes(st.interval)
		}

		if st.logicalNow.After(departAt) {
			t.finish(ctx, st, textDeparting(st.Line, st.StationName))
			return terminal(ctx, OutcomeDeparted)
		}

		if mins == 0 {
			st.interval = 1
			wait = minutes(st.interval)
		}

		t.publish(ctx, st, dep, mins)
		if ctx.Err() != nil {
			return OutcomeCancelled
		}
	}
}

// terminal reports o unless the session was cancelled while finishing.
func terminal(ctx context.Context, o Outcome) Outcome {
	if ctx.Err() != nil {
		return OutcomeCancelled
	}
	return o
}

// sleep waits for d and reports false if ctx was cancelled first.
func (t *Tracker) sleep(ctx context.Context, d time.Duration) bool {
	c, stop := t.timer(d)
	select {
	case <-ctx.Done():
		stop()
		return false
	case <-c:
		return ctx.Err() == nil
	}
}

func findDeparture(deps []models.Departure, line models.Line) (models.Departure, bool) {
	for _, d := range deps {
		if d.Line == line {
			return d, true
		}
	}
	return models.Departure{}, false
}

// retract deletes the previous tick's progress and location messages. It runs after cancellation
// too, so it does not look at the session context.
func (t *Tracker) retract(st *session) {
	for _, id := range []*int{&st.progressID, &st.captionID, &st.locationID} {
		if *id == 0 {
			continue
		}
		if err := t.messenger.Delete(st.ChatID, *id); err != nil {
			logrus.WithError(err).WithField("sessionID", st.ID).Warn("Failed to delete previous tracking message")
		}
		*id = 0
	}
}

// publish replaces the previous tick's messages with the current status.
func (t *Tracker) publish(ctx context.Context, st *session, dep models.Departure, mins int) {
	if ctx.Err() != nil {
		return
	}
	t.retract(st)

	if pos := dep.CurrentPosition; pos != nil {
		if ctx.Err() != nil {
			return
		}
		id, err := t.messenger.SendText(st.ChatID, models.OutgoingMessage{Text: textPositionCaption()})
		if err != nil {
			logrus.WithError(err).WithField("sessionID", st.ID).Error("Failed to send position caption")
		}
		st.captionID = id
		id, err = t.messenger.SendLocation(st.ChatID, *pos)
		if err != nil {
			logrus.WithError(err).WithField("sessionID", st.ID).Error("Failed to send vehicle location")
		}
		st.locationID = id
	}

	if ctx.Err() != nil {
		return
	}
	id, err := t.messenger.SendText(st.ChatID, models.OutgoingMessage{
		Text:    textProgress(st.Line, mins),
		Options: []string{constant.BUTTON_TEXT_CANCEL},
		Columns: 1,
	})
	if err != nil {
		logrus.WithError(err).WithField("sessionID", st.ID).Error("Failed to send tracking progress")
	}
	st.progressID = id
}

// finish retracts the last status and sends the terminal notice.
func (t *Tracker) finish(ctx context.Context, st *session, notice string) {
	if ctx.Err() != nil {
		return
	}
	t.retract(st)
	if _, err := t.messenger.SendText(st.ChatID, models.OutgoingMessage{Text: notice}); err != nil {
		logrus.WithError(err).WithField("sessionID", st.ID).Error("Failed to send terminal notice")
	}
}
