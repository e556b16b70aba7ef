package models

// StateKind enumerates the conversation states.
type StateKind int

const (
	StateIdle StateKind = iota
	StateAwaitingCity
	StateAwaitingAddress
	StateAwaitingStation
	StateAwaitingLine
	StateAwaitingInterval
	StateTracking
)

var stateNames = [...]string{
	StateIdle:             "idle",
	StateAwaitingCity:     "awaiting_city",
	StateAwaitingAddress:  "awaiting_address",
	StateAwaitingStation:  "awaiting_station",
	StateAwaitingLine:     "awaiting_line",
	StateAwaitingInterval: "awaiting_interval",
	StateTracking:         "tracking",
}

func (k StateKind) String() string {
	if k < 0 || int(k) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[k]
}

// DialogState is the per-chat conversation state. Each variant carries the selections made so far.
type DialogState interface {
	Kind() StateKind
}

type Idle struct{}

type AwaitingCity struct{}

type AwaitingAddress struct {
	City string
}

type AwaitingStation struct {
	City     string
	Address  string
	Stations []Station
}

type AwaitingLine struct {
	City      string
	Address   string
	Stations  []Station
	Station   string
	StationID string
	Lines     []Line // Lines offered as buttons
}

type AwaitingInterval struct {
	City      string
	Address   string
	Stations  []Station
	Station   string
	StationID string
	Line      Line
}

type Tracking struct {
	Station string
	Line    Line
}

func (Idle) Kind() StateKind             { return StateIdle }
func (AwaitingCity) Kind() StateKind     { return StateAwaitingCity }
func (AwaitingAddress) Kind() StateKind  { return StateAwaitingAddress }
func (AwaitingStation) Kind() StateKind  { return StateAwaitingStation }
func (AwaitingLine) Kind() StateKind     { return StateAwaitingLine }
func (AwaitingInterval) Kind() StateKind { return StateAwaitingInterval }
func (Tracking) Kind() StateKind         { return StateTracking }
