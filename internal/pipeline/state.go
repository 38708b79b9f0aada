// Package pipeline drives a summarization run through its stages: identifier
// extraction, description fetch, and summary fetch.
package pipeline

import (
	"fmt"
)

// State is the stage a run is in. Exactly one state holds at any instant.
type State int

const (
	Idle State = iota
	Extracting
	FetchingDescription
	DescriptionReady
	FetchingSummary
	SummaryReady
	Failed
)

var stateNames = map[State]string{
	Idle:                "idle",
	Extracting:          "extracting",
	FetchingDescription: "fetching_description",
	DescriptionReady:    "description_ready",
	FetchingSummary:     "fetching_summary",
	SummaryReady:        "summary_ready",
	Failed:              "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText renders the state name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Loading reports whether an extraction or an external call is in progress.
func (s State) Loading() bool {
	switch s {
	case Extracting, FetchingDescription, FetchingSummary:
		return true
	}
	return false
}

// Terminal reports whether the run has finished.
func (s State) Terminal() bool {
	return s == SummaryReady || s == Failed
}

// trigger is an input to the transition function.
type trigger int

const (
	trigReset trigger = iota
	trigSubmit
	trigExtracted
	trigDescription
	trigConfirm
	trigSummary
	trigFail
)

var triggerNames = map[trigger]string{
	trigReset:       "reset",
	trigSubmit:      "submit",
	trigExtracted:   "extracted",
	trigDescription: "description_received",
	trigConfirm:     "confirm",
	trigSummary:     "summary_received",
	trigFail:        "fail",
}

func (t trigger) String() string {
	if name, ok := triggerNames[t]; ok {
		return name
	}
	return fmt.Sprintf("trigger(%d)", int(t))
}

// TransitionError reports an input the current state does not accept.
type TransitionError struct {
	From    State
	Trigger string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s on %s", e.From, e.Trigger)
}

// next is the only place state edges are defined.
func next(from State, t trigger) (State, error) {
	if t == trigReset {
		return Idle, nil
	}

	switch from {
	case Idle:
		if t == trigSubmit {
			return Extracting, nil
		}
	case Extracting:
		switch t {
		case trigExtracted:
			return FetchingDescription, nil
		case trigFail:
			return Failed, nil
		}
	case FetchingDescription:
		switch t {
		case trigDescription:
			return DescriptionReady, nil
		case trigFail:
			return Failed, nil
		}
	case DescriptionReady:
		switch t {
		case trigConfirm:
			return FetchingSummary, nil
		case trigFail:
			return Failed, nil
		}
	case FetchingSummary:
		switch t {
		case trigSummary:
			return SummaryReady, nil
		case trigFail:
			return Failed, nil
		}
	}
	return from, &TransitionError{From: from, Trigger: t.String()}
}
