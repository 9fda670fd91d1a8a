// Package model contains the scored-shot and session records handed to the
// renderer by the scoring collaborator.
package model

import (
	"fmt"
	"strings"
)

// Shot is one scored projectile hit. Coordinates are millimetres from the
// target centre, y pointing up.
type Shot struct {
	X            float64
	Y            float64
	Index        int     // 0-based assignment order
	Score        int     // ring number
	DecimalScore float64 // fractional score, e.g. 10.4
	Miss         bool
}

// SessionType distinguishes practice from match sessions.
type SessionType int

const (
	Match SessionType = iota
	Practice
	Final
)

var sessionTypeNames = map[SessionType]string{
	Match:    "match",
	Practice: "practice",
	Final:    "final",
}

func (t SessionType) String() string {
	if name, ok := sessionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("SessionType(%d)", int(t))
}

// ParseSessionType maps a case-insensitive name to a SessionType.
// The empty string is a match session.
func ParseSessionType(s string) (SessionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "match":
		return Match, nil
	case "practice":
		return Practice, nil
	case "final":
		return Final, nil
	}
	return Match, fmt.Errorf("unknown session type %q", s)
}

// Session is the subset of session state the renderer reads.
type Session struct {
	Type SessionType
	XBar float64 // group centroid, mm
	YBar float64
	RBar float64 // mean group radius, mm
}
