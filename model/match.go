package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// CompLevel is the competition tier of a match as reported by The Blue
// Alliance: qualification, eighth-final, quarterfinal, semifinal or final.
type CompLevel string

const (
	CompLevelQual         CompLevel = "qm"
	CompLevelEighthFinal  CompLevel = "ef"
	CompLevelQuarterfinal CompLevel = "qf"
	CompLevelSemifinal    CompLevel = "sf"
	CompLevelFinal        CompLevel = "f"
	CompLevelUnknown      CompLevel = ""
)

func ParseCompLevel(s string) CompLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "qm":
		return CompLevelQual
	case "ef":
		return CompLevelEighthFinal
	case "qf":
		return CompLevelQuarterfinal
	case "sf":
		return CompLevelSemifinal
	case "f":
		return CompLevelFinal
	default:
		return CompLevelUnknown
	}
}

// displayName returns the tier name used in match labels. Only the tiers
// that appear with a set number use it.
func (c CompLevel) displayName() string {
	switch c {
	case CompLevelEighthFinal:
		return "Eighthfinal"
	case CompLevelQuarterfinal:
		return "Quarterfinal"
	case CompLevelSemifinal:
		return "Semifinal"
	default:
		return ""
	}
}

// Alliance is one side of a match. Score is nil when the provider omitted
// it entirely; TBA reports unplayed matches with a score of -1, which is
// kept as-is.
type Alliance struct {
	TeamKeys []string `json:"team_keys"`
	Score    *int     `json:"score"`
}

// Match is a single match normalized from the provider payload. A match
// belongs to exactly one event and is superseded wholesale when the event
// is re-ingested.
type Match struct {
	Key            string          `json:"key"`
	EventKey       string          `json:"event_key"`
	CompLevel      CompLevel       `json:"comp_level"`
	SetNumber      int             `json:"set_number"`
	MatchNumber    int             `json:"match_number"`
	ScheduledTime  *time.Time      `json:"scheduled_time"`
	ActualTime     *time.Time      `json:"actual_time"`
	Red            Alliance        `json:"red"`
	Blue           Alliance        `json:"blue"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown,omitempty"`
}

// IsScored reports whether both alliances have a usable score: present and
// non-negative. TBA's -1 "not played" sentinel makes a match unscored.
func (m *Match) IsScored() bool {
	return scoreValid(m.Red.Score) && scoreValid(m.Blue.Score)
}

func scoreValid(s *int) bool {
	return s != nil && *s >= 0
}

// Label produces the human-readable name for a match, e.g.
// "Qualification Match #10", "Semifinal 2 – Match 3" or "Final – Match 1".
func (m *Match) Label() string {
	switch m.CompLevel {
	case CompLevelQual:
		return fmt.Sprintf("Qualification Match #%d", m.MatchNumber)
	case CompLevelEighthFinal, CompLevelQuarterfinal, CompLevelSemifinal:
		return fmt.Sprintf("%s %d – Match %d", m.CompLevel.displayName(), m.SetNumber, m.MatchNumber)
	case CompLevelFinal:
		return fmt.Sprintf("Final – Match %d", m.MatchNumber)
	default:
		if m.MatchNumber == 0 {
			return "Match #N/A"
		}
		return fmt.Sprintf("Match #%d", m.MatchNumber)
	}
}

// Summary is the one-line form used for local retrieval context, e.g.
// "Final – Match 1: Red(frc254, frc1678) 110 vs Blue(frc971, frc604) 95".
func (m *Match) Summary() string {
	return fmt.Sprintf("%s: Red(%s) %s vs Blue(%s) %s",
		m.Label(),
		strings.Join(m.Red.TeamKeys, ", "), formatScore(m.Red.Score),
		strings.Join(m.Blue.TeamKeys, ", "), formatScore(m.Blue.Score))
}

func formatScore(s *int) string {
	if s == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *s)
}
