package tba

import (
	"encoding/json"
	"time"

	"github.com/DanielC11038/TempSlackBot/model"
)

// tbaMatch is the match record shape returned by The Blue Alliance v3 API.
// Fields we do not care about are simply not listed and dropped on decode.
type tbaMatch struct {
	Key            string          `json:"key"`
	EventKey       string          `json:"event_key"`
	CompLevel      string          `json:"comp_level"`
	SetNumber      int             `json:"set_number"`
	MatchNumber    int             `json:"match_number"`
	Time           int64           `json:"time"`
	ActualTime     int64           `json:"actual_time"`
	Alliances      *tbaAlliances   `json:"alliances"`
	ScoreBreakdown json.RawMessage `json:"score_breakdown"`
}

type tbaAlliances struct {
	Red  *tbaAlliance `json:"red"`
	Blue *tbaAlliance `json:"blue"`
}

type tbaAlliance struct {
	Score    *int     `json:"score"`
	TeamKeys []string `json:"team_keys"`
}

func (m *tbaMatch) toMatch(eventKey string) model.Match {
	out := model.Match{
		Key:            m.Key,
		EventKey:       eventKey,
		CompLevel:      model.ParseCompLevel(m.CompLevel),
		SetNumber:      m.SetNumber,
		MatchNumber:    m.MatchNumber,
		ScheduledTime:  parseUnixTime(m.Time),
		ActualTime:     parseUnixTime(m.ActualTime),
		ScoreBreakdown: normalizeBreakdown(m.ScoreBreakdown),
	}
	if m.EventKey != "" {
		out.EventKey = m.EventKey
	}
	if m.Alliances != nil {
		out.Red = toAlliance(m.Alliances.Red)
		out.Blue = toAlliance(m.Alliances.Blue)
	}
	return out
}

func toAlliance(a *tbaAlliance) model.Alliance {
	if a == nil {
		return model.Alliance{TeamKeys: []string{}}
	}
	keys := a.TeamKeys
	if keys == nil {
		keys = []string{}
	}
	return model.Alliance{TeamKeys: keys, Score: a.Score}
}

func normalizeBreakdown(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

func parseUnixTime(secs int64) *time.Time {
	if secs == 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
