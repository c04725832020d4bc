package model

import "fmt"

// TeamMetric holds the per-team record derived from one event's matches.
// It is recomputed in full on every ingestion.
type TeamMetric struct {
	TeamKey     string `json:"team_key"`
	EventKey    string `json:"event_key"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Ties        int    `json:"ties"`
	GamesPlayed int    `json:"games_played"`
	TotalScore  int    `json:"total_score"`
}

// AvgScore returns the average alliance score across every match the team
// appeared in. The second return is false when the team played no games,
// in which case the average is undefined rather than zero.
func (m *TeamMetric) AvgScore() (float64, bool) {
	if m.GamesPlayed == 0 {
		return 0, false
	}
	return float64(m.TotalScore) / float64(m.GamesPlayed), true
}

// StatLine formats the metric the way it is presented to the model, e.g.
// "Team frc1234: W/L/T = 3/1/0, Avg Alliance Score = 95.5".
func (m *TeamMetric) StatLine() string {
	avg := "N/A"
	if v, ok := m.AvgScore(); ok {
		avg = fmt.Sprintf("%.1f", v)
	}
	return fmt.Sprintf("Team %s: W/L/T = %d/%d/%d, Avg Alliance Score = %s",
		m.TeamKey, m.Wins, m.Losses, m.Ties, avg)
}
