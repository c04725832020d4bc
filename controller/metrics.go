package controller

import "github.com/DanielC11038/TempSlackBot/model"

// metricAccumulator collects one team's counters during a single pass over
// the match list.
type metricAccumulator struct {
	wins, losses, ties int
	gamesPlayed        int
	totalScore         int
}

// deriveMetrics computes each team's record from the normalized matches of
// one event. Teams appear in first-seen order.
//
// A match counts toward wins/losses/ties only when both alliance scores
// are present and non-negative. Every match a team is listed in counts
// toward gamesPlayed, and any present score value is accumulated, even a
// negative one on an unscored match. That asymmetry is long-standing
// observed behavior and is pinned by tests; see accumulate.
func deriveMetrics(matches []model.Match, eventKey string) []model.TeamMetric {
	accs := make(map[string]*metricAccumulator)
	order := make([]string, 0)

	get := func(teamKey string) *metricAccumulator {
		a, ok := accs[teamKey]
		if !ok {
			a = &metricAccumulator{}
			accs[teamKey] = a
			order = append(order, teamKey)
		}
		return a
	}

	for i := range matches {
		m := &matches[i]
		scored := m.IsScored()

		accumulate(get, m.Red)
		accumulate(get, m.Blue)

		if !scored {
			continue
		}

		red, blue := *m.Red.Score, *m.Blue.Score
		switch {
		case red > blue:
			bump(get, m.Red.TeamKeys, func(a *metricAccumulator) { a.wins++ })
			bump(get, m.Blue.TeamKeys, func(a *metricAccumulator) { a.losses++ })
		case blue > red:
			bump(get, m.Blue.TeamKeys, func(a *metricAccumulator) { a.wins++ })
			bump(get, m.Red.TeamKeys, func(a *metricAccumulator) { a.losses++ })
		default:
			bump(get, m.Red.TeamKeys, func(a *metricAccumulator) { a.ties++ })
			bump(get, m.Blue.TeamKeys, func(a *metricAccumulator) { a.ties++ })
		}
	}

	result := make([]model.TeamMetric, 0, len(order))
	for _, teamKey := range order {
		a := accs[teamKey]
		result = append(result, model.TeamMetric{
			TeamKey:     teamKey,
			EventKey:    eventKey,
			Wins:        a.wins,
			Losses:      a.losses,
			Ties:        a.ties,
			GamesPlayed: a.gamesPlayed,
			TotalScore:  a.totalScore,
		})
	}
	return result
}

// accumulate counts the appearance and score for one alliance regardless
// of whether the match was scored. A present-but-negative score still adds
// to totalScore here, mirroring the scored path.
func accumulate(get func(string) *metricAccumulator, alliance model.Alliance) {
	for _, teamKey := range alliance.TeamKeys {
		a := get(teamKey)
		a.gamesPlayed++
		if alliance.Score != nil {
			a.totalScore += *alliance.Score
		}
	}
}

func bump(get func(string) *metricAccumulator, teamKeys []string, f func(*metricAccumulator)) {
	for _, teamKey := range teamKeys {
		f(get(teamKey))
	}
}
