package standings

import (
	"sort"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
)

// Scorer maps a selection to its score, e.g. box office or an oscar weight.
type Scorer func(selectionID string) float64

// Entry is one participant's line in the standings.
type Entry struct {
	ParticipantID string  `json:"participant_id"`
	Total         float64 `json:"total"`
	Picks         int     `json:"picks"`
	Rank          int     `json:"rank"`
	// RankDelta is the previous rank minus the current one; positive means the
	// participant moved up since the latest pick.
	RankDelta int `json:"rank_delta"`
}

// Compute ranks every participant by total score. Ties keep participant
// order. RankDelta compares against the standings of the same log without
// its latest pick, so the result depends on the pick log alone.
func Compute(order []string, picks []models.DraftPick, score Scorer) []Entry {
	sorted := append([]models.DraftPick(nil), picks...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OverallPick < sorted[j].OverallPick })

	current := rank(order, sorted, score)
	if len(sorted) == 0 {
		return current
	}
	previous := rank(order, sorted[:len(sorted)-1], score)
	return Diff(previous, current)
}

// Diff returns cur with RankDelta set against prev. Participants missing
// from prev get a zero delta.
func Diff(prev, cur []Entry) []Entry {
	before := make(map[string]int, len(prev))
	for _, e := range prev {
		before[e.ParticipantID] = e.Rank
	}

	out := make([]Entry, len(cur))
	for i, e := range cur {
		e.RankDelta = 0
		if r, ok := before[e.ParticipantID]; ok {
			e.RankDelta = r - e.Rank
		}
		out[i] = e
	}
	return out
}

func rank(order []string, picks []models.DraftPick, score Scorer) []Entry {
	position := make(map[string]int, len(order))
	entries := make([]Entry, 0, len(order))
	for _, id := range order {
		if _, dup := position[id]; dup {
			continue
		}
		position[id] = len(entries)
		entries = append(entries, Entry{ParticipantID: id})
	}

	// Sum in log order so float totals are reproducible.
	for _, p := range picks {
		idx, ok := position[p.ParticipantID]
		if !ok {
			idx = len(entries)
			position[p.ParticipantID] = idx
			entries = append(entries, Entry{ParticipantID: p.ParticipantID})
		}
		entries[idx].Total += score(p.SelectionID)
		entries[idx].Picks++
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return position[entries[i].ParticipantID] < position[entries[j].ParticipantID]
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
