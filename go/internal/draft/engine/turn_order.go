package engine

import "github.com/robwizzie/FantasyFlicks/go/internal/models"

// Turn locates one overall pick within the draft.
type Turn struct {
	OverallPick      int
	Unit             int // round or category slot, 1-based
	Position         int // position within the unit, 0-based
	ParticipantIndex int // index into the participant order
}

// TurnFor maps a 1-based overall pick to its unit, position and participant
// index for n participants. Serpentine order reverses on even units.
func TurnFor(style models.TurnStyle, n, overallPick int) Turn {
	unit := (overallPick-1)/n + 1
	pos := (overallPick - 1) % n

	idx := pos
	if style == models.TurnStyleSerpentine && unit%2 == 0 {
		idx = n - 1 - pos
	}

	return Turn{
		OverallPick:      overallPick,
		Unit:             unit,
		Position:         pos,
		ParticipantIndex: idx,
	}
}

// PickerFor returns the participant who owns overallPick in d.
func PickerFor(d *models.Draft, overallPick int) string {
	t := TurnFor(d.Settings.TurnStyle, len(d.ParticipantOrder), overallPick)
	return d.ParticipantOrder[t.ParticipantIndex]
}

// CurrentPicker returns whose turn it is. ok is false unless the draft is in progress.
func CurrentPicker(d *models.Draft) (string, bool) {
	if d.Status != models.DraftStatusInProgress || d.CurrentOverallPick < 1 || d.CurrentOverallPick > d.TotalPicks() {
		return "", false
	}
	return PickerFor(d, d.CurrentOverallPick), true
}
