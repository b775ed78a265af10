package engine

import (
	"testing"

	"github.com/robwizzie/FantasyFlicks/go/internal/models"
	"github.com/stretchr/testify/assert"
)

func pickers(style models.TurnStyle, order []string, units int) []string {
	d := &models.Draft{
		Settings:         models.DraftSettings{TurnStyle: style, UnitsPerParticipant: units},
		ParticipantOrder: order,
	}
	out := make([]string, 0, d.TotalPicks())
	for p := 1; p <= d.TotalPicks(); p++ {
		out = append(out, PickerFor(d, p))
	}
	return out
}

func TestSerpentineOrder(t *testing.T) {
	got := pickers(models.TurnStyleSerpentine, []string{"A", "B", "C", "D"}, 3)
	assert.Equal(t, []string{"A", "B", "C", "D", "D", "C", "B", "A", "A", "B", "C", "D"}, got)
}

func TestLinearOrder(t *testing.T) {
	got := pickers(models.TurnStyleLinear, []string{"A", "B", "C"}, 2)
	assert.Equal(t, []string{"A", "B", "C", "A", "B", "C"}, got)
}

func TestTurnFor(t *testing.T) {
	tests := []struct {
		name  string
		style models.TurnStyle
		n     int
		pick  int
		want  Turn
	}{
		{"first pick", models.TurnStyleSerpentine, 4, 1, Turn{OverallPick: 1, Unit: 1, Position: 0, ParticipantIndex: 0}},
		{"end of first unit", models.TurnStyleSerpentine, 4, 4, Turn{OverallPick: 4, Unit: 1, Position: 3, ParticipantIndex: 3}},
		{"serpentine turnaround", models.TurnStyleSerpentine, 4, 5, Turn{OverallPick: 5, Unit: 2, Position: 0, ParticipantIndex: 3}},
		{"serpentine pick six", models.TurnStyleSerpentine, 4, 6, Turn{OverallPick: 6, Unit: 2, Position: 1, ParticipantIndex: 2}},
		{"linear second unit", models.TurnStyleLinear, 4, 6, Turn{OverallPick: 6, Unit: 2, Position: 1, ParticipantIndex: 1}},
		{"two participants third unit", models.TurnStyleSerpentine, 2, 5, Turn{OverallPick: 5, Unit: 3, Position: 0, ParticipantIndex: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TurnFor(tt.style, tt.n, tt.pick))
		})
	}
}

func TestEveryParticipantGetsEqualTurns(t *testing.T) {
	order := []string{"A", "B", "C", "D", "E"}
	for _, style := range []models.TurnStyle{models.TurnStyleLinear, models.TurnStyleSerpentine} {
		counts := make(map[string]int)
		for _, p := range pickers(style, order, 7) {
			counts[p]++
		}
		for _, id := range order {
			assert.Equal(t, 7, counts[id], "style %s participant %s", style, id)
		}
	}
}

func TestCurrentPickerOnlyWhileInProgress(t *testing.T) {
	d := &models.Draft{
		Status:             models.DraftStatusPaused,
		Settings:           models.DraftSettings{TurnStyle: models.TurnStyleSerpentine, UnitsPerParticipant: 1},
		ParticipantOrder:   []string{"A", "B"},
		CurrentOverallPick: 2,
	}
	_, ok := CurrentPicker(d)
	assert.False(t, ok)

	d.Status = models.DraftStatusInProgress
	picker, ok := CurrentPicker(d)
	assert.True(t, ok)
	assert.Equal(t, "B", picker)

	d.CurrentOverallPick = 3
	_, ok = CurrentPicker(d)
	assert.False(t, ok)
}
