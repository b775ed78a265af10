package sqlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		query  string
		want   string
	}{
		{
			name:   "postgres numbers placeholders",
			driver: "postgres",
			query:  "UPDATE drafts SET status = ? WHERE id = ? AND revision = ?",
			want:   "UPDATE drafts SET status = $1 WHERE id = $2 AND revision = $3",
		},
		{
			name:   "pgx numbers placeholders",
			driver: "pgx",
			query:  "SELECT * FROM draft_picks WHERE draft_id = ?",
			want:   "SELECT * FROM draft_picks WHERE draft_id = $1",
		},
		{
			name:   "quoted question marks untouched",
			driver: "postgres",
			query:  "SELECT '?' FROM drafts WHERE id = ?",
			want:   "SELECT '?' FROM drafts WHERE id = $1",
		},
		{
			name:   "sqlite unchanged",
			driver: "sqlite3",
			query:  "SELECT * FROM drafts WHERE id = ?",
			want:   "SELECT * FROM drafts WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.driver, tt.query))
		})
	}
}
