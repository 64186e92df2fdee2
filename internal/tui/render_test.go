package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/backoffice/internal/batch"
	"github.com/rshade/backoffice/internal/scanitems"
)

func TestRenderSummary(t *testing.T) {
	tests := []struct {
		name string
		p    batch.Progress
		want string
	}{
		{
			name: "running has no summary",
			p:    batch.Progress{IsOpen: true, Total: 3, Current: 1},
			want: "",
		},
		{
			name: "empty",
			p:    batch.Progress{IsOpen: true, IsCompleted: true},
			want: "Nothing to do: no items selected",
		},
		{
			name: "all succeeded",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Total: 5, Current: 5},
			want: "All 5 items succeeded",
		},
		{
			name: "single success",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Total: 1, Current: 1},
			want: "1 item succeeded",
		},
		{
			name: "large counts are grouped",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Total: 1200, Current: 1200},
			want: "All 1,200 items succeeded",
		},
		{
			name: "partial",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Total: 5, Current: 5, Errors: 2},
			want: "3 of 5 succeeded, 2 failed",
		},
		{
			name: "all failed",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Total: 2, Current: 2, Errors: 2},
			want: "All 2 items failed",
		},
		{
			name: "cancelled",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Cancelled: true, Total: 5, Current: 2},
			want: "Cancelled after 2 of 5",
		},
		{
			name: "cancelled with failures",
			p:    batch.Progress{IsOpen: true, IsCompleted: true, Cancelled: true, Total: 5, Current: 2, Errors: 1},
			want: "Cancelled after 2 of 5 (1 failed)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderSummary(tt.p))
		})
	}
}

func TestRenderProgressLine(t *testing.T) {
	tests := []struct {
		name string
		p    batch.Progress
		want string
	}{
		{
			name: "start",
			p:    batch.Progress{IsOpen: true, Title: "Moving", Total: 4, CurrentItem: "QR-1"},
			want: "Moving: 0/4 (0%), current: QR-1",
		},
		{
			name: "no title",
			p:    batch.Progress{IsOpen: true, Total: 3, Current: 1},
			want: "1/3 (33%)",
		},
		{
			name: "with failures",
			p:    batch.Progress{IsOpen: true, Title: "Deleting", Total: 4, Current: 3, Errors: 2, CurrentItem: "QR-4"},
			want: "Deleting: 3/4 (75%), 2 failed, current: QR-4",
		},
		{
			name: "completed",
			p: batch.Progress{
				IsOpen: true, Title: "Moving", Total: 2, Current: 2, IsCompleted: true,
				Elapsed: 1500 * time.Millisecond,
			},
			want: "Moving: All 2 items succeeded in 1.5s",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenderProgressLine(tt.p))
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "250ms", formatElapsed(250*time.Millisecond+300*time.Microsecond))
	assert.Equal(t, "12.3s", formatElapsed(12340*time.Millisecond))
	assert.Equal(t, "2m5s", formatElapsed(2*time.Minute+5400*time.Millisecond))
}

func TestRenderItemsTable(t *testing.T) {
	assert.Contains(t, RenderItemsTable(nil, nil), "No scan items found.")

	updated := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	items := []scanitems.Item{
		{ID: "01J0000000000000000000000A", Code: "QR-1", Label: "Lobby", FolderID: "f1", UpdatedAt: updated},
		{ID: "01J0000000000000000000000B", Code: "QR-2", UpdatedAt: updated},
		{ID: "01J0000000000000000000000C", Code: "QR-3", FolderID: "gone", UpdatedAt: updated},
	}

	rows := ItemRows(items, map[string]string{"f1": "Posters"})
	assert.Equal(t, "Posters", rows[0][3])
	assert.Equal(t, "-", rows[1][3])
	assert.Equal(t, "gone", rows[2][3], "unknown folder falls back to its ID")

	out := RenderItemsTable(items, map[string]string{"f1": "Posters"})
	for _, want := range []string{"Code", "QR-1", "QR-2", "QR-3", "Lobby", "Posters"} {
		assert.Contains(t, out, want)
	}
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), len(items))
}

func TestRenderFoldersTable(t *testing.T) {
	assert.Contains(t, RenderFoldersTable(nil, nil), "No folders found.")

	folders := []scanitems.Folder{
		{ID: "f1", Name: "Posters"},
		{ID: "f2", Name: "Stickers"},
	}
	counts := map[string]int{"f1": 1500}

	rows := FolderRows(folders, counts)
	assert.Equal(t, "1,500", rows[0][2])
	assert.Equal(t, "0", rows[1][2])

	out := RenderFoldersTable(folders, counts)
	for _, want := range []string{"Name", "Items", "Posters", "Stickers", "1,500"} {
		assert.Contains(t, out, want)
	}
}
