package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rshade/backoffice/internal/scanitems"
)

// Column widths for the item table.
const (
	colIDWidth      = 26
	colCodeWidth    = 20
	colLabelWidth   = 24
	colFolderWidth  = 16
	colUpdatedWidth = 16
	colCountWidth   = 8
	updatedLayout   = "2006-01-02 15:04"
)

// ItemColumns returns the column set for scan-item tables.
func ItemColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: colIDWidth},
		{Title: "Code", Width: colCodeWidth},
		{Title: "Label", Width: colLabelWidth},
		{Title: "Folder", Width: colFolderWidth},
		{Title: "Updated", Width: colUpdatedWidth},
	}
}

// ItemRows converts items to table rows. folderNames maps folder IDs to display names.
func ItemRows(items []scanitems.Item, folderNames map[string]string) []table.Row {
	rows := make([]table.Row, 0, len(items))
	for _, it := range items {
		folder := "-"
		if it.FolderID != "" {
			folder = folderNames[it.FolderID]
			if folder == "" {
				folder = it.FolderID
			}
		}
		rows = append(rows, table.Row{
			it.ID,
			it.Code,
			it.Label,
			folder,
			it.UpdatedAt.Local().Format(updatedLayout),
		})
	}
	return rows
}

// RenderItemsTable renders items as a static, styled table.
func RenderItemsTable(items []scanitems.Item, folderNames map[string]string) string {
	if len(items) == 0 {
		return MutedStyle.Render("No scan items found.")
	}

	return renderStatic(ItemColumns(), ItemRows(items, folderNames))
}

// FolderColumns returns the column set for folder tables.
func FolderColumns() []table.Column {
	return []table.Column{
		{Title: "ID", Width: colIDWidth},
		{Title: "Name", Width: colLabelWidth},
		{Title: "Items", Width: colCountWidth},
	}
}

// FolderRows converts folders to table rows with their item counts.
func FolderRows(folders []scanitems.Folder, counts map[string]int) []table.Row {
	rows := make([]table.Row, 0, len(folders))
	for _, f := range folders {
		rows = append(rows, table.Row{f.ID, f.Name, printer.Sprintf("%d", counts[f.ID])})
	}
	return rows
}

// RenderFoldersTable renders folders and their item counts as a static table.
func RenderFoldersTable(folders []scanitems.Folder, counts map[string]int) string {
	if len(folders) == 0 {
		return MutedStyle.Render("No folders found.")
	}
	return renderStatic(FolderColumns(), FolderRows(folders, counts))
}

func renderStatic(columns []table.Column, rows []table.Row) string {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(len(rows)+2),
		table.WithFocused(false),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorBorder).
		BorderBottom(true).
		Bold(true).
		Foreground(ColorHeader)
	// No row is selected in a static render.
	styles.Selected = lipgloss.NewStyle()
	t.SetStyles(styles)

	return t.View()
}
