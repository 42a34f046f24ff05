package mcp

import (
	"context"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/haulboard/internal/domain/tracker"
)

const serverInstructions = `haulboard tracks heavy-cargo logistics: Projects → Trips, plus one wind-turbine tracking board per tenant.

Core concepts:
- Project: a shipping job (name, status, priority, location). Its total_pieces is always the sum of its trips' pieces.
- Trip: one truck run (trip number, destination, pieces, status pending|in-transit|delivered|delayed, driver, truck, trailer).
- Tracking board: a grid of rows, one per turbine component, with a fixed set of free-text columns. It always keeps at least one row.
- Session view: which screen a client is on (listing, creating, editing(project), viewing(project), tracking).

Default workflow:
1) Orient: list_projects or search_projects; get_project for trips and progress.
2) Trips: add_trip / update_trip / remove_trip for single edits, save_trips to replace the list.
3) Tracking board: tracker_columns for keys, tracker_list_rows / tracker_search to find rows, tracker_update_cell to edit. Edits persist as they happen.
4) Bulk data: tracker_export_csv and tracker_import_csv (import replaces every row).
5) Audit: get_recent_activity with scope=<project id> or scope=tracker.

Transport notes:
- HTTP: pass session id via Mcp-Session-Id header.
- Stdio: pass session id via _meta.session_id when supported; otherwise get_view, navigate and close_session accept session_id arguments.

Docs:
- haulboard://docs/index
- haulboard://docs/tracker-csv
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "haulboard://docs/index",
		Name:        "docs_index",
		Title:       "haulboard docs index",
		Description: "Entry point for agent-facing docs: tools by area and known limitations.",
		Content: `# haulboard: Agent Docs Index

## Tools by area

- Projects: ` + "`create_project`, `list_projects`, `get_project`, `update_project`, `delete_project`, `search_projects`, `get_project_progress`" + `
- Trips: ` + "`add_trip`, `update_trip`, `remove_trip`, `save_trips`, `export_trips_csv`" + `
- Tracking board: ` + "`tracker_list_rows`, `tracker_add_row`, `tracker_update_cell`, `tracker_delete_row`, `tracker_save`, `tracker_search`, `tracker_stats`, `tracker_export_csv`, `tracker_import_csv`, `tracker_columns`" + `
- Navigation: ` + "`get_view`, `navigate`, `close_session`" + `
- Audit: ` + "`get_recent_activity`" + `

## Rules worth knowing

- Trip edits recompute the project's ` + "`total_pieces`" + `; you never set it directly.
- Progress percent is delivered pieces over total pieces, rounded; 0 when there are no pieces.
- The tracking board never becomes empty. Deleting its last row fails with ` + "`CONSTRAINT_VIOLATION`" + `.
- Every board edit is written to the mirror slot as it happens; ` + "`tracker_save`" + ` forces a write and records it in the activity log.
- ` + "`navigate`" + ` with ` + "`edit`" + ` or ` + "`view`" + ` requires a ` + "`project_id`" + ` that exists.

## Docs

- ` + "`haulboard://docs/tracker-csv`" + ` covers the CSV format used by export and import.
`,
	},
	{
		URI:         "haulboard://docs/tracker-csv",
		Name:        "docs_tracker_csv",
		Title:       "Tracking board CSV format",
		Description: "Header line, quoting rules and the column list of tracking board CSV files.",
		Content:     trackerCSVDoc(),
	},
}

func trackerCSVDoc() string {
	var b strings.Builder
	b.WriteString(`# Tracking board CSV format

- First line is the header: one label per column, in the order below.
- Every field is wrapped in double quotes; a quote inside a field is doubled.
- Lines are separated by a single newline. Quoted fields may span lines.
- Import ignores the header line and blank rows, maps fields to columns by position and gives every row a fresh id.
- An unterminated quote fails the whole import with ` + "`MALFORMED_INPUT`" + `; the board is left unchanged.
- A leading UTF-8 byte-order mark is ignored.

## Columns

| key | label |
|---|---|
`)
	for _, col := range tracker.Columns() {
		b.WriteString("| `" + col.Key + "` | " + col.Label + " |\n")
	}
	return b.String()
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
