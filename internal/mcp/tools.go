package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions. Input schemas are generated from the request structs in
// handlers.go, so the wire schema cannot drift from what decode expects.

var addToolDef = mcp.NewTool("med_add",
	mcp.WithDescription("Add a medication with a name, optional dosage and notes, and one or more daily dose times (HH:MM, 24-hour). Dose times must be distinct."),
	mcp.WithInputSchema[AddRequest](),
)

var updateToolDef = mcp.NewTool("med_update",
	mcp.WithDescription("Update a medication's name, dosage, dose times, or notes. Omitted fields are left unchanged. Past history keeps the old name."),
	mcp.WithInputSchema[UpdateRequest](),
)

var removeToolDef = mcp.NewTool("med_remove",
	mcp.WithDescription("Remove a medication. Its reminder slots stop and it leaves the schedule; logged history is kept."),
	mcp.WithInputSchema[IDRequest](),
)

var pauseToolDef = mcp.NewTool("med_pause",
	mcp.WithDescription("Pause a medication: it drops out of the daily schedule and reminders until resumed. History is kept."),
	mcp.WithInputSchema[IDRequest](),
)

var resumeToolDef = mcp.NewTool("med_resume",
	mcp.WithDescription("Resume a paused medication."),
	mcp.WithInputSchema[IDRequest](),
)

var listToolDef = mcp.NewTool("med_list",
	mcp.WithDescription("List medications. By default only active ones; set all=true to include paused."),
	mcp.WithInputSchema[ListRequest](),
)

var dueToolDef = mcp.NewTool("dose_due",
	mcp.WithDescription("Today's schedule: active medications grouped by dose time, each slot carrying its taken/unmarked status for today."),
)

var statusToolDef = mcp.NewTool("dose_status",
	mcp.WithDescription("Whether a medication's dose at the given time is marked taken today."),
	mcp.WithInputSchema[SlotRequest](),
)

var recordToolDef = mcp.NewTool("dose_record",
	mcp.WithDescription("Record an action (taken, missed, skipped) for a dose slot today. Taken is once per slot per day; missed and skipped are annotations that never change the slot's status."),
	mcp.WithInputSchema[RecordRequest](),
)

var toggleToolDef = mcp.NewTool("dose_toggle",
	mcp.WithDescription("Flip a dose slot between taken and unmarked for today. Toggling off deletes the taken entry outright."),
	mcp.WithInputSchema[SlotRequest](),
)

var resolveToolDef = mcp.NewTool("dose_resolve",
	mcp.WithDescription("Mark every unmarked dose at a time group as taken for today. Already-taken slots are untouched."),
	mcp.WithInputSchema[ResolveRequest](),
)

var historyToolDef = mcp.NewTool("dose_history",
	mcp.WithDescription("Action log entries, most recent first, with optional medication/day/action filters and limit/offset pagination."),
	mcp.WithInputSchema[HistoryRequest](),
)

var exportToolDef = mcp.NewTool("data_export",
	mcp.WithDescription("Export all medications, the action log, and settings to a JSON file. Default path is ~/.pillbox/exports/pillbox-<timestamp>.json."),
	mcp.WithInputSchema[ExportRequest](),
)

var importToolDef = mcp.NewTool("data_import",
	mcp.WithDescription("Replace the entire dataset with an export file. The document is validated first; a malformed file changes nothing."),
	mcp.WithInputSchema[ImportRequest](),
)

var settingsGetToolDef = mcp.NewTool("settings_get",
	mcp.WithDescription("Read the stored preferences (sound, vibration, high contrast, text size)."),
)

var settingsSetToolDef = mcp.NewTool("settings_set",
	mcp.WithDescription("Update preferences. Omitted fields are left unchanged."),
	mcp.WithInputSchema[SettingsRequest](),
)
