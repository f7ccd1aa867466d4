package mcp

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/errors"
	"github.com/hpungsan/pillbox/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// AddRequest represents the arguments for med_add.
type AddRequest struct {
	Name   string   `json:"name"`
	Dosage string   `json:"dosage,omitempty"`
	Times  []string `json:"times"`
	Notes  string   `json:"notes,omitempty"`
}

// UpdateRequest represents the arguments for med_update.
type UpdateRequest struct {
	ID     string    `json:"id"`
	Name   *string   `json:"name,omitempty"`
	Dosage *string   `json:"dosage,omitempty"`
	Times  *[]string `json:"times,omitempty"`
	Notes  *string   `json:"notes,omitempty"`
}

// IDRequest represents the arguments for tools addressing one medication.
type IDRequest struct {
	ID string `json:"id"`
}

// ListRequest represents the arguments for med_list.
type ListRequest struct {
	All bool `json:"all,omitempty"`
}

// SlotRequest represents the arguments for dose_status and dose_toggle.
type SlotRequest struct {
	ID   string `json:"id"`
	Time string `json:"time"`
}

// RecordRequest represents the arguments for dose_record.
type RecordRequest struct {
	ID     string `json:"id"`
	Time   string `json:"time"`
	Action string `json:"action"`
}

// ResolveRequest represents the arguments for dose_resolve.
type ResolveRequest struct {
	Time string `json:"time"`
}

// HistoryRequest represents the arguments for dose_history.
type HistoryRequest struct {
	MedicationID string `json:"medication_id,omitempty"`
	Day          string `json:"day,omitempty"`
	Action       string `json:"action,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// ExportRequest represents the arguments for data_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for data_import.
type ImportRequest struct {
	Path string `json:"path"`
}

// SettingsRequest represents the arguments for settings_set.
type SettingsRequest struct {
	Sound        *bool   `json:"sound,omitempty"`
	Vibration    *bool   `json:"vibration,omitempty"`
	HighContrast *bool   `json:"high_contrast,omitempty"`
	TextSize     *string `json:"text_size,omitempty"`
}

// Handler implementations

// HandleAdd handles the med_add tool call.
func (h *Handlers) HandleAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Add(h.db, ops.AddInput{
		Name:   input.Name,
		Dosage: input.Dosage,
		Times:  input.Times,
		Notes:  input.Notes,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the med_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Update(h.db, ops.UpdateInput{
		ID:     input.ID,
		Name:   input.Name,
		Dosage: input.Dosage,
		Times:  input.Times,
		Notes:  input.Notes,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRemove handles the med_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Remove(h.db, ops.RemoveInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandlePause handles the med_pause tool call.
func (h *Handlers) HandlePause(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.setActive(req, false)
}

// HandleResume handles the med_resume tool call.
func (h *Handlers) HandleResume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return h.setActive(req, true)
}

func (h *Handlers) setActive(req mcp.CallToolRequest, active bool) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetActive(h.db, ops.SetActiveInput{ID: input.ID, Active: active})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleList handles the med_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(h.db, ops.ListInput{All: input.All})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleDue handles the dose_due tool call.
func (h *Handlers) HandleDue(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.Due(h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleStatus handles the dose_status tool call.
func (h *Handlers) HandleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SlotRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Status(h.db, ops.StatusInput{ID: input.ID, Time: input.Time})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRecord handles the dose_record tool call.
func (h *Handlers) HandleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Record(h.db, ops.RecordInput{
		ID:     input.ID,
		Time:   input.Time,
		Action: input.Action,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleToggle handles the dose_toggle tool call.
func (h *Handlers) HandleToggle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SlotRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Toggle(h.db, ops.ToggleInput{ID: input.ID, Time: input.Time})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleResolve handles the dose_resolve tool call.
func (h *Handlers) HandleResolve(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ResolveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Resolve(h.db, ops.ResolveInput{Time: input.Time})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleHistory handles the dose_history tool call.
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.History(h.db, ops.HistoryInput{
		MedicationID: input.MedicationID,
		Day:          input.Day,
		Action:       input.Action,
		Limit:        input.Limit,
		Offset:       input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleExport handles the data_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.db, h.cfg, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the data_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.db, h.cfg, ops.ImportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettingsGet handles the settings_get tool call.
func (h *Handlers) HandleSettingsGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.GetSettings(h.db)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSettingsSet handles the settings_set tool call.
func (h *Handlers) HandleSettingsSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SettingsRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.SetSettings(h.db, ops.SetSettingsInput{
		Sound:        input.Sound,
		Vibration:    input.Vibration,
		HighContrast: input.HighContrast,
		TextSize:     input.TextSize,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// errorResult creates an MCP error result from a pillbox error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if pErr, ok := err.(*errors.PillboxError); ok {
		errorObj := map[string]any{
			"code":    pErr.Code,
			"message": pErr.Message,
			"status":  pErr.Status,
		}
		// Only include details for non-internal errors to avoid leaking
		// sensitive info like file paths or SQL errors
		if pErr.Code != errors.ErrInternal && pErr.Details != nil {
			errorObj["details"] = pErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
