package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pillbox/internal/config"
	"github.com/hpungsan/pillbox/internal/db"
)

// testSetup creates a temporary database and config for testing.
func testSetup(t *testing.T) (*sql.DB, *config.Config) {
	t.Helper()

	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true // Allow temp dirs in tests

	return database, cfg
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

// resultJSON unmarshals the text payload of a tool result.
func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty result content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type = %T, want TextContent", res.Content[0])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text.Text), &payload); err != nil {
		t.Fatalf("invalid result JSON: %v", err)
	}
	return payload
}

func TestHandleAdd_And_Due(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)
	ctx := context.Background()

	res, err := h.HandleAdd(ctx, makeRequest(map[string]any{
		"name":   "Aspirin",
		"dosage": "81mg",
		"times":  []any{"08:00", "20:00"},
	}))
	if err != nil {
		t.Fatalf("HandleAdd failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("HandleAdd returned error result: %+v", res)
	}
	added := resultJSON(t, res)
	id, _ := added["id"].(string)
	if id == "" {
		t.Fatal("no id in add result")
	}

	res, err = h.HandleDue(ctx, makeRequest(nil))
	if err != nil {
		t.Fatalf("HandleDue failed: %v", err)
	}
	due := resultJSON(t, res)
	groups, _ := due["groups"].([]any)
	if len(groups) != 2 {
		t.Errorf("groups = %d, want 2", len(groups))
	}
}

func TestHandleRecord_ErrorPayload(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)

	res, err := h.HandleRecord(context.Background(), makeRequest(map[string]any{
		"id":     "x",
		"time":   "08:00",
		"action": "snoozed",
	}))
	if err != nil {
		t.Fatalf("HandleRecord failed: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected error result")
	}
	payload := resultJSON(t, res)
	errObj, _ := payload["error"].(map[string]any)
	if errObj["code"] != "INVALID_REQUEST" {
		t.Errorf("code = %v, want INVALID_REQUEST", errObj["code"])
	}
}

func TestHandleToggle_RoundTrip(t *testing.T) {
	database, cfg := testSetup(t)
	h := NewHandlers(database, cfg)
	ctx := context.Background()

	res, err := h.HandleAdd(ctx, makeRequest(map[string]any{
		"name":  "Metformin",
		"times": []any{"08:00"},
	}))
	if err != nil || res.IsError {
		t.Fatalf("HandleAdd: %v, %+v", err, res)
	}
	id := resultJSON(t, res)["id"].(string)

	res, err = h.HandleToggle(ctx, makeRequest(map[string]any{"id": id, "time": "08:00"}))
	if err != nil || res.IsError {
		t.Fatalf("HandleToggle: %v, %+v", err, res)
	}
	if got := resultJSON(t, res)["status"]; got != "taken" {
		t.Errorf("status = %v, want taken", got)
	}

	res, err = h.HandleToggle(ctx, makeRequest(map[string]any{"id": id, "time": "08:00"}))
	if err != nil || res.IsError {
		t.Fatalf("HandleToggle: %v, %+v", err, res)
	}
	if got := resultJSON(t, res)["status"]; got != "unmarked" {
		t.Errorf("status = %v, want unmarked", got)
	}
}

func TestValidateDisabledTools(t *testing.T) {
	unknown := ValidateDisabledTools([]string{"med_add", "bogus_tool"})
	if len(unknown) != 1 || unknown[0] != "bogus_tool" {
		t.Errorf("unknown = %v", unknown)
	}
}

func TestGetTypeForTool(t *testing.T) {
	if got := GetTypeForTool("dose_toggle"); got != "dose" {
		t.Errorf("got %q, want dose", got)
	}
	if got := GetTypeForTool("plain"); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestNewServer_DisablesTools(t *testing.T) {
	database, cfg := testSetup(t)
	cfg.DisabledTools = []string{"data_import"}

	if s := NewServer(database, cfg, "test"); s == nil {
		t.Fatal("NewServer returned nil")
	}
}
