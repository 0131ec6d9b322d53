// Package hrtools implements the HR lookup tools exposed to the agent
// runtime: assignment id lookup, timeoff schedule lookup, and direct
// reports lookup. All three operate on static in-memory sample data and
// are fully deterministic.
package hrtools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/haasonsaas/hr-agent/internal/agent"
)

// dateLayout is the calendar-date pattern required for timeoff range arguments.
const dateLayout = "2006-01-02"

// assignmentIDs maps known usernames to their fixed assignment ids.
var assignmentIDs = map[string]string{
	"nwaters": "15778303",
	"johndoe": "15338303",
}

// timeoffSchedules maps assignment ids to their timeoff dates (YYYYMMDD).
// Unknown ids resolve to an empty list.
var timeoffSchedules = map[string][]string{
	"15338303": {"20250411", "20250311", "20250101"},
	"15778303": {"20250105"},
}

// directReports is returned for every manager; the sample data has no real
// reporting structure.
var directReports = []string{"nwaters", "johndoe"}

// All returns the HR tool set for registration with a runtime binding.
func All() []agent.Tool {
	return []agent.Tool{
		&AssignmentIDTool{},
		&TimeoffScheduleTool{},
		&DirectReportsTool{},
	}
}

// AssignmentIDTool resolves a username to its assignment id.
type AssignmentIDTool struct{}

// Name returns the tool identifier.
func (t *AssignmentIDTool) Name() string { return "get_assignment_id" }

// Description returns the tool description shown to the LLM.
func (t *AssignmentIDTool) Description() string {
	return "Get the assignment id from username"
}

// Schema returns the JSON Schema for the tool parameters.
func (t *AssignmentIDTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "username": {"type": "string", "description": "Username to look up"}
  },
  "required": ["username"]
}`)
}

// Execute looks up the assignment id for the given username.
func (t *AssignmentIDTool) Execute(_ context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
	}

	id, ok := assignmentIDs[input.Username]
	if !ok {
		return &agent.ToolResult{Content: "not found"}, nil
	}
	return &agent.ToolResult{Content: id}, nil
}

// TimeoffScheduleTool returns the timeoff dates for an assignment id.
//
// The start and end dates are validated but do not filter the result: the
// sample table is a fixed lookup keyed by assignment id only.
type TimeoffScheduleTool struct{}

// Name returns the tool identifier.
func (t *TimeoffScheduleTool) Name() string { return "get_timeoff_schedule" }

// Description returns the tool description shown to the LLM.
func (t *TimeoffScheduleTool) Description() string {
	return "Get timeoff schedule for employee based on assignment id, start date and end date"
}

// Schema returns the JSON Schema for the tool parameters.
func (t *TimeoffScheduleTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "assignment_id": {"type": "string", "description": "Employee assignment id"},
    "start_date": {"type": "string", "description": "Range start, YYYY-MM-DD"},
    "end_date": {"type": "string", "description": "Range end, YYYY-MM-DD"}
  },
  "required": ["assignment_id", "start_date", "end_date"]
}`)
}

// Execute validates the date range and returns the timeoff dates for the
// assignment id as a JSON array of YYYYMMDD strings.
func (t *TimeoffScheduleTool) Execute(_ context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		AssignmentID string `json:"assignment_id"`
		StartDate    string `json:"start_date"`
		EndDate      string `json:"end_date"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
	}

	if !validDate(input.StartDate) {
		return &agent.ToolResult{
			Content: fmt.Sprintf("Incorrect date format %s, should be YYYY-MM-DD", input.StartDate),
			IsError: true,
		}, nil
	}
	if !validDate(input.EndDate) {
		return &agent.ToolResult{
			Content: fmt.Sprintf("Incorrect date format %s, should be YYYY-MM-DD", input.EndDate),
			IsError: true,
		}, nil
	}

	dates := timeoffSchedules[input.AssignmentID]
	if dates == nil {
		dates = []string{}
	}
	payload, err := json.Marshal(dates)
	if err != nil {
		return nil, fmt.Errorf("encode timeoff schedule: %w", err)
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// DirectReportsTool returns the direct reports for a manager. The sample
// data returns the same two usernames regardless of input.
type DirectReportsTool struct{}

// Name returns the tool identifier.
func (t *DirectReportsTool) Name() string { return "get_direct_reports" }

// Description returns the tool description shown to the LLM.
func (t *DirectReportsTool) Description() string {
	return "Get direct reports for a given username"
}

// Schema returns the JSON Schema for the tool parameters.
func (t *DirectReportsTool) Schema() json.RawMessage {
	return json.RawMessage(`{
  "type": "object",
  "properties": {
    "username": {"type": "string", "description": "Manager username"}
  },
  "required": ["username"]
}`)
}

// Execute returns the fixed direct-reports list.
func (t *DirectReportsTool) Execute(_ context.Context, params json.RawMessage) (*agent.ToolResult, error) {
	var input struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return &agent.ToolResult{Content: fmt.Sprintf("invalid params: %v", err), IsError: true}, nil
	}

	payload, err := json.Marshal(directReports)
	if err != nil {
		return nil, fmt.Errorf("encode direct reports: %w", err)
	}
	return &agent.ToolResult{Content: string(payload)}, nil
}

// validDate reports whether s is a parseable calendar date in YYYY-MM-DD form.
func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
