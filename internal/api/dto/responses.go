package dto

import (
	"encoding/json"
	"time"

	"github.com/eshaffer321/backoffice-recon/internal/domain/reconcile"
	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
	"github.com/eshaffer321/backoffice-recon/internal/domain/validator"
	"github.com/eshaffer321/backoffice-recon/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`  // "ok" or "degraded"
	Storage   string `json:"storage"` // "ok", "disabled" or "unavailable"
	Timestamp string `json:"timestamp"`
}

// RunResponse represents a reconciliation run in API responses.
type RunResponse struct {
	ID           string          `json:"id"`
	Mode         string          `json:"mode"`
	LeftName     string          `json:"left_name"`
	RightName    string          `json:"right_name"`
	Status       string          `json:"status"`
	Error        string          `json:"error,omitempty"`
	StartedAt    string          `json:"started_at"`
	CompletedAt  string          `json:"completed_at,omitempty"`
	TotalRecords int             `json:"total_records"`
	Pairs        int             `json:"pairs"`
	Invalid      int             `json:"invalid"`
	Summary      json.RawMessage `json:"summary,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// RecordResponse represents a classified record in API responses.
type RecordResponse struct {
	ID                 string  `json:"id"`
	Row                int     `json:"row"`
	Date               string  `json:"date"`
	Narration          string  `json:"narration"`
	Reference          string  `json:"reference,omitempty"`
	OriginalAmountText string  `json:"original_amount_text"`
	SignedAmount       float64 `json:"signed_amount"`
	IsNegative         bool    `json:"is_negative"`
	First15            string  `json:"first15"`
	Last15             string  `json:"last15"`
	HelperKey1         string  `json:"helper_key1"`
	HelperKey2         string  `json:"helper_key2"`
	Side               string  `json:"side"`
	Status             string  `json:"status"`
	MatchedWith        string  `json:"matched_with,omitempty"`
	Remark             string  `json:"remark,omitempty"`
}

// RecordListResponse is returned when listing the records of a run.
type RecordListResponse struct {
	Records    []RecordResponse `json:"records"`
	TotalCount int              `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// InvalidResponse describes an input entry the engine skipped.
type InvalidResponse struct {
	Position int    `json:"position"`
	Reason   string `json:"reason"`
}

// ReconcileResponse is returned when a reconciliation completes.
type ReconcileResponse struct {
	Run       RunResponse        `json:"run"`
	Summary   reconcile.Summary  `json:"summary"`
	Balance   *validator.Balance `json:"balance,omitempty"`
	Invalid   []InvalidResponse  `json:"invalid,omitempty"`
	Persisted bool               `json:"persisted"`
}

// NewHealthResponse creates a health response with current timestamp.
// An unreachable store degrades the service but does not take it down:
// reconciliations still complete and are served from the cache.
func NewHealthResponse(persistent bool, storageErr error) HealthResponse {
	resp := HealthResponse{
		Status:    "ok",
		Storage:   "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	switch {
	case !persistent:
		resp.Storage = "disabled"
	case storageErr != nil:
		resp.Status = "degraded"
		resp.Storage = "unavailable"
	}
	return resp
}

// NewRunResponse converts a stored run to an API response.
func NewRunResponse(run *storage.Run) RunResponse {
	resp := RunResponse{
		ID:           run.ID,
		Mode:         run.Mode,
		LeftName:     run.LeftName,
		RightName:    run.RightName,
		Status:       string(run.Status),
		Error:        run.Error,
		StartedAt:    run.StartedAt.UTC().Format(time.RFC3339),
		TotalRecords: run.TotalRecords,
		Pairs:        run.Pairs,
		Invalid:      run.Invalid,
	}
	if run.CompletedAt != nil {
		resp.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	if run.SummaryJSON != "" && json.Valid([]byte(run.SummaryJSON)) {
		resp.Summary = json.RawMessage(run.SummaryJSON)
	}
	return resp
}

// NewRecordResponse converts a record to an API response.
func NewRecordResponse(r *record.Record) RecordResponse {
	return RecordResponse{
		ID:                 r.ID,
		Row:                r.Row,
		Date:               r.Date,
		Narration:          r.Narration,
		Reference:          r.Reference,
		OriginalAmountText: r.OriginalAmountText,
		SignedAmount:       r.SignedAmount,
		IsNegative:         r.IsNegative,
		First15:            r.First15,
		Last15:             r.Last15,
		HelperKey1:         r.HelperKey1,
		HelperKey2:         r.HelperKey2,
		Side:               string(r.Side),
		Status:             string(r.Status),
		MatchedWith:        r.MatchedWith,
		Remark:             r.Remark,
	}
}
