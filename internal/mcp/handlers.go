package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-dashboard/internal/archive"
	"github.com/pharmaguard-dashboard/internal/domain"
)

// AggregateAnalysisParams defines the input of the aggregate_analysis tool
type AggregateAnalysisParams struct {
	ResponseJSON string `json:"response_json" jsonschema:"raw analysis service response as JSON"`
	SessionID    string `json:"session_id,omitempty" jsonschema:"session to file the run under"`
}

// AggregateAnalysisResult defines the output of the aggregate_analysis tool
type AggregateAnalysisResult struct {
	RunID    string                   `json:"run_id"`
	Archived bool                     `json:"archived"`
	Result   *domain.UIAnalysisResult `json:"result"`
}

// GetRunParams defines the input of the get_analysis_run tool
type GetRunParams struct {
	RunID string `json:"run_id" jsonschema:"id returned by aggregate_analysis"`
}

// ListRunsParams defines the input of the list_analysis_runs tool
type ListRunsParams struct {
	SessionID string `json:"session_id,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// ListRunsResult defines the output of the list_analysis_runs tool
type ListRunsResult struct {
	Runs  []RunSummary `json:"runs"`
	Total int64        `json:"total"`
}

// RunSummary is a run without its full view model.
type RunSummary struct {
	ID            string                `json:"id"`
	SessionID     string                `json:"session_id"`
	PatientID     string                `json:"patient_id,omitempty"`
	OverallRisk   domain.Classification `json:"overall_risk"`
	TotalVariants int                   `json:"total_variants"`
	TotalDrugs    int                   `json:"total_drugs"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ExportRunsParams defines the input of the export_analysis_runs tool
type ExportRunsParams struct {
	FileName string `json:"file_name,omitempty" jsonschema:"file name inside the export directory"`
}

// ExportRunsResult defines the output of the export_analysis_runs tool
type ExportRunsResult struct {
	Path string `json:"path"`
}

// ImportRunsParams defines the input of the import_analysis_runs tool
type ImportRunsParams struct {
	FileName string `json:"file_name" jsonschema:"export file inside the export directory"`
}

// ImportRunsResult defines the output of the import_analysis_runs tool
type ImportRunsResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// handleAggregateAnalysis handles the aggregate_analysis tool invocation
func (s *Server) handleAggregateAnalysis(ctx context.Context, req *mcp.CallToolRequest, params AggregateAnalysisParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "aggregate_analysis").Info("Tool invoked")

	if strings.TrimSpace(params.ResponseJSON) == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("response_json is required")), nil, nil
	}

	resp, err := domain.DecodeBackendResponse([]byte(params.ResponseJSON))
	if err != nil {
		return s.createErrorResult("Invalid analysis response", err), nil, nil
	}

	sessionID := strings.TrimSpace(params.SessionID)
	if sessionID == "" {
		sessionID = mcpSessionID
	}

	result := s.aggregator.Aggregate(resp)
	run := domain.NewAnalysisRun(sessionID, result)
	s.recent.Add(run.ID.String(), run)

	archived := false
	if s.archive != nil {
		if err := s.archive.SaveRun(ctx, run); err != nil {
			s.logger.WithError(err).WithField("run_id", run.ID).Warn("Failed to archive run")
		} else {
			archived = true
		}
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":       run.ID,
		"session_id":   sessionID,
		"drugs":        strings.Join(resp.Drugs(), ","),
		"overall_risk": result.OverallRisk,
	}).Info("Aggregated analysis response")

	out := AggregateAnalysisResult{
		RunID:    run.ID.String(),
		Archived: archived,
		Result:   result,
	}
	return s.jsonResult(out)
}

// handleGetRun handles the get_analysis_run tool invocation
func (s *Server) handleGetRun(ctx context.Context, req *mcp.CallToolRequest, params GetRunParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "get_analysis_run").Info("Tool invoked")

	id, err := uuid.Parse(strings.TrimSpace(params.RunID))
	if err != nil {
		return s.createErrorResult("Invalid run_id", err), nil, nil
	}

	if run, ok := s.recent.Get(id.String()); ok {
		return s.jsonResult(run)
	}
	if s.archive == nil {
		return s.createErrorResult("Run not found", domain.ErrNotFound), nil, nil
	}

	run, err := s.archive.GetRun(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return s.createErrorResult("Run not found", err), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load run: %w", err)
	}
	return s.jsonResult(run)
}

// handleListRuns handles the list_analysis_runs tool invocation
func (s *Server) handleListRuns(ctx context.Context, req *mcp.CallToolRequest, params ListRunsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "list_analysis_runs").Info("Tool invoked")

	if s.archive == nil {
		return s.createErrorResult("Run archive is disabled", nil), nil, nil
	}

	filter := archive.ListFilter{
		SessionID: strings.TrimSpace(params.SessionID),
		Limit:     params.Limit,
		Offset:    params.Offset,
	}.Normalized()

	runs, err := s.archive.ListRuns(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list runs: %w", err)
	}
	total, err := s.archive.Count(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count runs: %w", err)
	}

	out := ListRunsResult{Runs: make([]RunSummary, 0, len(runs)), Total: total}
	for _, run := range runs {
		out.Runs = append(out.Runs, RunSummary{
			ID:            run.ID.String(),
			SessionID:     run.SessionID,
			PatientID:     run.PatientID,
			OverallRisk:   run.OverallRisk,
			TotalVariants: run.TotalVariants,
			TotalDrugs:    run.TotalDrugs,
			CreatedAt:     run.CreatedAt,
		})
	}
	return s.jsonResult(out)
}

// handleExportRuns handles the export_analysis_runs tool invocation
func (s *Server) handleExportRuns(ctx context.Context, req *mcp.CallToolRequest, params ExportRunsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "export_analysis_runs").Info("Tool invoked")

	if s.archive == nil {
		return s.createErrorResult("Run archive is disabled", nil), nil, nil
	}

	if err := os.MkdirAll(s.config.ExportDir(), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	name := exportFileName(params.FileName)
	if name == "" {
		name = fmt.Sprintf("runs-%s.json", time.Now().UTC().Format("20060102-150405"))
	}
	path := filepath.Join(s.config.ExportDir(), name)

	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := s.archive.ExportJSON(ctx, f); err != nil {
		return nil, nil, fmt.Errorf("failed to export runs: %w", err)
	}

	s.logger.WithField("path", path).Info("Exported analysis runs")
	return s.jsonResult(ExportRunsResult{Path: path})
}

// handleImportRuns handles the import_analysis_runs tool invocation
func (s *Server) handleImportRuns(ctx context.Context, req *mcp.CallToolRequest, params ImportRunsParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", "import_analysis_runs").Info("Tool invoked")

	if s.archive == nil {
		return s.createErrorResult("Run archive is disabled", nil), nil, nil
	}

	name := exportFileName(params.FileName)
	if name == "" {
		return s.createErrorResult("file_name is required", nil), nil, nil
	}
	path := filepath.Join(s.config.ExportDir(), name)

	f, err := os.Open(path)
	if err != nil {
		return s.createErrorResult("Cannot open export file", err), nil, nil
	}
	defer f.Close()

	imported, skipped, err := s.archive.ImportJSON(ctx, f)
	if err != nil {
		return s.createErrorResult("Invalid export file", err), nil, nil
	}

	s.logger.WithFields(logrus.Fields{
		"path":     path,
		"imported": imported,
		"skipped":  skipped,
	}).Info("Imported analysis runs")
	return s.jsonResult(ImportRunsResult{Imported: imported, Skipped: skipped})
}

// exportFileName confines a user supplied name to the export directory and
// gives it a .json extension. It returns "" when nothing usable is left.
func exportFileName(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ""
	}
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		name += ".json"
	}
	return name
}

func (s *Server) jsonResult(value any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, value, nil
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
