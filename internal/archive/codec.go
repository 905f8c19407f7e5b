package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pharmaguard-dashboard/internal/domain"
)

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRun reads the columns id, session_id, patient_id, overall_risk,
// total_variants, total_drugs, result, created_at.
func scanRun(s scanner) (*domain.AnalysisRun, error) {
	run := &domain.AnalysisRun{}
	var id, risk string
	var result []byte

	err := s.Scan(
		&id, &run.SessionID, &run.PatientID, &risk,
		&run.TotalVariants, &run.TotalDrugs, &result, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.OverallRisk = domain.Classification(risk)
	if len(result) > 0 && string(result) != "null" {
		run.Result = &domain.UIAnalysisResult{}
		if err := json.Unmarshal(result, run.Result); err != nil {
			return nil, fmt.Errorf("failed to decode run %s result: %w", id, err)
		}
	}
	return run, nil
}

// prepareRun fills the ID and timestamp of a new run and encodes its result.
func prepareRun(run *domain.AnalysisRun) ([]byte, error) {
	if run == nil {
		return nil, fmt.Errorf("run is required")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.Result == nil {
		return []byte("null"), nil
	}
	data, err := json.Marshal(run.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run result: %w", err)
	}
	return data, nil
}

// writeExport lists every run through list and encodes the export envelope.
func writeExport(ctx context.Context, writer io.Writer, list func(context.Context, ListFilter) ([]*domain.AnalysisRun, error)) error {
	runs, err := list(ctx, ListFilter{Limit: maxExportLimit})
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []*domain.AnalysisRun{}
	}

	export := &RunExport{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Count:      len(runs),
		Runs:       runs,
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(export)
}

// readExport imports every run of an export that store does not already hold.
func readExport(ctx context.Context, reader io.Reader, store Store) (imported int, skipped int, err error) {
	var export RunExport
	if err := json.NewDecoder(reader).Decode(&export); err != nil {
		return 0, 0, fmt.Errorf("failed to decode JSON: %w", err)
	}

	for _, run := range export.Runs {
		if run == nil || run.ID == uuid.Nil {
			skipped++
			continue
		}

		_, err := store.GetRun(ctx, run.ID)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return imported, skipped, fmt.Errorf("failed to check existing: %w", err)
		}

		if err := store.SaveRun(ctx, run); err != nil {
			return imported, skipped, fmt.Errorf("failed to save: %w", err)
		}
		imported++
	}

	return imported, skipped, nil
}
