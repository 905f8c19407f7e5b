// Package repository stores per-drug analysis rows in PostgreSQL for analytics.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-dashboard/internal/domain"
)

// AnalysisRepository handles per-drug analysis row persistence
type AnalysisRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *pgxpool.Pool, logger *logrus.Logger) *AnalysisRepository {
	return &AnalysisRepository{
		db:  db,
		log: logger,
	}
}

const insertDrugRow = `
	INSERT INTO patient_analyses (
		run_id, session_id, patient_id, drug, gene, diplotype, phenotype,
		risk_label, classification, severity, confidence, variant_count, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)
	ON CONFLICT (run_id, drug) DO NOTHING`

// SaveRun writes one row per analyzed drug of the run in a single transaction.
func (r *AnalysisRepository) SaveRun(ctx context.Context, run *domain.AnalysisRun) error {
	if run == nil || run.Result == nil || len(run.Result.Drugs) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, row := range run.Result.Drugs {
		batch.Queue(insertDrugRow,
			run.ID,
			run.SessionID,
			run.PatientID,
			row.Drug,
			row.Gene,
			row.Diplotype,
			string(row.Phenotype),
			strings.TrimSpace(string(row.RiskLabel)),
			string(row.Classification),
			string(row.Severity),
			row.Confidence,
			row.VariantCount,
			run.CreatedAt,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		r.log.WithFields(logrus.Fields{
			"run_id":     run.ID,
			"session_id": run.SessionID,
			"error":      err,
		}).Error("Failed to insert analysis rows")
		return fmt.Errorf("inserting analysis rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing analysis rows: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"run_id": run.ID,
		"drugs":  len(run.Result.Drugs),
	}).Debug("Analysis rows stored")

	return nil
}

// RiskDistributionByDrug returns the number of analyses per drug and risk label.
func (r *AnalysisRepository) RiskDistributionByDrug(ctx context.Context) ([]domain.DrugRiskCount, error) {
	query := `
		SELECT drug, risk_label, analyses, last_seen
		FROM drug_risk_summary
		ORDER BY drug, risk_label`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.WithError(err).Error("Failed to query drug risk summary")
		return nil, fmt.Errorf("querying drug risk summary: %w", err)
	}

	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DrugRiskCount, error) {
		var c domain.DrugRiskCount
		var label string
		err := row.Scan(&c.Drug, &label, &c.Analyses, &c.LastSeen)
		c.RiskLabel = domain.RiskLabel(label)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning drug risk summary: %w", err)
	}

	return counts, nil
}

// CountBySession returns the number of stored drug rows for a session.
func (r *AnalysisRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM patient_analyses WHERE session_id = $1`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting analysis rows: %w", err)
	}
	return count, nil
}

// DeleteSession removes every drug row of a session.
func (r *AnalysisRepository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM patient_analyses WHERE session_id = $1`, sessionID)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"session_id": sessionID,
			"error":      err,
		}).Error("Failed to delete analysis rows")
		return 0, fmt.Errorf("deleting analysis rows: %w", err)
	}
	return result.RowsAffected(), nil
}
