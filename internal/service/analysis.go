// Package service orchestrates an analysis: it forwards the upload to the
// analysis service, aggregates the response, keeps the result in the session and
// hands the run to the archive sinks.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-dashboard/internal/aggregator"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/session"
)

const defaultArchiveTimeout = 30 * time.Second

// AnalysisService runs at most one analysis per session at a time.
type AnalysisService struct {
	client     domain.AnalysisServiceClient
	store      session.Store
	aggregator *aggregator.Aggregator
	sinks      []domain.RunSink
	publisher  domain.StatusPublisher
	sessionTTL time.Duration
	archiveTTL time.Duration
	logger     *logrus.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
	archives sync.WaitGroup
}

// Option configures an AnalysisService.
type Option func(*AnalysisService)

// WithSinks adds archive sinks receiving every completed run.
func WithSinks(sinks ...domain.RunSink) Option {
	return func(s *AnalysisService) {
		for _, sink := range sinks {
			if sink != nil {
				s.sinks = append(s.sinks, sink)
			}
		}
	}
}

// WithPublisher sets the status publisher.
func WithPublisher(p domain.StatusPublisher) Option {
	return func(s *AnalysisService) { s.publisher = p }
}

// WithSessionTTL sets how long results stay in the session store.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *AnalysisService) { s.sessionTTL = ttl }
}

// WithAggregator replaces the default aggregator.
func WithAggregator(a *aggregator.Aggregator) Option {
	return func(s *AnalysisService) { s.aggregator = a }
}

// WithArchiveTimeout bounds each sink write.
func WithArchiveTimeout(d time.Duration) Option {
	return func(s *AnalysisService) { s.archiveTTL = d }
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(client domain.AnalysisServiceClient, store session.Store, logger *logrus.Logger, opts ...Option) *AnalysisService {
	s := &AnalysisService{
		client:     client,
		store:      store,
		aggregator: aggregator.New(),
		archiveTTL: defaultArchiveTimeout,
		logger:     logger,
		inFlight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AnalysisService) acquire(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return false
	}
	s.inFlight[sessionID] = struct{}{}
	return true
}

func (s *AnalysisService) release(sessionID string) {
	s.mu.Lock()
	delete(s.inFlight, sessionID)
	s.mu.Unlock()
}

// InProgress reports whether sessionID has an analysis running.
func (s *AnalysisService) InProgress(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, busy := s.inFlight[sessionID]
	return busy
}

// Analyze forwards req to the analysis service and returns the aggregated result.
// The previous result of the session is replaced only when the call succeeds.
func (s *AnalysisService) Analyze(ctx context.Context, req *domain.AnalyzeRequest) (*domain.UIAnalysisResult, error) {
	if req == nil || strings.TrimSpace(req.SessionID) == "" {
		return nil, domain.NewValidationError("session_id", "session id is required", "")
	}
	sessionID := req.SessionID

	if !s.acquire(sessionID) {
		return nil, domain.ErrAnalysisInProgress
	}
	defer s.release(sessionID)

	log := s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"file":       req.FileName,
		"drugs":      strings.Join(req.Drugs, ","),
	})
	log.Info("Starting analysis")
	s.publish(domain.StatusEvent{SessionID: sessionID, Status: domain.StatusAnalyzing})

	start := time.Now()
	resp, err := s.client.Analyze(ctx, req)
	if err != nil {
		log.WithError(err).Warn("Analysis failed")
		s.publish(domain.StatusEvent{SessionID: sessionID, Status: domain.StatusFailed, Message: failureMessage(err)})
		return nil, err
	}

	if unknown := unknownVocabulary(resp.Results); len(unknown) > 0 {
		log.WithField("values", strings.Join(unknown, ",")).Warn("Analysis response uses values outside the known vocabulary")
	}

	result := s.aggregator.Aggregate(resp)

	if err := session.Save(ctx, s.store, sessionID, result, s.sessionTTL); err != nil {
		log.WithError(err).Error("Failed to store analysis result in session")
	}

	s.archive(domain.NewAnalysisRun(sessionID, result))

	log.WithFields(logrus.Fields(result.OverallRisk.LogFields())).WithFields(logrus.Fields{
		"total_variants":  result.TotalVariants,
		"breakdown_total": result.ToxicityBreakdown.Total(),
		"drugs_analyzed":  result.TotalDrugsAnalyzed,
		"duration_ms":     time.Since(start).Milliseconds(),
	}).Info("Analysis completed")

	s.publish(domain.StatusEvent{
		SessionID:   sessionID,
		Status:      domain.StatusCompleted,
		OverallRisk: result.OverallRisk,
	})

	return result, nil
}

// unknownVocabulary lists the risk labels, severities and phenotypes the
// aggregator will fall back on, as "<drug>:<field>=<value>".
func unknownVocabulary(records []domain.AnalysisRecord) []string {
	var out []string
	for i := range records {
		r := &records[i]
		if !r.RiskAssessment.RiskLabel.IsValid() {
			out = append(out, fmt.Sprintf("%s:risk_label=%s", r.Drug, r.RiskAssessment.RiskLabel))
		}
		if !r.RiskAssessment.Severity.IsValid() {
			out = append(out, fmt.Sprintf("%s:severity=%s", r.Drug, r.RiskAssessment.Severity))
		}
		if !r.Profile.Phenotype.IsValid() {
			out = append(out, fmt.Sprintf("%s:phenotype=%s", r.Drug, r.Profile.Phenotype))
		}
	}
	return out
}

// archive hands run to every sink in the background. Sink failures are logged only.
func (s *AnalysisService) archive(run *domain.AnalysisRun) {
	for _, sink := range s.sinks {
		s.archives.Add(1)
		go func(sink domain.RunSink) {
			defer s.archives.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.archiveTTL)
			defer cancel()

			if err := sink.SaveRun(ctx, run); err != nil {
				s.logger.WithFields(logrus.Fields{
					"run_id":     run.ID,
					"session_id": run.SessionID,
				}).WithError(err).Warn("Failed to archive analysis run")
			}
		}(sink)
	}
}

// WaitForArchives blocks until every pending archive write has finished.
func (s *AnalysisService) WaitForArchives() {
	s.archives.Wait()
}

func (s *AnalysisService) publish(event domain.StatusEvent) {
	if s.publisher == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	s.publisher.Publish(event)
}

// failureMessage is the single line shown to the user for a failed analysis.
func failureMessage(err error) string {
	var svcErr *domain.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Message
	}
	return "analysis failed"
}

// Result returns the session's stored result. A corrupted stored value is a miss.
func (s *AnalysisService) Result(ctx context.Context, sessionID string) (*domain.UIAnalysisResult, bool) {
	return session.Restore(ctx, s.store, sessionID, s.logger)
}

// ClearResult removes the session's stored result.
func (s *AnalysisService) ClearResult(ctx context.Context, sessionID string) error {
	return session.Clear(ctx, s.store, sessionID)
}

// Aggregate re-renders a raw analysis service response without side effects.
func (s *AnalysisService) Aggregate(resp *domain.BackendAnalysisResponse) *domain.UIAnalysisResult {
	return s.aggregator.Aggregate(resp)
}

// SupportedDrugs returns the analysis service's drug panel.
func (s *AnalysisService) SupportedDrugs(ctx context.Context) ([]domain.SupportedDrug, error) {
	return s.client.SupportedDrugs(ctx)
}

// ValidateVCF asks the analysis service to check a file without analysing it.
func (s *AnalysisService) ValidateVCF(ctx context.Context, fileName string, content []byte) (*domain.VCFValidationResult, error) {
	return s.client.ValidateVCF(ctx, fileName, content)
}

// Health reports the analysis service's health.
func (s *AnalysisService) Health(ctx context.Context) (*domain.ServiceHealth, error) {
	return s.client.Health(ctx)
}
