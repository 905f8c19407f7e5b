package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmaguard-dashboard/internal/archive"
	"github.com/pharmaguard-dashboard/internal/domain"
	"github.com/pharmaguard-dashboard/internal/middleware"
	"github.com/pharmaguard-dashboard/internal/service"
)

// multipartOverhead is the allowance for form fields and boundaries on top of the file.
const multipartOverhead = 1 << 20

// handleHealth reports the gateway and analysis service health
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	body := gin.H{
		"timestamp": time.Now().UTC(),
		"version":   Version,
	}

	health, err := s.deps.Analysis.Health(ctx)
	if err != nil {
		status = "degraded"
		body["analysis_service"] = gin.H{"status": "unreachable", "error": err.Error()}
	} else {
		body["analysis_service"] = health
	}
	body["status"] = status

	c.JSON(http.StatusOK, body)
}

func (s *Server) handleSupportedDrugs(c *gin.Context) {
	drugs, err := s.deps.Analysis.SupportedDrugs(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drugs": drugs})
}

// readUpload reads the multipart "file" field within the configured size limit.
func (s *Server) readUpload(c *gin.Context) (string, []byte, error) {
	maxBytes := s.configManager.GetServerConfig().MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	header, err := c.FormFile("file")
	if err != nil {
		if isMaxBytes(err) {
			return "", nil, err
		}
		return "", nil, domain.NewValidationError("file", "A .vcf file is required", nil)
	}

	f, err := header.Open()
	if err != nil {
		return "", nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return "", nil, fmt.Errorf("reading upload: %w", err)
	}
	return header.Filename, content, nil
}

func (s *Server) handleAnalyze(c *gin.Context) {
	fileName, content, err := s.readUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	req, err := service.NewAnalyzeRequest(
		sessionParam(c),
		fileName,
		content,
		c.PostForm("drugs"),
		s.configManager.GetServerConfig().MaxUploadBytes,
	)
	if err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.deps.Analysis.Analyze(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleValidateVCF(c *gin.Context) {
	fileName, content, err := s.readUpload(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := service.ValidateVCFFile(fileName, content, s.configManager.GetServerConfig().MaxUploadBytes); err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.deps.Analysis.ValidateVCF(c.Request.Context(), fileName, content)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetResult(c *gin.Context) {
	sessionID := sessionParam(c)
	result, ok := s.deps.Analysis.Result(c.Request.Context(), sessionID)
	if !ok {
		details := ""
		if s.deps.Analysis.InProgress(sessionID) {
			details = "an analysis is in progress for this session"
		}
		c.JSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrCodeNotFound, "no analysis result for this session", details, c.GetString(middleware.CorrelationIDKey)))
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleClearResult(c *gin.Context) {
	if err := s.deps.Analysis.ClearResult(c.Request.Context(), sessionParam(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAggregate(c *gin.Context) {
	var resp domain.BackendAnalysisResponse
	if err := c.ShouldBindJSON(&resp); err != nil {
		c.JSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrCodeInvalidInput, "body must be an analysis service response", err.Error(), c.GetString(middleware.CorrelationIDKey)))
		return
	}
	c.JSON(http.StatusOK, s.deps.Analysis.Aggregate(&resp))
}

func (s *Server) handleEvents(c *gin.Context) {
	if s.deps.Hub == nil {
		s.respondUnavailable(c, "status events")
		return
	}
	s.deps.Hub.ServeWS(s.upgrader, c.Writer, c.Request, sessionParam(c))
}

func (s *Server) handleListRuns(c *gin.Context) {
	if s.deps.Archive == nil {
		s.respondUnavailable(c, "run archive")
		return
	}

	filter := archive.ListFilter{
		SessionID: c.Query("session_id"),
		Limit:     queryInt(c, "limit", 0),
		Offset:    queryInt(c, "offset", 0),
	}.Normalized()

	runs, err := s.deps.Archive.ListRuns(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	total, err := s.deps.Archive.Count(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (s *Server) handleGetRun(c *gin.Context) {
	if s.deps.Archive == nil {
		s.respondUnavailable(c, "run archive")
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.respondError(c, domain.NewValidationError("id", "run id must be a UUID", c.Param("id")))
		return
	}

	run, err := s.deps.Archive.GetRun(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleExportRuns(c *gin.Context) {
	if s.deps.Archive == nil {
		s.respondUnavailable(c, "run archive")
		return
	}

	fileName := fmt.Sprintf("pharmaguard-runs-%s.json", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Status(http.StatusOK)

	if err := s.deps.Archive.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.log.WithError(err).Error("Run export failed")
		_ = c.Error(err)
	}
}

func (s *Server) handleDrugRisk(c *gin.Context) {
	if s.deps.Analytics == nil {
		s.respondUnavailable(c, "analytics")
		return
	}

	counts, err := s.deps.Analytics.RiskDistributionByDrug(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if counts == nil {
		counts = []domain.DrugRiskCount{}
	}
	c.JSON(http.StatusOK, gin.H{"distribution": counts})
}

// sessionParam returns the trimmed :session_id path parameter.
func sessionParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("session_id"))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

func isMaxBytes(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return errors.As(err, &maxBytesErr)
}
