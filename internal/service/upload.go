package service

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pharmaguard-dashboard/internal/domain"
)

// ParseDrugList splits a comma-separated drug list, upper-cases and trims every
// name, and drops blanks and repeats while keeping the first-seen order.
func ParseDrugList(raw string) []string {
	drugs := make([]string, 0)
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToUpper(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		drugs = append(drugs, name)
	}
	return drugs
}

// ValidateVCFFile checks the upload itself: a non-empty UTF-8 .vcf file within maxBytes.
func ValidateVCFFile(fileName string, content []byte, maxBytes int64) error {
	if !strings.EqualFold(filepath.Ext(strings.TrimSpace(fileName)), ".vcf") {
		return domain.NewValidationError("file", "File must be a .vcf file", fileName)
	}
	if len(content) == 0 {
		return domain.NewValidationError("file", "File is empty", fileName)
	}
	if maxBytes > 0 && int64(len(content)) > maxBytes {
		return domain.NewValidationError("file",
			fmt.Sprintf("File size %.1fMB exceeds %.0fMB limit", megabytes(int64(len(content))), megabytes(maxBytes)),
			fileName)
	}
	if !utf8.Valid(content) {
		return domain.NewValidationError("file", "File is not valid UTF-8 text", fileName)
	}
	return nil
}

// NewAnalyzeRequest validates an upload and builds the request forwarded to the
// analysis service.
func NewAnalyzeRequest(sessionID, fileName string, content []byte, rawDrugs string, maxBytes int64) (*domain.AnalyzeRequest, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, domain.NewValidationError("session_id", "session id is required", sessionID)
	}

	drugs := ParseDrugList(rawDrugs)
	if len(drugs) == 0 {
		return nil, domain.NewValidationError("drugs", "At least one drug name is required", rawDrugs)
	}

	if err := ValidateVCFFile(fileName, content, maxBytes); err != nil {
		return nil, err
	}

	return &domain.AnalyzeRequest{
		SessionID: sessionID,
		FileName:  filepath.Base(fileName),
		Content:   content,
		Drugs:     drugs,
	}, nil
}

func megabytes(n int64) float64 {
	return float64(n) / (1024 * 1024)
}
