// Package v1alpha1 contains the wire types exchanged with the Resume Curator
// scoring service.
package v1alpha1

import "encoding/json"

// AnalysisStatus is the remote lifecycle of an analysis.
type AnalysisStatus string

const (
	AnalysisStatusPending    AnalysisStatus = "pending"
	AnalysisStatusProcessing AnalysisStatus = "processing"
	AnalysisStatusCompleted  AnalysisStatus = "completed"
	AnalysisStatusFailed     AnalysisStatus = "failed"
)

// UploadResult is the response of POST /upload.
type UploadResult struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	Status   string `json:"status,omitempty"`
}

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	ResumeID       string `json:"resume_id"`
	JobDescription string `json:"job_description"`
}

// AnalysisCreated is the response of POST /analyze.
type AnalysisCreated struct {
	ID     string         `json:"id"`
	Status AnalysisStatus `json:"status"`
}

// AnalysisSnapshot is the response of GET /analysis/{id}. The service is free
// to evolve the shape of analysis_data and recommendations, so both are kept
// loosely typed and interpreted by the report normalizer.
type AnalysisSnapshot struct {
	AnalysisData       map[string]any `json:"analysis_data"`
	CompatibilityScore *float64       `json:"compatibility_score,omitempty"`
	Recommendations    any            `json:"recommendations,omitempty"`
	ProcessingTimeMs   *int64         `json:"processing_time_ms,omitempty"`
	CompletedAt        *string        `json:"completed_at,omitempty"`
}

// Status extracts the remote status from analysis_data. An absent or
// malformed status is returned as-is and left to the caller to reject.
func (s *AnalysisSnapshot) Status() AnalysisStatus {
	if s == nil || s.AnalysisData == nil {
		return ""
	}
	v, _ := s.AnalysisData["status"].(string)
	return AnalysisStatus(v)
}

// Progress extracts the 0-100 progress value from analysis_data if present.
func (s *AnalysisSnapshot) Progress() (float64, bool) {
	if s == nil || s.AnalysisData == nil {
		return 0, false
	}
	switch v := s.AnalysisData["progress"].(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// CurrentStep extracts the human readable remote stage from analysis_data.
func (s *AnalysisSnapshot) CurrentStep() string {
	if s == nil || s.AnalysisData == nil {
		return ""
	}
	v, _ := s.AnalysisData["current_step"].(string)
	return v
}

// ServiceError is the error body returned by the service:
// {"error": {"message": "...", "details": "..."}}.
type ServiceError struct {
	Error ServiceErrorBody `json:"error"`
}

type ServiceErrorBody struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
