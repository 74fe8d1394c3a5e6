package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	api "github.com/resumecurator/analyzer/api/v1alpha1"
)

const requestIDHeader = "X-Request-Id"

// UploadInput is the file to be sent to POST /upload.
type UploadInput struct {
	FileName    string
	ContentType string
	Content     []byte
}

// Analyzer is the client interface for the resume analyzer service. It does
// no retries; retry policy belongs to the orchestrator.
//
//go:generate moq -fmt=goimports -out zz_generated_analyzer.go . Analyzer
type Analyzer interface {
	// UploadResume uploads the resume document and returns its asset id.
	UploadResume(ctx context.Context, input UploadInput) (*api.UploadResult, error)
	// CreateAnalysis submits a new analysis and returns its id.
	CreateAnalysis(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error)
	// GetAnalysis fetches the current status snapshot of an analysis.
	GetAnalysis(ctx context.Context, id string) (*api.AnalysisSnapshot, error)
	// Health probes the service liveness endpoint.
	Health(ctx context.Context) error
}

var _ Analyzer = (*analyzer)(nil)

type analyzer struct {
	server string
	http   *http.Client
}

// NewFromConfig returns a new analyzer service client from the given config.
func NewFromConfig(config *Config) (Analyzer, error) {
	httpClient, err := NewHTTPClientFromConfig(config)
	if err != nil {
		return nil, fmt.Errorf("NewFromConfig: creating HTTP client %w", err)
	}
	return &analyzer{server: config.Service.Server, http: httpClient}, nil
}

func (a *analyzer) UploadResume(ctx context.Context, input UploadInput) (*api.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", input.FileName)
	if err != nil {
		return nil, &Failure{Op: OpUpload, Message: "building multipart body", Cause: err}
	}
	if _, err := part.Write(input.Content); err != nil {
		return nil, &Failure{Op: OpUpload, Message: "writing multipart body", Cause: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &Failure{Op: OpUpload, Message: "closing multipart body", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.server+"/upload", &body)
	if err != nil {
		return nil, &Failure{Op: OpUpload, Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result api.UploadResult
	if err := a.do(req, OpUpload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *analyzer) CreateAnalysis(ctx context.Context, reqBody api.AnalysisRequest) (*api.AnalysisCreated, error) {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &Failure{Op: OpSubmit, Message: "encoding request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.server+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, &Failure{Op: OpSubmit, Message: "building request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")

	var result api.AnalysisCreated
	if err := a.do(req, OpSubmit, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *analyzer) GetAnalysis(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.server+"/analysis/"+id, nil)
	if err != nil {
		return nil, &Failure{Op: OpStatus, Message: "building request", Cause: err}
	}

	var result api.AnalysisSnapshot
	if err := a.do(req, OpStatus, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (a *analyzer) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.server+"/health", nil)
	if err != nil {
		return &Failure{Op: OpHealth, Message: "building request", Cause: err}
	}
	return a.do(req, OpHealth, nil)
}

// do executes the request and decodes the response into out. Failures are
// normalized into *Failure; out is left untouched on failure.
func (a *analyzer) do(req *http.Request, op Operation, out any) error {
	req.Header.Set(requestIDHeader, uuid.NewString())

	resp, err := a.http.Do(req)
	if err != nil {
		return &Failure{Op: op, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return failureFromResponse(op, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Failure{Op: op, StatusCode: resp.StatusCode, Message: "decoding response", Cause: err}
	}
	return nil
}

// failureFromResponse decodes the service error body {error:{message,details}}
// when possible and falls back to the HTTP status text.
func failureFromResponse(op Operation, resp *http.Response) *Failure {
	failure := &Failure{Op: op, StatusCode: resp.StatusCode, Message: resp.Status}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(body) == 0 {
		return failure
	}

	var svcErr api.ServiceError
	if err := json.Unmarshal(body, &svcErr); err == nil && svcErr.Error.Message != "" {
		failure.Message = svcErr.Error.Message
		failure.Details = svcErr.Error.Details
	}
	return failure
}
