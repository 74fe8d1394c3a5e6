package agent

import (
	"context"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/resumecurator/analyzer/internal/client"
	"github.com/resumecurator/analyzer/internal/config"
	"github.com/resumecurator/analyzer/internal/orchestrator"
	"github.com/resumecurator/analyzer/internal/validation"
)

// Form field names.
const (
	FieldResume         = "file"
	FieldJobDescription = "job_description"
)

// This variable is set during build time.
// It contains the version of the code.
var version string

// FormSchema is the validation schema gating an analysis submission.
func FormSchema(maxFileSize int64) validation.FormSchema {
	return validation.FormSchema{
		Fields: []validation.FieldSchema{
			{
				Name: FieldResume,
				Rules: []validation.Rule{
					validation.File(validation.FileOptions{MaxSize: maxFileSize}),
				},
			},
			{
				Name: FieldJobDescription,
				Rules: []validation.Rule{
					validation.Required(),
					validation.NotWhitespaceOnly(),
					validation.DescriptionQuality(),
				},
			},
		},
	}
}

// AnalysisInput is one analysis run: a resume document and the job
// description to score it against.
type AnalysisInput struct {
	ResumePath     string
	JobDescription string
}

// Agent wires the validation form, the orchestrator and the local status
// server together and drives one analysis to a terminal outcome.
type Agent struct {
	config        *config.Config
	client        client.Analyzer
	orch          *orchestrator.Orchestrator
	healthChecker *HealthChecker
	server        *Server
	log           *zap.SugaredLogger

	healthStopCh chan chan any
}

// New creates a new agent.
func New(cfg *config.Config) (*Agent, error) {
	analyzer, err := client.NewFromConfig(&client.Config{
		Service: client.Service{Server: cfg.ServiceURL},
	})
	if err != nil {
		return nil, err
	}

	log := zap.S().Named("agent")
	orch := orchestrator.New(analyzer, orchestrator.Config{
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		SubmitRetryCap:  cfg.SubmitRetryCap,
	}, orchestrator.WithUpdateCallback(func(s orchestrator.Snapshot) {
		if s.Status == orchestrator.StatusPolling {
			log.Infof("analysis %s: %d%% %s (attempt %d)", s.ID, s.ProgressPercent, s.CurrentStepLabel, s.Attempts)
		} else {
			log.Infof("analysis status: %s", s.Status)
		}
	}))

	return &Agent{
		config:       cfg,
		client:       analyzer,
		orch:         orch,
		log:          log,
		healthStopCh: make(chan chan any),
	}, nil
}

// Run validates the input, submits the analysis and blocks until the job
// reaches a terminal status. The returned snapshot is that terminal state.
func (a *Agent) Run(ctx context.Context, input AnalysisInput) (orchestrator.Snapshot, error) {
	a.log.Infof("starting analyzer agent: %s", version)
	a.log.Infof("configuration: %s", a.config.String())
	defer a.log.Infof("analyzer agent stopped")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.healthChecker = NewHealthChecker(a.client, a.config.HealthCheckInterval)
	a.healthChecker.Start(ctx, a.healthStopCh)
	defer a.stopHealthCheck()

	if a.healthChecker.State() == HealthCheckStateServiceUnreachable {
		return orchestrator.Snapshot{}, errors.Errorf("scoring service %s is unreachable", a.config.ServiceURL)
	}

	if a.config.StatusAddress != "" {
		a.server = NewServer(a.config.StatusAddress, a.orch, a.healthChecker)
		go a.server.Start()
		defer a.stopServer()
	}

	form, req, err := a.prepare(input)
	if err != nil {
		return orchestrator.Snapshot{}, err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)
	go func() {
		select {
		case <-sig:
			a.log.Info("cancelling analysis...")
			a.orch.Cancel()
		case <-ctx.Done():
		}
	}()

	done, err := a.orch.Start(ctx, form, req)
	if err != nil {
		return orchestrator.Snapshot{}, err
	}

	<-done
	return a.orch.Snapshot(), nil
}

// prepare reads the resume document and fills the validation form.
func (a *Agent) prepare(input AnalysisInput) (*validation.Form, orchestrator.SubmitRequest, error) {
	content, err := os.ReadFile(input.ResumePath)
	if err != nil {
		return nil, orchestrator.SubmitRequest{}, errors.Wrap(err, "reading resume file")
	}

	fileName := validation.SanitizeFilename(filepath.Base(input.ResumePath))
	contentType := mime.TypeByExtension(filepath.Ext(fileName))

	form := validation.NewForm(
		FormSchema(a.config.MaxFileSize),
		validation.WithDebounce(a.config.DebounceInterval),
	)
	form.SetValue(FieldResume, validation.FileInput{
		Name:        fileName,
		Size:        int64(len(content)),
		ContentType: contentType,
		Head:        content,
	})
	form.SetValue(FieldJobDescription, input.JobDescription)

	req := orchestrator.SubmitRequest{
		File: &client.UploadInput{
			FileName:    fileName,
			ContentType: contentType,
			Content:     content,
		},
		JobDescription: input.JobDescription,
	}
	return form, req, nil
}

func (a *Agent) stopHealthCheck() {
	c := make(chan any)
	select {
	case a.healthStopCh <- c:
		<-c
		a.log.Info("health check stopped")
	default:
	}
}

func (a *Agent) stopServer() {
	serverCh := make(chan any)
	a.server.Stop(serverCh)
	<-serverCh
	a.log.Info("status server stopped")
}
