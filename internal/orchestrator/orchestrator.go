package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"go.uber.org/zap"

	api "github.com/resumecurator/analyzer/api/v1alpha1"
	"github.com/resumecurator/analyzer/internal/classify"
	"github.com/resumecurator/analyzer/internal/client"
	"github.com/resumecurator/analyzer/internal/report"
	"github.com/resumecurator/analyzer/internal/validation"
	"github.com/resumecurator/analyzer/pkg/metrics"
)

const (
	// DefaultPollInterval is the fixed interval between status polls.
	DefaultPollInterval = 2 * time.Second
	// DefaultMaxPollAttempts caps the poll requests before giving up.
	DefaultMaxPollAttempts = 30
	// DefaultSubmitRetryCap is the number of submission retries after the
	// initial attempt.
	DefaultSubmitRetryCap = 2
	// DefaultNotYetCreatedTolerance is how many consecutive "not found yet"
	// polls are treated as eventual consistency lag.
	DefaultNotYetCreatedTolerance = 3

	defaultPollJitter = 50 * time.Millisecond
)

var defaultSubmitBackoff = []time.Duration{1 * time.Second, 2 * time.Second}

// Config tunes the orchestrator. Zero values fall back to defaults.
type Config struct {
	PollInterval           time.Duration
	MaxPollAttempts        int
	SubmitRetryCap         int
	SubmitBackoff          []time.Duration
	NotYetCreatedTolerance int
	PollJitter             time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.MaxPollAttempts == 0 {
		c.MaxPollAttempts = DefaultMaxPollAttempts
	}
	if c.SubmitRetryCap == 0 {
		c.SubmitRetryCap = DefaultSubmitRetryCap
	}
	if len(c.SubmitBackoff) == 0 {
		c.SubmitBackoff = defaultSubmitBackoff
	}
	if c.NotYetCreatedTolerance == 0 {
		c.NotYetCreatedTolerance = DefaultNotYetCreatedTolerance
	}
	if c.PollJitter == 0 {
		c.PollJitter = defaultPollJitter
	}
	return c
}

// Gate is the validation step run before submission. Satisfied by
// *validation.Form.
type Gate interface {
	ValidateAll() validation.State
}

// SubmitRequest is the analysis to be submitted once validation passes.
// When File is set the document is uploaded first and the resulting asset id
// is used; otherwise ResumeID must reference an already uploaded document.
type SubmitRequest struct {
	File           *client.UploadInput
	ResumeID       string
	JobDescription string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithUpdateCallback registers a notification invoked with a fresh snapshot
// after every state change. Called outside the orchestrator lock.
func WithUpdateCallback(fn func(Snapshot)) Option {
	return func(o *Orchestrator) { o.onUpdate = fn }
}

// Orchestrator owns a single analysis job at a time and is its only writer.
// Requests are tagged with a generation counter; a response belonging to a
// cancelled or superseded run is discarded, never applied.
type Orchestrator struct {
	client client.Analyzer
	cfg    Config
	log    *zap.SugaredLogger

	mu       sync.Mutex
	job      Snapshot
	gen      uint64
	cancel   context.CancelFunc
	done     chan struct{}
	onUpdate func(Snapshot)
}

// New creates an orchestrator in the Idle state.
func New(analyzer client.Analyzer, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: analyzer,
		cfg:    cfg.withDefaults(),
		log:    zap.S().Named("orchestrator"),
		job:    Snapshot{Status: StatusIdle},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Snapshot returns a read-only copy of the tracked job.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job
}

// Start validates the form, submits the analysis and begins polling. A job
// already active is fully cancelled first. The returned channel closes when
// the new job reaches a terminal status.
func (o *Orchestrator) Start(ctx context.Context, gate Gate, req SubmitRequest) (<-chan struct{}, error) {
	o.cancelAndWait()

	gen := o.begin()

	if gate != nil {
		state := gate.ValidateAll()
		if !state.IsValid {
			o.apply(gen, func(j *Snapshot) { j.Status = StatusIdle })
			return nil, validation.NewErrInvalidForm(state)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	o.mu.Lock()
	if o.gen != gen {
		// Cancelled while validating.
		o.mu.Unlock()
		cancel()
		close(done)
		return done, nil
	}
	o.cancel = cancel
	o.done = done
	o.job.Status = StatusSubmitting
	notify := o.notifyLocked()
	o.mu.Unlock()
	notify()

	go o.run(runCtx, gen, req, done)
	return done, nil
}

// Cancel stops the active job, if any. Any in-flight request becomes stale
// and its late response is discarded. No-op outside Submitting/Polling.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	if !o.job.Status.Active() {
		o.mu.Unlock()
		return
	}
	o.gen++
	cancel := o.cancel
	o.cancel = nil
	o.job.Status = StatusCancelled
	o.job.Result = nil
	o.job.Failure = nil
	notify := o.notifyLocked()
	o.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	notify()
	o.log.Infof("analysis job cancelled")
}

func (o *Orchestrator) cancelAndWait() {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()

	o.Cancel()
	if done != nil {
		<-done
	}
}

// begin resets the job for a new run and returns its generation.
func (o *Orchestrator) begin() uint64 {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.job = Snapshot{Status: StatusValidating}
	notify := o.notifyLocked()
	o.mu.Unlock()
	notify()
	return gen
}

func (o *Orchestrator) run(ctx context.Context, gen uint64, req SubmitRequest, done chan struct{}) {
	defer close(done)

	resumeID := req.ResumeID
	if req.File != nil {
		uploaded, uerr := o.upload(ctx, req.File)
		if uerr != nil {
			if uerr.Kind == classify.Aborted {
				o.markCancelled(gen)
				return
			}
			o.fail(gen, uerr)
			return
		}
		resumeID = uploaded.ID
		o.log.Infof("resume %s uploaded as %s", uploaded.FileName, uploaded.ID)
	}

	created, cerr := o.submit(ctx, resumeID, req.JobDescription)
	if cerr != nil {
		if cerr.Kind == classify.Aborted {
			o.markCancelled(gen)
			return
		}
		o.fail(gen, cerr)
		return
	}

	if !o.apply(gen, func(j *Snapshot) {
		j.ID = created.ID
		j.Status = StatusPolling
		j.Attempts = 0
	}) {
		return
	}
	o.log.Infof("analysis %s submitted, polling every %s", created.ID, o.cfg.PollInterval)

	o.poll(ctx, gen, created.ID)
}

// upload sends the resume document, retrying with the same bounded policy as
// submission.
func (o *Orchestrator) upload(ctx context.Context, input *client.UploadInput) (*api.UploadResult, *classify.ClassifiedError) {
	for attempt := 0; ; attempt++ {
		uploaded, err := o.client.UploadResume(ctx, *input)
		if err == nil {
			return uploaded, nil
		}

		cerr := classify.Classify(err)
		if cerr.Kind == classify.Aborted || !cerr.Retryable || attempt >= o.cfg.SubmitRetryCap {
			return nil, cerr
		}

		backoff := o.cfg.SubmitBackoff[min(attempt, len(o.cfg.SubmitBackoff)-1)]
		o.log.Warnf("upload failed (%s), retrying in %s", cerr.Kind, backoff)

		select {
		case <-ctx.Done():
			return nil, classify.New(classify.Aborted, "upload cancelled")
		case <-time.After(backoff):
		}
	}
}

// submit calls the service, retrying retryable failures up to the retry cap
// with fixed backoff.
func (o *Orchestrator) submit(ctx context.Context, resumeID, jobDescription string) (*api.AnalysisCreated, *classify.ClassifiedError) {
	body := api.AnalysisRequest{ResumeID: resumeID, JobDescription: jobDescription}

	for attempt := 0; ; attempt++ {
		created, err := o.client.CreateAnalysis(ctx, body)
		if err == nil {
			metrics.IncreaseSubmissionsTotalMetric("accepted")
			return created, nil
		}

		cerr := classify.Classify(err)
		if cerr.Kind == classify.Aborted || !cerr.Retryable || attempt >= o.cfg.SubmitRetryCap {
			metrics.IncreaseSubmissionsTotalMetric("rejected")
			return nil, cerr
		}

		backoff := o.cfg.SubmitBackoff[min(attempt, len(o.cfg.SubmitBackoff)-1)]
		o.log.Warnf("submission failed (%s), retrying in %s", cerr.Kind, backoff)
		metrics.IncreaseSubmissionsTotalMetric("retried")

		select {
		case <-ctx.Done():
			return nil, classify.New(classify.Aborted, "submission cancelled")
		case <-time.After(backoff):
		}
	}
}

// poll drives the Polling state. Only one request is outstanding at a time:
// the loop blocks on the call and any tick that fired meanwhile is drained,
// so a slow response skips ticks instead of queuing them.
func (o *Orchestrator) poll(ctx context.Context, gen uint64, id string) {
	ticker := jitterbug.New(o.cfg.PollInterval, &jitterbug.Norm{Stdev: o.cfg.PollJitter})
	defer ticker.Stop()

	notFoundStreak := 0
	for {
		select {
		case <-ctx.Done():
			o.markCancelled(gen)
			return
		case <-ticker.C:
		}

		if !o.apply(gen, func(j *Snapshot) { j.Attempts++ }) {
			return
		}
		metrics.IncreasePollAttemptsTotalMetric()

		snapshot, err := o.client.GetAnalysis(ctx, id)

		select {
		case <-ticker.C: // skip, don't queue
		default:
		}

		if err != nil {
			cerr := classify.Classify(err)
			switch cerr.Kind {
			case classify.Aborted:
				o.markCancelled(gen)
				return
			case classify.NotYetCreated:
				notFoundStreak++
				if notFoundStreak > o.cfg.NotYetCreatedTolerance {
					o.fail(gen, cerr)
					return
				}
				o.log.Debugf("analysis %s not visible yet (%d/%d)", id, notFoundStreak, o.cfg.NotYetCreatedTolerance)
			default:
				o.fail(gen, cerr)
				return
			}
		} else {
			notFoundStreak = 0
			if terminal := o.handleSnapshot(gen, snapshot); terminal {
				return
			}
		}

		if o.attempts(gen) >= o.cfg.MaxPollAttempts {
			o.fail(gen, classify.New(classify.Timeout,
				fmt.Sprintf("no terminal status after %d poll attempts", o.cfg.MaxPollAttempts)))
			return
		}
	}
}

// handleSnapshot applies one successful poll response. Returns true when the
// job reached a terminal status.
func (o *Orchestrator) handleSnapshot(gen uint64, snapshot *api.AnalysisSnapshot) bool {
	switch snapshot.Status() {
	case api.AnalysisStatusPending, api.AnalysisStatusProcessing:
		o.apply(gen, func(j *Snapshot) {
			if progress, ok := snapshot.Progress(); ok {
				if p := int(progress); p > j.ProgressPercent && p <= 100 {
					j.ProgressPercent = p
				}
			}
			if step := snapshot.CurrentStep(); step != "" {
				j.CurrentStepLabel = step
			}
		})
		return false

	case api.AnalysisStatusCompleted:
		result := report.Normalize(snapshot)
		if result.Unusable() {
			o.fail(gen, classify.New(classify.AnalysisFailed, result.Diagnostic))
			return true
		}
		o.apply(gen, func(j *Snapshot) {
			j.Status = StatusCompleted
			j.ProgressPercent = 100
			j.Result = result
			j.Failure = nil
		})
		o.log.Infof("analysis completed with score %.1f", result.OverallScore)
		return true

	case api.AnalysisStatusFailed:
		o.fail(gen, classify.New(classify.AnalysisFailed, "the service reported the analysis as failed"))
		return true

	default:
		o.fail(gen, classify.New(classify.UnknownError,
			fmt.Sprintf("unrecognized analysis status %q", snapshot.Status())))
		return true
	}
}

// apply mutates the job if gen is still the current generation. A stale
// generation means the run was cancelled or superseded and its effects must
// be suppressed.
func (o *Orchestrator) apply(gen uint64, mutate func(*Snapshot)) bool {
	o.mu.Lock()
	if o.gen != gen || o.job.Status.Terminal() {
		o.mu.Unlock()
		return false
	}
	mutate(&o.job)
	notify := o.notifyLocked()
	o.mu.Unlock()
	notify()
	return true
}

func (o *Orchestrator) fail(gen uint64, cerr *classify.ClassifiedError) {
	if o.apply(gen, func(j *Snapshot) {
		j.Status = StatusFailed
		j.Failure = cerr
		j.Result = nil
	}) {
		metrics.IncreaseJobFailuresTotalMetric(string(cerr.Kind))
		o.log.Warnf("analysis job failed: %s", cerr)
	}
}

func (o *Orchestrator) markCancelled(gen uint64) {
	o.apply(gen, func(j *Snapshot) {
		j.Status = StatusCancelled
		j.Result = nil
		j.Failure = nil
	})
}

func (o *Orchestrator) attempts(gen uint64) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gen != gen {
		return 0
	}
	return o.job.Attempts
}

// notifyLocked captures the callback and a snapshot under the lock and
// returns a closure to invoke after unlocking.
func (o *Orchestrator) notifyLocked() func() {
	if o.onUpdate == nil {
		return func() {}
	}
	fn := o.onUpdate
	snapshot := o.job
	return func() { fn(snapshot) }
}
