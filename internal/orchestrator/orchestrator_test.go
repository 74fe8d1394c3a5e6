package orchestrator_test

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	api "github.com/resumecurator/analyzer/api/v1alpha1"
	"github.com/resumecurator/analyzer/internal/classify"
	"github.com/resumecurator/analyzer/internal/client"
	"github.com/resumecurator/analyzer/internal/orchestrator"
	"github.com/resumecurator/analyzer/internal/validation"
)

func TestOrchestrator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Orchestrator Suite")
}

// testConfig keeps the state machine semantics but runs at test speed.
func testConfig() orchestrator.Config {
	return orchestrator.Config{
		PollInterval:           5 * time.Millisecond,
		PollJitter:             time.Nanosecond,
		MaxPollAttempts:        orchestrator.DefaultMaxPollAttempts,
		SubmitRetryCap:         orchestrator.DefaultSubmitRetryCap,
		SubmitBackoff:          []time.Duration{time.Millisecond},
		NotYetCreatedTolerance: orchestrator.DefaultNotYetCreatedTolerance,
	}
}

type staticGate struct{ state validation.State }

func (g *staticGate) ValidateAll() validation.State { return g.state }

func validGate() *staticGate {
	return &staticGate{state: validation.State{IsValid: true}}
}

func invalidGate() *staticGate {
	return &staticGate{state: validation.State{
		IsValid: false,
		Fields: map[string]validation.FieldState{
			"job_description": {Errors: []validation.Message{{Code: "REQUIRED", Message: "value is required"}}},
		},
	}}
}

func score(v float64) *float64 { return &v }

func completedSnapshot(overall float64) *api.AnalysisSnapshot {
	return &api.AnalysisSnapshot{
		CompatibilityScore: score(overall),
		AnalysisData: map[string]any{
			"status": "completed",
			"component_scores": map[string]any{
				"skills":     float64(70),
				"experience": float64(60),
				"education":  float64(80),
			},
		},
	}
}

func processingSnapshot(progress float64, step string) *api.AnalysisSnapshot {
	return &api.AnalysisSnapshot{
		AnalysisData: map[string]any{
			"status":       "processing",
			"progress":     progress,
			"current_step": step,
		},
	}
}

var _ = Describe("Orchestrator", func() {
	var (
		mock *client.AnalyzerMock
		orch *orchestrator.Orchestrator
	)

	BeforeEach(func() {
		mock = &client.AnalyzerMock{
			CreateAnalysisFunc: func(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error) {
				return &api.AnalysisCreated{ID: "analysis-1", Status: api.AnalysisStatusPending}, nil
			},
		}
		orch = orchestrator.New(mock, testConfig())
	})

	Describe("Start", func() {
		It("runs upload, submission and polling to completion", func() {
			mock.UploadResumeFunc = func(ctx context.Context, input client.UploadInput) (*api.UploadResult, error) {
				return &api.UploadResult{ID: "resume-1", FileName: input.FileName}, nil
			}
			var polls int32
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				switch atomic.AddInt32(&polls, 1) {
				case 1:
					return processingSnapshot(30, "parsing resume"), nil
				case 2:
					return processingSnapshot(70, "scoring"), nil
				default:
					return completedSnapshot(72.5), nil
				}
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{
				File:           &client.UploadInput{FileName: "resume.pdf", ContentType: "application/pdf", Content: []byte("%PDF-")},
				JobDescription: "a job description",
			})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusCompleted))
			Expect(snapshot.ID).To(Equal("analysis-1"))
			Expect(snapshot.ProgressPercent).To(Equal(100))
			Expect(snapshot.Result).ToNot(BeNil())
			Expect(snapshot.Result.OverallScore).To(Equal(72.5))
			Expect(snapshot.Failure).To(BeNil())

			Expect(mock.UploadResumeCalls()).To(HaveLen(1))
			created := mock.CreateAnalysisCalls()
			Expect(created).To(HaveLen(1))
			Expect(created[0].Req.ResumeID).To(Equal("resume-1"))
			Expect(created[0].Req.JobDescription).To(Equal("a job description"))
		})

		It("skips the upload when a resume id is provided", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return completedSnapshot(50), nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{
				ResumeID:       "existing-resume",
				JobDescription: "a job description",
			})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(mock.UploadResumeCalls()).To(BeEmpty())
			Expect(mock.CreateAnalysisCalls()[0].Req.ResumeID).To(Equal("existing-resume"))
		})

		It("refuses to submit an invalid form", func() {
			done, err := orch.Start(context.Background(), invalidGate(), orchestrator.SubmitRequest{})
			Expect(done).To(BeNil())

			var invalid *validation.ErrInvalidForm
			Expect(errors.As(err, &invalid)).To(BeTrue())
			Expect(invalid.State.Fields["job_description"].Errors).ToNot(BeEmpty())

			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusIdle))
			Expect(mock.CreateAnalysisCalls()).To(BeEmpty())
		})

		It("reports progress monotonically even when the service regresses", func() {
			var polls int32
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				switch atomic.AddInt32(&polls, 1) {
				case 1:
					return processingSnapshot(60, "scoring"), nil
				case 2:
					// A later poll served by a lagging replica.
					return processingSnapshot(20, "parsing resume"), nil
				default:
					return completedSnapshot(50), nil
				}
			}

			var mu sync.Mutex
			var seen []int
			orch = orchestrator.New(mock, testConfig(), orchestrator.WithUpdateCallback(func(s orchestrator.Snapshot) {
				mu.Lock()
				seen = append(seen, s.ProgressPercent)
				mu.Unlock()
			}))

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			mu.Lock()
			defer mu.Unlock()
			for i := 1; i < len(seen); i++ {
				Expect(seen[i]).To(BeNumerically(">=", seen[i-1]))
			}
		})
	})

	Describe("submission retries", func() {
		It("retries retryable failures and then succeeds", func() {
			var calls int32
			mock.CreateAnalysisFunc = func(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error) {
				if atomic.AddInt32(&calls, 1) <= 2 {
					return nil, &client.Failure{Op: client.OpSubmit, StatusCode: http.StatusServiceUnavailable}
				}
				return &api.AnalysisCreated{ID: "analysis-1"}, nil
			}
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return completedSnapshot(50), nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(mock.CreateAnalysisCalls()).To(HaveLen(3))
			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusCompleted))
		})

		It("gives up once the retry cap is exhausted", func() {
			mock.CreateAnalysisFunc = func(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error) {
				return nil, &client.Failure{Op: client.OpSubmit, StatusCode: http.StatusServiceUnavailable}
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			// The initial attempt plus two retries.
			Expect(mock.CreateAnalysisCalls()).To(HaveLen(3))
			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusFailed))
			Expect(snapshot.Failure.Kind).To(Equal(classify.ServerUnavailable))
		})

		It("does not retry a rejected submission", func() {
			mock.CreateAnalysisFunc = func(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error) {
				return nil, &client.Failure{Op: client.OpSubmit, StatusCode: http.StatusUnprocessableEntity, Message: "resume not found"}
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(mock.CreateAnalysisCalls()).To(HaveLen(1))
			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusFailed))
			Expect(snapshot.Failure.Kind).To(Equal(classify.ValidationError))
		})
	})

	Describe("polling", func() {
		It("fails with a timeout when the job never settles", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return processingSnapshot(50, "scoring"), nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, 5*time.Second).Should(BeClosed())

			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusFailed))
			Expect(snapshot.Failure.Kind).To(Equal(classify.Timeout))
			Expect(snapshot.Attempts).To(Equal(orchestrator.DefaultMaxPollAttempts))
			Expect(snapshot.Result).To(BeNil())
		})

		It("maps a service-reported failure to a terminal failure", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return &api.AnalysisSnapshot{AnalysisData: map[string]any{"status": "failed"}}, nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusFailed))
			Expect(snapshot.Failure.Kind).To(Equal(classify.AnalysisFailed))
			Expect(snapshot.Result).To(BeNil())
		})

		It("treats a completed payload with no score as a failed analysis", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return &api.AnalysisSnapshot{AnalysisData: map[string]any{"status": "completed"}}, nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(orch.Snapshot().Failure.Kind).To(Equal(classify.AnalysisFailed))
		})

		It("fails on an unrecognized status", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return &api.AnalysisSnapshot{AnalysisData: map[string]any{"status": "archived"}}, nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(orch.Snapshot().Failure.Kind).To(Equal(classify.UnknownError))
		})

		It("tolerates a short burst of not-found polls right after submission", func() {
			var polls int32
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				if atomic.AddInt32(&polls, 1) <= 3 {
					return nil, &client.Failure{Op: client.OpStatus, StatusCode: http.StatusNotFound}
				}
				return completedSnapshot(50), nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusCompleted))
		})

		It("fails once the not-found streak exceeds the tolerance", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return nil, &client.Failure{Op: client.OpStatus, StatusCode: http.StatusNotFound}
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusFailed))
			Expect(snapshot.Failure.Kind).To(Equal(classify.NotYetCreated))
			Expect(mock.GetAnalysisCalls()).To(HaveLen(orchestrator.DefaultNotYetCreatedTolerance + 1))
		})

		It("fails immediately on a non-tolerated poll error", func() {
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				return nil, &client.Failure{Op: client.OpStatus, StatusCode: http.StatusInternalServerError}
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, time.Second).Should(BeClosed())

			Expect(mock.GetAnalysisCalls()).To(HaveLen(1))
			Expect(orch.Snapshot().Failure.Kind).To(Equal(classify.ServerError))
		})

		It("keeps at most one status request outstanding", func() {
			var inflight, maxInflight, polls int32
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				current := atomic.AddInt32(&inflight, 1)
				defer atomic.AddInt32(&inflight, -1)
				for {
					observed := atomic.LoadInt32(&maxInflight)
					if current <= observed || atomic.CompareAndSwapInt32(&maxInflight, observed, current) {
						break
					}
				}
				// Slower than several poll intervals; ticks must be skipped,
				// never queued.
				time.Sleep(15 * time.Millisecond)
				if atomic.AddInt32(&polls, 1) < 3 {
					return processingSnapshot(10, ""), nil
				}
				return completedSnapshot(50), nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Eventually(done, 2*time.Second).Should(BeClosed())

			Expect(atomic.LoadInt32(&maxInflight)).To(Equal(int32(1)))
			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusCompleted))
		})
	})

	Describe("Cancel", func() {
		It("is a no-op when no job is active", func() {
			orch.Cancel()
			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusIdle))
		})

		It("discards the response of an in-flight request", func() {
			entered := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				once.Do(func() { close(entered) })
				<-release
				return completedSnapshot(99), nil
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())

			Eventually(entered, time.Second).Should(BeClosed())
			orch.Cancel()
			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusCancelled))

			close(release)
			Eventually(done, time.Second).Should(BeClosed())

			// The late completed response must not resurrect the job.
			Consistently(func() orchestrator.Snapshot { return orch.Snapshot() }, 50*time.Millisecond).
				Should(Satisfy(func(s orchestrator.Snapshot) bool {
					return s.Status == orchestrator.StatusCancelled && s.Result == nil && s.Failure == nil
				}))
		})

		It("interrupts submission backoff", func() {
			cfg := testConfig()
			cfg.SubmitBackoff = []time.Duration{time.Hour}
			orch = orchestrator.New(mock, cfg)

			submitted := make(chan struct{})
			var once sync.Once
			mock.CreateAnalysisFunc = func(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error) {
				once.Do(func() { close(submitted) })
				return nil, &client.Failure{Op: client.OpSubmit, StatusCode: http.StatusServiceUnavailable}
			}

			done, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())

			Eventually(submitted, time.Second).Should(BeClosed())
			orch.Cancel()
			Eventually(done, time.Second).Should(BeClosed())
			Expect(orch.Snapshot().Status).To(Equal(orchestrator.StatusCancelled))
		})
	})

	Describe("restarts", func() {
		It("cancels the previous job before starting a new one", func() {
			var analyses int32
			mock.CreateAnalysisFunc = func(ctx context.Context, req api.AnalysisRequest) (*api.AnalysisCreated, error) {
				if atomic.AddInt32(&analyses, 1) == 1 {
					return &api.AnalysisCreated{ID: "analysis-1"}, nil
				}
				return &api.AnalysisCreated{ID: "analysis-2"}, nil
			}
			mock.GetAnalysisFunc = func(ctx context.Context, id string) (*api.AnalysisSnapshot, error) {
				if id == "analysis-1" {
					return processingSnapshot(10, ""), nil
				}
				return completedSnapshot(64), nil
			}

			first, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())

			second, err := orch.Start(context.Background(), validGate(), orchestrator.SubmitRequest{ResumeID: "r"})
			Expect(err).To(BeNil())
			Expect(first).To(BeClosed())

			Eventually(second, time.Second).Should(BeClosed())
			snapshot := orch.Snapshot()
			Expect(snapshot.Status).To(Equal(orchestrator.StatusCompleted))
			Expect(snapshot.ID).To(Equal("analysis-2"))
		})
	})
})
