package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/resumecurator/analyzer/internal/agent"
	"github.com/resumecurator/analyzer/internal/orchestrator"
)

type AnalyzeOptions struct {
	GlobalOptions
	resumePath      string
	description     string
	descriptionFile string
	output          string
}

func DefaultAnalyzeOptions() *AnalyzeOptions {
	return &AnalyzeOptions{
		GlobalOptions: DefaultGlobalOptions(),
		output:        "summary",
	}
}

func NewCmdAnalyze() *cobra.Command {
	o := DefaultAnalyzeOptions()
	cmd := &cobra.Command{
		Use:          "analyze",
		Short:        "analyze a resume against a job description",
		Example:      "analyze --resume resume.pdf --description-file job.txt",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())

	for _, flag := range []string{"resume"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}

	return cmd
}

func (o *AnalyzeOptions) Bind(fs *pflag.FlagSet) {
	o.GlobalOptions.Bind(fs)
	fs.StringVar(&o.resumePath, "resume", "", "Path to the resume document (.pdf, .doc, .docx).")
	fs.StringVar(&o.description, "description", "", "Job description text.")
	fs.StringVar(&o.descriptionFile, "description-file", "", "Path to a file containing the job description.")
	fs.StringVar(&o.output, "output", o.output, "Output format, one of: summary, json.")
}

func (o *AnalyzeOptions) Complete(cmd *cobra.Command, args []string) error {
	if o.description == "" && o.descriptionFile != "" {
		contents, err := os.ReadFile(o.descriptionFile)
		if err != nil {
			return errors.Wrap(err, "reading description file")
		}
		o.description = string(contents)
	}
	return nil
}

func (o *AnalyzeOptions) Validate(args []string) error {
	if o.description == "" {
		return errors.New("either --description or --description-file is required")
	}
	if o.output != "summary" && o.output != "json" {
		return errors.Errorf("unknown output format %q", o.output)
	}
	return nil
}

func (o *AnalyzeOptions) Run(ctx context.Context, args []string) error {
	cfg, err := o.LoadConfig()
	if err != nil {
		return err
	}

	agentInstance, err := agent.New(cfg)
	if err != nil {
		return err
	}

	snapshot, err := agentInstance.Run(ctx, agent.AnalysisInput{
		ResumePath:     o.resumePath,
		JobDescription: o.description,
	})
	if err != nil {
		return err
	}

	return o.render(snapshot)
}

func (o *AnalyzeOptions) render(snapshot orchestrator.Snapshot) error {
	if o.output == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	}

	switch snapshot.Status {
	case orchestrator.StatusCompleted:
		result := snapshot.Result
		fmt.Printf("Overall score: %.1f/100 (confidence %.2f)\n", result.OverallScore, result.Confidence)
		for _, name := range []string{"skills", "experience", "education"} {
			fmt.Printf("  %-12s %.1f\n", name, result.ComponentScores[name])
		}
		if result.Incomplete {
			fmt.Println("  (some component scores were missing and defaulted to 0)")
		}
		if len(result.MissingSkills) > 0 {
			fmt.Printf("Missing skills: %v\n", result.MissingSkills)
		}
		for _, rec := range result.Recommendations {
			fmt.Printf("- %s", rec.Title)
			if rec.Action != "" {
				fmt.Printf(": %s", rec.Action)
			}
			fmt.Println()
		}
		return nil

	case orchestrator.StatusFailed:
		return errors.Errorf("analysis failed: %s", snapshot.Failure.UserMessage())

	case orchestrator.StatusCancelled:
		fmt.Println("analysis cancelled")
		return nil

	default:
		return errors.Errorf("unexpected terminal status %q", snapshot.Status)
	}
}
