package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resumecurator/analyzer/internal/cli"
	"github.com/resumecurator/analyzer/pkg/log"
)

func main() {
	logLevel := os.Getenv("RESUME_ANALYZER_LOG_LEVEL")
	logger := log.InitLog(log.Level(logLevel))
	defer func() { _ = logger.Sync() }()

	undo := zap.ReplaceGlobals(logger)
	defer undo()

	command := NewAnalyzerCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewAnalyzerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyzer [flags] [options]",
		Short: "analyzer scores a resume against a job description.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(cli.NewCmdAnalyze())
	cmd.AddCommand(cli.NewCmdHealth())
	cmd.AddCommand(cli.NewCmdVersion())

	return cmd
}
