package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resumecurator/analyzer/internal/client"
)

type HealthOptions struct {
	GlobalOptions
}

func DefaultHealthOptions() *HealthOptions {
	return &HealthOptions{GlobalOptions: DefaultGlobalOptions()}
}

func NewCmdHealth() *cobra.Command {
	o := DefaultHealthOptions()
	cmd := &cobra.Command{
		Use:          "health",
		Short:        "check the reachability of the scoring service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			return o.Run(cmd.Context(), args)
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *HealthOptions) Run(ctx context.Context, args []string) error {
	cfg, err := o.LoadConfig()
	if err != nil {
		return err
	}

	analyzer, err := client.NewFromConfig(&client.Config{
		Service: client.Service{Server: cfg.ServiceURL},
	})
	if err != nil {
		return err
	}

	if err := analyzer.Health(ctx); err != nil {
		return err
	}
	fmt.Printf("%s is OK\n", cfg.ServiceURL)
	return nil
}
