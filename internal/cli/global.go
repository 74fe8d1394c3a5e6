package cli

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/resumecurator/analyzer/internal/config"
)

type GlobalOptions struct {
	ConfigFile string
	ServiceURL string
}

func DefaultGlobalOptions() GlobalOptions {
	return GlobalOptions{}
}

func (o *GlobalOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", "", "Path to the analyzer configuration file.")
	fs.StringVar(&o.ServiceURL, "service-url", "", "Base URL of the scoring service, overrides the configuration.")
}

func (o *GlobalOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

// LoadConfig builds the configuration from the environment, an optional
// config file and the command line overrides, in that order.
func (o *GlobalOptions) LoadConfig() (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}

	cfgFile := o.ConfigFile
	if cfgFile == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			cfgFile = config.DefaultConfigFile
		}
	}
	if cfgFile != "" {
		if err := cfg.ParseConfigFile(cfgFile); err != nil {
			return nil, err
		}
		zap.S().Debugf("loaded configuration from %s", cfgFile)
	}

	if o.ServiceURL != "" {
		cfg.ServiceURL = o.ServiceURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
