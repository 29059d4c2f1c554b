package opts

import (
	"context"

	"github.com/walteh/codemod/pkg/config"
	"github.com/walteh/codemod/pkg/executor"
	"github.com/walteh/codemod/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	// ConfigFile is the --config flag, empty means search the working directory
	ConfigFile string
	Debug      bool

	// Run is read once from the environment in main
	Run executor.RunConfig

	// Console is set before any command runs
	Console *log.Logger
}

// LoadConfig loads --config when set, otherwise the project file in the working directory.
func (o *RootOpts) LoadConfig(ctx context.Context) (*config.Config, error) {
	if o.ConfigFile != "" {
		return config.Load(ctx, o.ConfigFile)
	}
	return config.Find(ctx, ".")
}
