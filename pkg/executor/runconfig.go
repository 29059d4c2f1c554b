package executor

// EnvMode selects the run mode, "local" enables development behavior
const EnvMode = "CODEMOD_ENV"

// 🧰 RunConfig holds mode switches read once at startup
type RunConfig struct {
	// Verbose logs the full worker command line before each run
	Verbose bool
	// PersistErrors appends failures to the error log
	PersistErrors bool
}

// Development reports whether both development switches are on.
func (c RunConfig) Development() bool {
	return c.Verbose && c.PersistErrors
}

// RunConfigFromEnv derives the run mode from getenv.
func RunConfigFromEnv(getenv func(string) string) RunConfig {
	if getenv(EnvMode) == "local" {
		return RunConfig{Verbose: true, PersistErrors: true}
	}
	return RunConfig{}
}
