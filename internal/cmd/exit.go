package cmd

// Exit codes reported to the caller. Setup failures (configuration,
// browser, page, lock) are any other error returned from a command.
const (
	ExitSuccess          = 0
	ExitMandatoryFailure = 1
	ExitAuthExpired      = 2
	ExitSetupError       = 3
)

// ExitError carries a specific process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}
