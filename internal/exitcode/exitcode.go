package exitcode

// Exit codes for llama-chat commands
const (
	Success = 0
	Error   = 1
	// NoBackend means no model could be loaded for the request.
	NoBackend = 2
	// BackendFailed means the backend answered with an error turn.
	BackendFailed = 3
	Cancelled     = 130 // 128 + SIGINT
)

// ExitError is an error that carries a specific exit code
type ExitError struct {
	Code    int
	Message string
}

func (e ExitError) Error() string {
	return e.Message
}

// Convenience constructors
func Failed(msg string) ExitError      { return ExitError{Code: BackendFailed, Message: msg} }
func Unavailable(msg string) ExitError { return ExitError{Code: NoBackend, Message: msg} }
func Cancel() ExitError                { return ExitError{Code: Cancelled, Message: "cancelled"} }
