package chat

// Kind classifies every way a chat turn can fail. The HTTP layer switches on
// it exhaustively; failures are never matched by message text.
type Kind int

const (
	KindValidation Kind = iota
	KindAuth
	KindNotFound
	KindPersistence
	KindUnavailable
	KindGeneration
)

// Error is the single failure type crossing the orchestrator boundary.
type Error struct {
	Kind    Kind
	Message string
	Detail  string

	// WaitSeconds is set for KindUnavailable: the suggested retry delay.
	WaitSeconds int

	// UpstreamStatus is set for KindGeneration when the remote service
	// answered with a usable HTTP status; 0 otherwise.
	UpstreamStatus int
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

const detailLimit = 200

func truncateDetail(detail string) string {
	if len(detail) > detailLimit {
		return detail[:detailLimit]
	}
	return detail
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func authError() *Error {
	return &Error{Kind: KindAuth, Message: "Authentication required"}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func persistenceError(message string, cause error) *Error {
	e := &Error{Kind: KindPersistence, Message: message}
	if cause != nil {
		e.Detail = truncateDetail(cause.Error())
	}
	return e
}

func unavailableError(waitSeconds int) *Error {
	return &Error{Kind: KindUnavailable, WaitSeconds: waitSeconds,
		Message: "Model is loading"}
}

func generationError(message, detail string, upstreamStatus int) *Error {
	return &Error{Kind: KindGeneration, Message: message,
		Detail: truncateDetail(detail), UpstreamStatus: upstreamStatus}
}
