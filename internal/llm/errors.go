package llm

import "fmt"

// excerptLimit bounds how much of an upstream body may appear in error
// details.
const excerptLimit = 200

// UnavailableError reports a cold-starting or overloaded model. The request
// may succeed if retried after WaitSeconds.
type UnavailableError struct {
	WaitSeconds int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("model is loading, retry in %d seconds", e.WaitSeconds)
}

// APIError reports a non-success status from the generation service, with a
// bounded excerpt of the response body for diagnostics.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("generation service returned status %d: %s", e.Status, e.Detail)
}

// MalformedResponseError reports a success status whose body could not be
// used: undecodable JSON, an empty choice list, or a choice without message
// content.
type MalformedResponseError struct {
	Reason string
}

func (e *MalformedResponseError) Error() string {
	return "invalid response from generation service: " + e.Reason
}

func excerpt(body []byte) string {
	if len(body) > excerptLimit {
		return string(body[:excerptLimit])
	}
	return string(body)
}
