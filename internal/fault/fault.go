// Package fault defines the closed catalog of domain failures used across
// the relay, each carrying a stable code, a human message and an HTTP
// status mapping. Components return the most specific fault they can
// determine; no layer rewraps or reinterprets a fault produced deeper in
// the chain.
package fault

import (
	"net/http"

	"marketrelay/internal/model"
)

// Fault is a domain failure with a stable machine code and an HTTP status.
type Fault interface {
	error
	Detail() model.Error
	Status() int
}

type catalogFault struct {
	code    string
	message string
	status  int
}

func (f catalogFault) Error() string       { return f.message }
func (f catalogFault) Detail() model.Error { return model.Error{Code: f.code, Message: f.message} }
func (f catalogFault) Status() int         { return f.status }

// Registry lookup faults. The gateway directory is a server-side concern,
// so both map to 500.
var (
	LookupFailed       Fault = catalogFault{"REL_001", "registry lookup returned error", http.StatusInternalServerError}
	NoGateways         Fault = catalogFault{"REL_002", "no gateways available in registry", http.StatusInternalServerError}
	GatewayUnreachable Fault = catalogFault{"REL_007", "gateway could not be reached", http.StatusInternalServerError}
)

// Persistence faults. A poll before the callback arrived is NoRecord: the
// caller did nothing wrong, so it is reported as a server-side condition
// rather than a client error.
var (
	WriteFailed Fault = catalogFault{"REL_003", "error writing to store", http.StatusInternalServerError}
	ReadFailed  Fault = catalogFault{"REL_004", "error reading from store", http.StatusInternalServerError}
	NoRecord    Fault = catalogFault{"REL_005", "no message found for the given id", http.StatusInternalServerError}
)

// BadRequest covers request-shape violations such as an empty batch id
// list or a callback without a correlation id.
var BadRequest Fault = catalogFault{"REL_006", "bad or missing request parameters", http.StatusBadRequest}

// ProviderNack is an explicit negative acknowledgement from a downstream
// provider. Code, message and status are the provider's own; they are
// surfaced unchanged.
type ProviderNack struct {
	Code       string
	Message    string
	StatusCode int
}

func (f ProviderNack) Error() string { return f.Message }

func (f ProviderNack) Detail() model.Error {
	return model.Error{Code: f.Code, Message: f.Message}
}

func (f ProviderNack) Status() int {
	if f.StatusCode < 400 || f.StatusCode > 599 {
		return http.StatusBadGateway
	}
	return f.StatusCode
}

// Step is one fallible stage of a composed operation.
type Step func() Fault

// Chain evaluates steps in order and returns the first fault untouched,
// skipping the rest. A nil result means every step succeeded.
func Chain(steps ...Step) Fault {
	for _, step := range steps {
		if flt := step(); flt != nil {
			return flt
		}
	}
	return nil
}
