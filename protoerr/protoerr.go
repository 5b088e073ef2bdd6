// Package protoerr defines the protocol-level error kinds named by spec
// section 7. Σ-protocol rejections are locally recovered by the caller
// (recorded in a correct/active bitmap, input carried forward as output);
// every other kind propagates to the session boundary and aborts it. These
// are ordinary error values, never panics: the teacher reserves panic for
// genuinely unreachable internal invariants (see the "Sanity check, this
// error should not happen" comments throughout multiparty/*.go), not for
// protocol-level failures a caller is expected to handle.
package protoerr

import "fmt"

// InputFormatError is raised when an on-disk or on-wire byte-tree fails to
// decode into the expected type, or a numeric range is violated.
type InputFormatError struct {
	Component string
	Reason    string
}

func (e *InputFormatError) Error() string {
	return fmt.Sprintf("%s: input format error: %s", e.Component, e.Reason)
}

// NewInputFormatError constructs an InputFormatError.
func NewInputFormatError(component, reason string) *InputFormatError {
	return &InputFormatError{Component: component, Reason: reason}
}

// ProtocolError is raised when an invariant is broken that cannot be locally
// recovered: fewer than t valid proofs, fewer than t correct decryption
// factors, an attempt to reuse a session, or a type/auxsid/width mismatch
// against what was expected.
type ProtocolError struct {
	Component string
	Reason    string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: protocol error: %s", e.Component, e.Reason)
}

// NewProtocolError constructs a ProtocolError.
func NewProtocolError(component, reason string) *ProtocolError {
	return &ProtocolError{Component: component, Reason: reason}
}

// ProofRejected is raised when a Σ-protocol's verification equations fail.
// Local recovery is to replace the party's output with its input and
// continue the session; it is the caller's responsibility to do so.
type ProofRejected struct {
	Component string
	Party     int
	Reason    string
}

func (e *ProofRejected) Error() string {
	return fmt.Sprintf("%s: proof rejected for party %d: %s", e.Component, e.Party, e.Reason)
}

// NewProofRejected constructs a ProofRejected.
func NewProofRejected(component string, party int, reason string) *ProofRejected {
	return &ProofRejected{Component: component, Party: party, Reason: reason}
}

// ExternalProofFailure is raised when a referenced collaborator (hash, PRG,
// group implementation) reports failure.
type ExternalProofFailure struct {
	Collaborator string
	Reason       string
}

func (e *ExternalProofFailure) Error() string {
	return fmt.Sprintf("external collaborator %s failed: %s", e.Collaborator, e.Reason)
}

// NewExternalProofFailure constructs an ExternalProofFailure.
func NewExternalProofFailure(collaborator, reason string) *ExternalProofFailure {
	return &ExternalProofFailure{Collaborator: collaborator, Reason: reason}
}

// OperatorAbort is raised when an operation is aborted at the operator's
// request (e.g. a destructive flag not passed).
type OperatorAbort struct {
	Reason string
}

func (e *OperatorAbort) Error() string {
	return fmt.Sprintf("operator abort: %s", e.Reason)
}

// NewOperatorAbort constructs an OperatorAbort.
func NewOperatorAbort(reason string) *OperatorAbort {
	return &OperatorAbort{Reason: reason}
}
