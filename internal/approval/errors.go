package approval

import "errors"

var (
	// ErrValidation rejects malformed input before any state is written.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden rejects callers that are not current signers of the wallet.
	ErrForbidden = errors.New("caller is not a signer of this wallet")
	// ErrNotFound reports a missing wallet or proposal.
	ErrNotFound = errors.New("not found")
	// ErrConflict reports an operation the current state does not allow.
	ErrConflict = errors.New("state conflict")
	// ErrLedger reports a failed submission. The claim has been released and
	// the proposal stays pending, so the operation may be retried.
	ErrLedger = errors.New("ledger submission failed")
	// ErrFatalConfig reports a signing key that does not control the wallet's
	// account. Retrying cannot succeed until the data is repaired.
	ErrFatalConfig = errors.New("signing key configuration error")
)

// IsRetryable reports whether err leaves the proposal open for another attempt.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrLedger)
}
