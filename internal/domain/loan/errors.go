package loan

import "loanledger/internal/domain/apperr"

var (
	ErrNotFound          = apperr.NotFound("loan not found")
	ErrNotPending        = apperr.InvalidState("only pending loans can be approved")
	ErrNotPendingReject  = apperr.InvalidState("only pending loans can be rejected")
	ErrNotApproved       = apperr.InvalidState("only approved loans can be disbursed")
	ErrNotRepayable      = apperr.InvalidState("payments are only accepted on disbursed or active loans")
	ErrNotDefaultable    = apperr.InvalidState("only disbursed or active loans can be marked defaulted")
	ErrInvalidTransition = apperr.InvalidState("invalid loan status transition")
)
