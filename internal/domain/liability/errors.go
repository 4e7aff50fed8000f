package liability

import "errors"

var (
	ErrLiabilityNotFound     = errors.New("liability not found")
	ErrDeletionBlocked       = errors.New("liability has payments recorded, cannot delete")
	ErrAllocationOverflow    = errors.New("allocation exceeds remaining liability balance")
	ErrInvalidAllocation     = errors.New("allocation amount must be positive with at most 2 decimal places")
	ErrLiabilityWrongOwner   = errors.New("liability does not belong to this employee")
	ErrDuplicateAllocation   = errors.New("liability allocated more than once in the same batch")
	ErrInvalidLiabilityKind  = errors.New("invalid liability kind")
	ErrInvalidLiabilityValue = errors.New("liability amount must be positive")
)
