package cutstock

import "errors"

var (
	ErrMalformedInstance  = errors.New("malformed instance")
	ErrInvalidInstance    = errors.New("invalid instance")
	ErrPieceTooLong       = errors.New("piece size exceeds board length")
	ErrMasterSolve        = errors.New("master solve failed")
	ErrPricingSolve       = errors.New("pricing solve failed")
	ErrNonIntegralPattern = errors.New("pricing returned a non integral pattern")
	ErrPatternDoesNotFit  = errors.New("pattern does not fit on a board")
	ErrNonIntegralUsage   = errors.New("integer master returned a non integral usage")
	ErrControllerUsed     = errors.New("controller has already run")
	ErrIntegerMaster      = errors.New("master model has been converted to integer")
)
