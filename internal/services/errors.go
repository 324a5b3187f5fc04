package services

import "errors"

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrUserNotFound       = errors.New("user not found")

	ErrInvalidVerifyToken = errors.New("invalid verification token")
	ErrVerifyTokenExpired = errors.New("verification token has expired")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrResetTokenExpired  = errors.New("reset token has expired")
	ErrResetTokenUsed     = errors.New("reset token has already been used")

	ErrNoSubscription   = errors.New("no active subscription found")
	ErrUnknownPlan      = errors.New("invalid subscription plan")
	ErrNoStripeCustomer = errors.New("no stripe customer found")
	ErrMissingStripeID  = errors.New("invalid subscription - missing stripe id")

	ErrInsufficientTier = errors.New("this feature requires a higher subscription tier")
)

// ValidationError carries a user-facing message for malformed input;
// handlers map it to 400.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
