package integrations

import "errors"

// Registration and lifecycle errors. These are local programming errors
// (bad IDs, double registration) and are never retried.
var (
	ErrDuplicateRegistration = errors.New("integration is already registered")
	ErrUnknownRegistration   = errors.New("integration is not registered")
	ErrUnknownIntegration    = errors.New("unknown integration")
	ErrAlreadyRegistered     = errors.New("configuration is already registered")
	ErrNotRegistered         = errors.New("configuration is not registered")
	ErrUnknownSetting        = errors.New("unknown setting")
	ErrInvalidSetting        = errors.New("invalid setting value")
	ErrInvalidConfiguration  = errors.New("invalid integration configuration")
	ErrInitializeFailed      = errors.New("integration failed to initialize")
	ErrNotSupported          = errors.New("operation not supported by integration")
)
