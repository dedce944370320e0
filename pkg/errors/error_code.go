package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidCandle        ErrorCode = 102
	ErrCodeInvalidReading       ErrorCode = 103
	ErrCodeInsufficientData     ErrorCode = 104
	ErrCodeInvalidType          ErrorCode = 105
	ErrCodeInvalidPeriod        ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107
	ErrCodeInvalidVersion       ErrorCode = 108
	ErrCodeInvalidMultiplier    ErrorCode = 109
	ErrCodeInvalidThreshold     ErrorCode = 110
	ErrCodeInvalidTimeWindow    ErrorCode = 111

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyNotSet       ErrorCode = 400
	ErrCodeStrategyConfigError  ErrorCode = 401
	ErrCodeRuleNotFound         ErrorCode = 402
	ErrCodeRuleAlreadyExists    ErrorCode = 403
	ErrCodeRuleEvaluationFailed ErrorCode = 404
	ErrCodeUnknownPreset        ErrorCode = 405

	// Engine errors (500-599)
	ErrCodeEngineClosed ErrorCode = 500

	// Publishing errors (600-699)
	ErrCodePublishFailed ErrorCode = 600
)
