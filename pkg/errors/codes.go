package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal   ErrorCode = "COMMON_001"
	ErrCodeCancelled  ErrorCode = "COMMON_002"
	ErrCodeValidation ErrorCode = "COMMON_003"
)

// Configuration Error Codes. Raised before any store write; always fatal.
const (
	ErrCodeConfig            ErrorCode = "CFG_001"
	ErrCodeCredentialFile    ErrorCode = "CFG_002"
	ErrCodeDataDir           ErrorCode = "CFG_003"
	ErrCodeMissingTable      ErrorCode = "CFG_004"
	ErrCodeHeaderMismatch    ErrorCode = "CFG_005"
	ErrCodeSourceUnavailable ErrorCode = "CFG_006"
)

// Row Error Codes. Recovered per row and counted.
const (
	ErrCodeRowParse  ErrorCode = "ROW_001"
	ErrCodeReference ErrorCode = "REF_001"
)

// Database Error Codes
const (
	ErrCodeConnection ErrorCode = "DB_001"
	ErrCodeWrite      ErrorCode = "DB_002"
	ErrCodeSchema     ErrorCode = "DB_003"
)

// Run coordination Error Codes. Fatal before the store is touched.
const (
	ErrCodeRunLocked       ErrorCode = "RUN_001"
	ErrCodeLockUnavailable ErrorCode = "RUN_002"
)

const (
	CodeOK      = ErrorCode("OK")
	CodeUnknown = ErrorCode("UNKNOWN")
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:          "internal error",
	ErrCodeCancelled:         "run cancelled",
	ErrCodeValidation:        "validation failed",
	ErrCodeConfig:            "invalid configuration",
	ErrCodeCredentialFile:    "credential file unusable",
	ErrCodeDataDir:           "data directory unusable",
	ErrCodeMissingTable:      "required table missing",
	ErrCodeHeaderMismatch:    "table header lacks required columns",
	ErrCodeSourceUnavailable: "remote data source unavailable",
	ErrCodeRowParse:          "malformed row",
	ErrCodeReference:         "dangling reference",
	ErrCodeConnection:        "graph store connection failed",
	ErrCodeWrite:             "graph store rejected write",
	ErrCodeSchema:            "schema setup failed",
	ErrCodeRunLocked:         "another load holds the run lock",
	ErrCodeLockUnavailable:   "run lock store unavailable",
}

// DefaultMessageForCode returns the registered message or "unknown error".
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// Kind groups codes into the categories the run summary reports on.
type Kind string

const (
	KindConfig     Kind = "ConfigError"
	KindConnection Kind = "ConnectionError"
	KindRowParse   Kind = "RowParseError"
	KindReference  Kind = "ReferenceError"
	KindWrite      Kind = "WriteError"
	KindInternal   Kind = "InternalError"
)

// KindOf classifies a code by its module prefix.
func KindOf(code ErrorCode) Kind {
	switch {
	case strings.HasPrefix(string(code), "CFG_"):
		return KindConfig
	case code == ErrCodeConnection:
		return KindConnection
	case code == ErrCodeRowParse:
		return KindRowParse
	case code == ErrCodeReference:
		return KindReference
	case code == ErrCodeWrite:
		return KindWrite
	default:
		return KindInternal
	}
}

// ModuleForCode returns the module prefix of code, e.g. "CFG" for CFG_002.
func ModuleForCode(code ErrorCode) string {
	s := string(code)
	if i := strings.IndexByte(s, '_'); i > 0 {
		return s[:i]
	}
	return ""
}

//Personal.AI order the ending
