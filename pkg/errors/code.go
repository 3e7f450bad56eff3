package errors

import "net/http"

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Problem module errors
// 13000-13999: Submission & Judge module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	DatabaseError     ErrorCode = 10100
	TransactionFailed ErrorCode = 10103

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Problem Module Errors (12000-12999) ==========

	ProblemNotFound     ErrorCode = 12000
	ProblemAccessDenied ErrorCode = 12001

	// Test cases (12100-12199)
	TestCaseNotFound ErrorCode = 12100

	// ========== Submission & Judge Module Errors (13000-13999) ==========

	// Submission (13000-13099)
	SubmissionNotFound     ErrorCode = 13000
	SubmissionCreateFailed ErrorCode = 13001
	CodeTooLarge           ErrorCode = 13002
	LanguageNotSupported   ErrorCode = 13003
	SubmitTooFrequently    ErrorCode = 13004

	// Judge (13100-13199)
	JudgeSystemError  ErrorCode = 13101
	CompilationError  ErrorCode = 13102
	JudgeRequestError ErrorCode = 13103
	JudgeTimeout      ErrorCode = 13104

	// Custom test (13200-13299)
	CustomTestFailed ErrorCode = 13200
)

var codeMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	TooManyRequests:     "Too many requests",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Request timeout",

	DatabaseError:     "Database error",
	TransactionFailed: "Transaction failed",
	CacheError:        "Cache error",

	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	ProblemNotFound:     "Problem not found",
	ProblemAccessDenied: "Problem access denied",
	TestCaseNotFound:    "Test case not found",

	SubmissionNotFound:     "Submission not found",
	SubmissionCreateFailed: "Failed to create submission",
	CodeTooLarge:           "Source code too large",
	LanguageNotSupported:   "Language not supported",
	SubmitTooFrequently:    "Submit too frequently",

	JudgeSystemError:  "Judge system error",
	CompilationError:  "Compilation error",
	JudgeRequestError: "Judge server request failed",
	JudgeTimeout:      "Judge server timeout",
	CustomTestFailed:  "Custom test failed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps the error code to an HTTP status code
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case Success:
		return http.StatusOK
	case InvalidParams, ValidationFailed, RequiredFieldEmpty,
		CodeTooLarge, LanguageNotSupported, TestCaseNotFound:
		return http.StatusBadRequest
	case NotFound, ProblemNotFound, SubmissionNotFound:
		return http.StatusNotFound
	case ProblemAccessDenied:
		return http.StatusForbidden
	case TooManyRequests, SubmitTooFrequently:
		return http.StatusTooManyRequests
	case ServiceUnavailable:
		return http.StatusServiceUnavailable
	case Timeout, JudgeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
