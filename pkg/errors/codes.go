package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// httpStatusConflict mirrors net/http for use from errors.go, which does not
// import net/http itself.
const httpStatusConflict = http.StatusConflict

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeExternalService    ErrorCode = "COMMON_013"
	ErrCodeNotImplemented     ErrorCode = "COMMON_014"
)

// Short aliases used by the factory functions in errors.go.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeUnauthorized = ErrCodeUnauthorized
	CodeForbidden    = ErrCodeForbidden
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeValidation   = ErrCodeValidation
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Auth Module Error Codes
const (
	ErrCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrCodeTokenExpired       ErrorCode = "AUTH_002"
	ErrCodeTokenInvalid       ErrorCode = "AUTH_003"
	ErrCodeSessionRevoked     ErrorCode = "AUTH_004"
	ErrCodeAccountSuspended   ErrorCode = "AUTH_005"
)

// User Module Error Codes
const (
	ErrCodeUserNotFound       ErrorCode = "USER_001"
	ErrCodeEmailTaken         ErrorCode = "USER_002"
	ErrCodeUsernameTaken      ErrorCode = "USER_003"
	ErrCodeUserHasAssignments ErrorCode = "USER_004"
	ErrCodeRoleChangeBlocked  ErrorCode = "USER_005"
	ErrCodeWeakPassword       ErrorCode = "USER_006"
)

// Profile Module Error Codes
const (
	ErrCodeProfileNotFound       ErrorCode = "PROFILE_001"
	ErrCodeProfileArchived       ErrorCode = "PROFILE_002"
	ErrCodeProfileHasAssignments ErrorCode = "PROFILE_003"
	ErrCodeResumeNotFound        ErrorCode = "PROFILE_004"
	ErrCodeResumeTooLarge        ErrorCode = "PROFILE_005"
)

// Assignment Module Error Codes
const (
	ErrCodeAssignmentNotFound  ErrorCode = "ASSIGN_001"
	ErrCodeAssignmentDuplicate ErrorCode = "ASSIGN_002"
	ErrCodeUserAlreadyAssigned ErrorCode = "ASSIGN_003"
	ErrCodeProfileAlreadyHeld  ErrorCode = "ASSIGN_004"
	ErrCodeAssigneeRoleInvalid ErrorCode = "ASSIGN_005"
)

// Target Module Error Codes
const (
	ErrCodeTargetNotFound      ErrorCode = "TARGET_001"
	ErrCodeTargetPeriodInvalid ErrorCode = "TARGET_002"
	ErrCodeTargetOverlap       ErrorCode = "TARGET_003"
	ErrCodeTargetNoAssignment  ErrorCode = "TARGET_004"
	ErrCodeTargetCountsInvalid ErrorCode = "TARGET_005"
)

// Progress Module Error Codes
const (
	ErrCodeProgressNotFound    ErrorCode = "PROGRESS_001"
	ErrCodeProgressDuplicate   ErrorCode = "PROGRESS_002"
	ErrCodeProgressFutureDate  ErrorCode = "PROGRESS_003"
	ErrCodeProgressNotAssigned ErrorCode = "PROGRESS_004"
)

// Lead Module Error Codes
const (
	ErrCodeLeadNotFound          ErrorCode = "LEAD_001"
	ErrCodeLeadInvalidTransition ErrorCode = "LEAD_002"
	ErrCodeLeadTerminalStatus    ErrorCode = "LEAD_003"
	ErrCodeLeadNotAssigned       ErrorCode = "LEAD_004"
)

// Report Module Error Codes
const (
	ErrCodeReportNotFound      ErrorCode = "REPORT_001"
	ErrCodeReportPeriodInvalid ErrorCode = "REPORT_002"
	ErrCodeReportGenFailed     ErrorCode = "REPORT_003"
	ErrCodeReportRenderFailed  ErrorCode = "REPORT_004"
	ErrCodeReportBadFormat     ErrorCode = "REPORT_005"
)

// Storage Error Codes
const (
	ErrCodeObjectNotFound ErrorCode = "STORAGE_001"
	ErrCodeUploadFailed   ErrorCode = "STORAGE_002"
	ErrCodeDownloadFailed ErrorCode = "STORAGE_003"
)

// Event / Messaging Error Codes
const (
	ErrCodePublishFailed ErrorCode = "EVENT_001"
	ErrCodeConsumeFailed ErrorCode = "EVENT_002"
	ErrCodeEventDecode   ErrorCode = "EVENT_003"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeSessionRevoked:     http.StatusUnauthorized,
	ErrCodeAccountSuspended:   http.StatusForbidden,

	ErrCodeUserNotFound:       http.StatusNotFound,
	ErrCodeEmailTaken:         http.StatusConflict,
	ErrCodeUsernameTaken:      http.StatusConflict,
	ErrCodeUserHasAssignments: http.StatusConflict,
	ErrCodeRoleChangeBlocked:  http.StatusConflict,
	ErrCodeWeakPassword:       http.StatusBadRequest,

	ErrCodeProfileNotFound:       http.StatusNotFound,
	ErrCodeProfileArchived:       http.StatusConflict,
	ErrCodeProfileHasAssignments: http.StatusConflict,
	ErrCodeResumeNotFound:        http.StatusNotFound,
	ErrCodeResumeTooLarge:        http.StatusRequestEntityTooLarge,

	ErrCodeAssignmentNotFound:  http.StatusNotFound,
	ErrCodeAssignmentDuplicate: http.StatusConflict,
	ErrCodeUserAlreadyAssigned: http.StatusConflict,
	ErrCodeProfileAlreadyHeld:  http.StatusConflict,
	ErrCodeAssigneeRoleInvalid: http.StatusBadRequest,

	ErrCodeTargetNotFound:      http.StatusNotFound,
	ErrCodeTargetPeriodInvalid: http.StatusBadRequest,
	ErrCodeTargetOverlap:       http.StatusConflict,
	ErrCodeTargetNoAssignment:  http.StatusBadRequest,
	ErrCodeTargetCountsInvalid: http.StatusBadRequest,

	ErrCodeProgressNotFound:    http.StatusNotFound,
	ErrCodeProgressDuplicate:   http.StatusConflict,
	ErrCodeProgressFutureDate:  http.StatusBadRequest,
	ErrCodeProgressNotAssigned: http.StatusForbidden,

	ErrCodeLeadNotFound:          http.StatusNotFound,
	ErrCodeLeadInvalidTransition: http.StatusConflict,
	ErrCodeLeadTerminalStatus:    http.StatusConflict,
	ErrCodeLeadNotAssigned:       http.StatusForbidden,

	ErrCodeReportNotFound:      http.StatusNotFound,
	ErrCodeReportPeriodInvalid: http.StatusBadRequest,
	ErrCodeReportGenFailed:     http.StatusInternalServerError,
	ErrCodeReportRenderFailed:  http.StatusInternalServerError,
	ErrCodeReportBadFormat:     http.StatusBadRequest,

	ErrCodeObjectNotFound: http.StatusNotFound,
	ErrCodeUploadFailed:   http.StatusInternalServerError,
	ErrCodeDownloadFailed: http.StatusInternalServerError,

	ErrCodePublishFailed: http.StatusInternalServerError,
	ErrCodeConsumeFailed: http.StatusInternalServerError,
	ErrCodeEventDecode:   http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeInvalidCredentials: "invalid email or password",
	ErrCodeTokenExpired:       "token expired",
	ErrCodeTokenInvalid:       "invalid token",
	ErrCodeSessionRevoked:     "session revoked",
	ErrCodeAccountSuspended:   "account suspended",

	ErrCodeUserNotFound:       "user not found",
	ErrCodeEmailTaken:         "email already in use",
	ErrCodeUsernameTaken:      "username already in use",
	ErrCodeUserHasAssignments: "user still holds assignments",
	ErrCodeRoleChangeBlocked:  "role change blocked by existing assignments",
	ErrCodeWeakPassword:       "password does not meet requirements",

	ErrCodeProfileNotFound:       "profile not found",
	ErrCodeProfileArchived:       "profile is archived",
	ErrCodeProfileHasAssignments: "profile still has assignments",
	ErrCodeResumeNotFound:        "resume not found",
	ErrCodeResumeTooLarge:        "resume file too large",

	ErrCodeAssignmentNotFound:  "assignment not found",
	ErrCodeAssignmentDuplicate: "assignment already exists",
	ErrCodeUserAlreadyAssigned: "user already holds a profile",
	ErrCodeProfileAlreadyHeld:  "profile already assigned",
	ErrCodeAssigneeRoleInvalid: "assignee role does not match assignment kind",

	ErrCodeTargetNotFound:      "target not found",
	ErrCodeTargetPeriodInvalid: "invalid target period",
	ErrCodeTargetOverlap:       "target period overlaps an existing target",
	ErrCodeTargetNoAssignment:  "no assignment for user and profile",
	ErrCodeTargetCountsInvalid: "invalid target counts",

	ErrCodeProgressNotFound:    "progress update not found",
	ErrCodeProgressDuplicate:   "progress already recorded for this date",
	ErrCodeProgressFutureDate:  "work date is in the future",
	ErrCodeProgressNotAssigned: "user does not hold this profile",

	ErrCodeLeadNotFound:          "lead entry not found",
	ErrCodeLeadInvalidTransition: "invalid lead status transition",
	ErrCodeLeadTerminalStatus:    "lead is in a terminal status",
	ErrCodeLeadNotAssigned:       "user is not assigned to this profile",

	ErrCodeReportNotFound:      "report not found",
	ErrCodeReportPeriodInvalid: "invalid report period",
	ErrCodeReportGenFailed:     "report generation failed",
	ErrCodeReportRenderFailed:  "report rendering failed",
	ErrCodeReportBadFormat:     "unsupported report format",

	ErrCodeObjectNotFound: "stored object not found",
	ErrCodeUploadFailed:   "object upload failed",
	ErrCodeDownloadFailed: "object download failed",

	ErrCodePublishFailed: "event publish failed",
	ErrCodeConsumeFailed: "event consume failed",
	ErrCodeEventDecode:   "event decode failed",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
