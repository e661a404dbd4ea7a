package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrAdminAccessOnly    ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam session ──────────────────────────────────────────────────
	ErrNoActiveExams    ErrCode = "NO_ACTIVE_EXAMS"
	ErrNoSession        ErrCode = "NO_SESSION"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrTimeExpired      ErrCode = "TIME_EXPIRED"
	ErrNoQuestions      ErrCode = "NO_QUESTIONS"
	ErrNoAnswerKey      ErrCode = "NO_ANSWER_KEY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrStoreUnavailable ErrCode = "STORE_UNAVAILABLE"
	ErrInternal         ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Messages are distinct enough to drive UI messaging without leaking
// internals.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrInvalidCredentials:
		return "Invalid exam code or password."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid or has expired."
	case ErrAdminAccessOnly:
		return "This resource is restricted to administrators."
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid identifier format."
	case ErrInvalidPayload:
		return "The request payload is invalid."
	case ErrNotFound:
		return "The requested resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrNoActiveExams:
		return "There are no active exams for your class right now."
	case ErrNoSession:
		return "No exam session exists. Request the questions first."
	case ErrAlreadySubmitted:
		return "This exam has already been submitted."
	case ErrTimeExpired:
		return "Time has expired for this exam."
	case ErrNoQuestions:
		return "This exam has no questions yet."
	case ErrNoAnswerKey:
		return "This exam is misconfigured. Please contact your administrator."
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again shortly."
	case ErrStoreUnavailable:
		return "The service is temporarily unavailable. Please retry."
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
