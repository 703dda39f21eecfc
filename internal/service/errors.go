package service

type ErrorCode string

const (
	ErrorCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrorCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrorCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrorCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrorCodeInvalidCode        ErrorCode = "INVALID_CODE"
	ErrorCodeConflict           ErrorCode = "CONFLICT"
	ErrorCodeTeamMissing        ErrorCode = "TEAM_MISSING"
	ErrorCodeUnspecified        ErrorCode = "UNSPECIFIED"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

func (e *Error) Error() string {
	return e.Message
}
