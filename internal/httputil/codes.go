package httputil

// Machine-readable error codes returned in the "code" field.
const (
	CodeInvalidRequestBody = "INVALID_REQUEST_BODY"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeTooManyRequests    = "TOO_MANY_REQUESTS"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"

	CodeMissingAuth        = "MISSING_AUTH"
	CodeInvalidAuthHeader  = "INVALID_AUTH_HEADER"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeInvalidTokenUserID = "INVALID_TOKEN_USER_ID"

	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeUsernameTaken        = "USERNAME_TAKEN"
	CodeEmailTaken           = "EMAIL_TAKEN"
	CodeAlreadyVerified      = "ALREADY_VERIFIED"
	CodeInvalidCode          = "INVALID_VERIFICATION_CODE"
	CodeCodeExpired          = "VERIFICATION_CODE_EXPIRED"
	CodeTooManyAttempts      = "TOO_MANY_VERIFICATION_ATTEMPTS"
	CodeEmailSendFailed      = "EMAIL_SEND_FAILED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeAccountNotVerified   = "ACCOUNT_NOT_VERIFIED"
	CodeRefreshTokenRequired = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken  = "INVALID_REFRESH_TOKEN"
	CodeIncorrectPassword    = "INCORRECT_PASSWORD"

	CodeNotAcceptingMessages = "NOT_ACCEPTING_MESSAGES"
	CodeMessageNotFound      = "MESSAGE_NOT_FOUND"
	CodeInvalidMessageID     = "INVALID_MESSAGE_ID"
)
