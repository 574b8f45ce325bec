package auth

import "fmt"

// Коды ошибок аутентификации - фиксированный набор, совместимый с кодами
// внешнего провайдера идентичности
const (
	CodeInvalidEmail      = "auth/invalid-email"
	CodeUserDisabled      = "auth/user-disabled"
	CodeUserNotFound      = "auth/user-not-found"
	CodeWrongPassword     = "auth/wrong-password"
	CodeEmailInUse        = "auth/email-already-in-use"
	CodeWeakPassword      = "auth/weak-password"
	CodeInvalidCredential = "auth/invalid-credential"
)

type AuthError struct {
	Code string
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
	}
	return e.Code
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func NewAuthError(code string, err error) *AuthError {
	return &AuthError{Code: code, Err: err}
}

var userMessages = map[string]string{
	CodeInvalidEmail:      "Invalid email address.",
	CodeUserDisabled:      "User account is disabled.",
	CodeUserNotFound:      "No account found with this email.",
	CodeWrongPassword:     "Incorrect password.",
	CodeEmailInUse:        "Email is already in use.",
	CodeWeakPassword:      "Password should be at least 6 characters.",
	CodeInvalidCredential: "Invalid credentials.",
}

// UserMessage отображает код ошибки в сообщение для пользователя.
// Незнакомый код отдаётся как есть вместе с текстом ошибки.
func UserMessage(err error) string {
	authErr, ok := err.(*AuthError)
	if !ok {
		return "An error occurred. Please try again."
	}
	if msg, ok := userMessages[authErr.Code]; ok {
		return msg
	}
	detail := ""
	if authErr.Err != nil {
		detail = authErr.Err.Error()
	}
	return fmt.Sprintf("Error: %s (%s)", detail, authErr.Code)
}
