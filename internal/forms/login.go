package forms

import (
	"context"
	"errors"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/pkg/models"
)

const loginFailed = "Login failed. Please try again."

// LoginAPI is the backend call the login form needs
type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
}

// LoginHandler receives a successful login
type LoginHandler interface {
	LoginSucceeded(ctx context.Context, result models.AuthResult) error
}

// LoginForm is the state behind the login screen
type LoginForm struct {
	Email        string
	Password     string
	Loading      bool
	Error        string
	ShowPassword bool

	api     LoginAPI
	handler LoginHandler
}

func NewLoginForm(api LoginAPI, handler LoginHandler) *LoginForm {
	return &LoginForm{api: api, handler: handler}
}

// SetEmail updates the email and clears any visible error
func (f *LoginForm) SetEmail(v string) {
	f.Email = v
	f.Error = ""
}

func (f *LoginForm) SetPassword(v string) {
	f.Password = v
	f.Error = ""
}

func (f *LoginForm) TogglePassword() {
	f.ShowPassword = !f.ShowPassword
}

// Submit validates and logs in. The returned error is also stored in Error;
// inputs are left untouched on failure so the user can correct and retry.
func (f *LoginForm) Submit(ctx context.Context) error {
	f.Error = ""
	f.Loading = true
	defer func() { f.Loading = false }()

	if err := ValidateLogin(f.Email, f.Password); err != nil {
		f.Error = err.Error()
		return err
	}

	result, err := f.api.Login(ctx, f.Email, f.Password)
	if err != nil {
		f.Error = api.Message(err, loginFailed)
		return err
	}
	if err := f.handler.LoginSucceeded(ctx, *result); err != nil {
		f.Error = api.Message(err, loginFailed)
		return err
	}
	return nil
}

// IsValidationError reports whether err was raised locally by a form
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
