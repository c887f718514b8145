package forms

import (
	"context"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/pkg/models"
)

const registerFailed = "Registration failed. Please try again."

type RegisterAPI interface {
	Register(ctx context.Context, name, email, password string) (*models.AuthResult, error)
}

// RegisterHandler receives a successful registration
type RegisterHandler interface {
	RegisterSucceeded(ctx context.Context, result models.AuthResult) error
}

// RegisterForm is the state behind the registration screen
type RegisterForm struct {
	Name                string
	Email               string
	Password            string
	ConfirmPassword     string
	Loading             bool
	Error               string
	ShowPassword        bool
	ShowConfirmPassword bool

	api     RegisterAPI
	handler RegisterHandler
}

func NewRegisterForm(api RegisterAPI, handler RegisterHandler) *RegisterForm {
	return &RegisterForm{api: api, handler: handler}
}

// Field names accepted by Set
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirmPassword"
)

// Set updates one field by name and clears any visible error.
// Unknown names are ignored.
func (f *RegisterForm) Set(field, value string) {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPassword:
		f.Password = value
	case FieldConfirmPassword:
		f.ConfirmPassword = value
	default:
		return
	}
	f.Error = ""
}

func (f *RegisterForm) Submit(ctx context.Context) error {
	f.Error = ""
	f.Loading = true
	defer func() { f.Loading = false }()

	if err := ValidateRegister(f.Name, f.Email, f.Password, f.ConfirmPassword); err != nil {
		f.Error = err.Error()
		return err
	}

	result, err := f.api.Register(ctx, f.Name, f.Email, f.Password)
	if err != nil {
		f.Error = api.Message(err, registerFailed)
		return err
	}
	if err := f.handler.RegisterSucceeded(ctx, *result); err != nil {
		f.Error = api.Message(err, registerFailed)
		return err
	}
	return nil
}
