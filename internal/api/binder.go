package api

import (
	"fmt"

	"github.com/bytedance/sonic"
	playground "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sinanour/cultivate-sub001/internal/pkg/constants"
)

func NewBinder() echo.Binder {
	return &echo.DefaultBinder{}
}

// Validator adapts go-playground/validator to echo, mapping tag violations to
// the validation error kind.
type Validator struct {
	validate *playground.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: playground.New()}
}

func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	if fieldErrs, ok := err.(playground.ValidationErrors); ok && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return constants.ValidationError(fe.Field(), fmt.Sprintf("failed %q constraint", fe.Tag()))
	}
	return constants.ValidationError("request", err.Error())
}

// sonicSerializer swaps echo's JSON codec for sonic.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i any, _ string) error {
	return sonic.ConfigDefault.NewEncoder(c.Response()).Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i any) error {
	if err := sonic.ConfigDefault.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return constants.ValidationError("body", "malformed JSON")
	}
	return nil
}
