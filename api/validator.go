package api

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// moneyValidation accepts strictly positive decimal strings, e.g.
// "350.00". Scale beyond two digits is rejected to keep amounts on the
// wire aligned with the ledger's fixed-point representation.
var moneyValidation validator.Func = func(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Exponent() >= -2
}

func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("money", moneyValidation)
	}
}
