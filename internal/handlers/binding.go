package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
)

// Cross-field compatibility (incoterm vs transport mode) is a service
// concern; binding only rejects terms that are not Incoterms at all.
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("incoterm", validIncoterm)
	}
}

func validIncoterm(fl validator.FieldLevel) bool {
	switch domain.Incoterm(fl.Field().String()) {
	case domain.IncotermFOB, domain.IncotermCFR, domain.IncotermCIF, domain.IncotermFAS,
		domain.IncotermEXW, domain.IncotermFCA, domain.IncotermCPT, domain.IncotermCIP,
		domain.IncotermDAP, domain.IncotermDDP:
		return true
	}
	return false
}
