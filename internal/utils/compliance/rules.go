// Package compliance checks trade-term legality against transport mode and
// required ancillary values. All functions are pure: same input, same result.
package compliance

import (
	"fmt"

	"github.com/kurniadi/customs_declaration_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// seaOnlyIncoterms are valid only when goods move by sea.
var seaOnlyIncoterms = map[domain.Incoterm]bool{
	domain.IncotermFOB: true,
	domain.IncotermCFR: true,
	domain.IncotermCIF: true,
	domain.IncotermFAS: true,
}

// allIncoterms is the closed set of trade terms the system accepts.
var allIncoterms = []domain.Incoterm{
	domain.IncotermEXW, domain.IncotermFCA, domain.IncotermFAS, domain.IncotermFOB,
	domain.IncotermCFR, domain.IncotermCIF, domain.IncotermCPT, domain.IncotermCIP,
	domain.IncotermDAP, domain.IncotermDDP,
}

// Violation is one failed compliance rule with a field hint for the caller.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) Error() string {
	return v.Message
}

// AllowedIncoterms returns the trade terms still legal for the given
// transport mode. Callers use it to disable invalid combinations up front
// rather than only rejecting after the fact.
func AllowedIncoterms(mode domain.TransportMode) []domain.Incoterm {
	allowed := make([]domain.Incoterm, 0, len(allIncoterms))
	for _, term := range allIncoterms {
		if mode != domain.TransportSea && seaOnlyIncoterms[term] {
			continue
		}
		allowed = append(allowed, term)
	}
	return allowed
}

// Validate checks the transport-mode x trade-term rule table and the
// ancillary-value requirements. It returns one Violation per broken rule.
func Validate(mode domain.TransportMode, term domain.Incoterm, freight, insurance decimal.Decimal) []Violation {
	var violations []Violation

	if seaOnlyIncoterms[term] && mode != domain.TransportSea {
		violations = append(violations, Violation{
			Field:   "incoterm",
			Message: fmt.Sprintf("trade term %s is only valid for SEA transport, not %s", term, mode),
		})
	}

	if term == domain.IncotermCIF || term == domain.IncotermCIP {
		if !freight.IsPositive() {
			violations = append(violations, Violation{
				Field:   "freightValue",
				Message: fmt.Sprintf("freight value must be greater than zero for trade term %s", term),
			})
		}
		if !insurance.IsPositive() {
			violations = append(violations, Violation{
				Field:   "insuranceValue",
				Message: fmt.Sprintf("insurance value must be greater than zero for trade term %s", term),
			})
		}
	}

	return violations
}
