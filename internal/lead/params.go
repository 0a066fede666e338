package lead

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DefaultLimit is used when SearchParams.Limit is left at zero.
const DefaultLimit = 10

// Limits is the fixed set of result counts a discovery request may ask for.
var Limits = []int{5, 10, 20, 30, 50, 75, 100}

// ErrMissingCriteria is returned when neither keyword+city nor free-text
// instructions were supplied.
var ErrMissingCriteria = errors.New("keyword and city are required unless instructions are provided")

// SearchParams is a discovery request.
type SearchParams struct {
	City         string `json:"city" validate:"max=120"`
	Country      string `json:"country" validate:"max=120"`
	Keyword      string `json:"keyword" validate:"max=200"`
	Limit        int    `json:"limit" validate:"oneof=5 10 20 30 50 75 100"`
	Instructions string `json:"instructions,omitempty" validate:"max=4000"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Normalize trims every text field and applies the default limit.
func (p SearchParams) Normalize() SearchParams {
	p.City = strings.TrimSpace(p.City)
	p.Country = strings.TrimSpace(p.Country)
	p.Keyword = strings.TrimSpace(p.Keyword)
	p.Instructions = strings.TrimSpace(p.Instructions)
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	return p
}

// HasInstructions reports whether free-text instructions were supplied.
func (p SearchParams) HasInstructions() bool {
	return strings.TrimSpace(p.Instructions) != ""
}

// Validate checks p after normalization. It never calls out to the network.
func (p SearchParams) Validate() error {
	p = p.Normalize()
	if (p.Keyword == "" || p.City == "") && p.Instructions == "" {
		return ErrMissingCriteria
	}
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q rule", strings.ToLower(fe.Field()), fe.Tag())
		}
		return err
	}
	return nil
}
