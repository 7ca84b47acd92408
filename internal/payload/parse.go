package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ppiankov/factlock/internal/model"
	"github.com/spf13/cast"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names ("lotAcres") rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Number is a JSON value coercible to float64: a number or a numeric string
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		raw = strings.TrimSpace(v)
	case float64:
	default:
		return fmt.Errorf("not a number: %s", string(data))
	}

	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return fmt.Errorf("not a number: %s", string(data))
	}

	*n = Number(f)
	return nil
}

type rawDrafts struct {
	MMSDraft   *string `json:"mmsDraft"`
	EmailDraft *string `json:"emailDraft"`
}

type rawComparable struct {
	Address  string  `json:"address"`
	Price    *Number `json:"price" validate:"required"`
	Sqft     *Number `json:"sqft" validate:"required"`
	LotAcres *Number `json:"lotAcres" validate:"required"`
	Remarks  string  `json:"remarks"`
}

// ParseDrafts parses a {"mmsDraft": ..., "emailDraft": ...} object.
// Absent or null fields are empty text.
func ParseDrafts(data []byte) (model.DraftPair, error) {
	if isNull(data) {
		return model.DraftPair{}, inputError("drafts", errors.New("expected a JSON object"))
	}

	var raw rawDrafts
	if err := json.Unmarshal(data, &raw); err != nil {
		return model.DraftPair{}, inputError("drafts", err)
	}

	var drafts model.DraftPair
	if raw.MMSDraft != nil {
		drafts.MMSDraft = *raw.MMSDraft
	}
	if raw.EmailDraft != nil {
		drafts.EmailDraft = *raw.EmailDraft
	}

	return drafts, nil
}

// ParseComparables parses a JSON array of comparables.
// Every comparable must carry price, sqft and lotAcres; one bad record fails the whole list.
func ParseComparables(data []byte) ([]model.Comparable, error) {
	if isNull(data) {
		return nil, inputError("comps", errors.New("expected a JSON array"))
	}

	var raw []rawComparable
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, inputError("comps", err)
	}

	comps := make([]model.Comparable, 0, len(raw))
	for i, rc := range raw {
		if err := validate.Struct(rc); err != nil {
			return nil, inputError(fmt.Sprintf("comps[%d]", i), describeValidation(err))
		}

		comps = append(comps, model.Comparable{
			Address:  rc.Address,
			Price:    float64(*rc.Price),
			Sqft:     float64(*rc.Sqft),
			LotAcres: float64(*rc.LotAcres),
			Remarks:  rc.Remarks,
		})
	}

	return comps, nil
}

// ParseTarget parses the target price scalar
func ParseTarget(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, inputError("targetPrice", ErrMissingTarget)
	}

	f, err := cast.ToFloat64E(s)
	if err != nil {
		return 0, inputError("targetPrice", fmt.Errorf("not a number: %q", s))
	}

	return f, nil
}

// parseTargetValue parses a target price given as any JSON value
func parseTargetValue(data json.RawMessage) (float64, error) {
	if len(bytes.TrimSpace(data)) == 0 || isNull(data) {
		return 0, inputError("targetPrice", ErrMissingTarget)
	}

	var n Number
	if err := json.Unmarshal(data, &n); err != nil {
		return 0, inputError("targetPrice", err)
	}

	return float64(n), nil
}

// describeValidation flattens validator errors into one readable error
func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		missing = append(missing, fe.Field())
	}

	return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
