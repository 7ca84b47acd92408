package payload

import (
	"errors"
	"testing"

	"github.com/ppiankov/factlock/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDrafts(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    model.DraftPair
		wantErr bool
	}{
		{"both", `{"mmsDraft": "a", "emailDraft": "b"}`, model.DraftPair{MMSDraft: "a", EmailDraft: "b"}, false},
		{"missing email", `{"mmsDraft": "a"}`, model.DraftPair{MMSDraft: "a"}, false},
		{"null field", `{"mmsDraft": null, "emailDraft": "b"}`, model.DraftPair{EmailDraft: "b"}, false},
		{"empty object", `{}`, model.DraftPair{}, false},
		{"unknown fields ignored", `{"mmsDraft": "a", "subject": "x"}`, model.DraftPair{MMSDraft: "a"}, false},
		{"null", `null`, model.DraftPair{}, true},
		{"array", `["a"]`, model.DraftPair{}, true},
		{"string", `"a"`, model.DraftPair{}, true},
		{"number field", `{"mmsDraft": 5}`, model.DraftPair{}, true},
		{"malformed", `{"mmsDraft": `, model.DraftPair{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDrafts([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseComparables(t *testing.T) {
	input := `[
		{"address": "12 Main St", "price": 480000, "sqft": 1500, "lotAcres": 0.3},
		{"address": "14 Main St", "price": "495000", "sqft": " 1600 ", "lotAcres": "0.25", "remarks": "new roof"},
		{"price": 0, "sqft": 0, "lotAcres": 0}
	]`

	comps, err := ParseComparables([]byte(input))
	require.NoError(t, err)
	require.Len(t, comps, 3)

	assert.Equal(t, model.Comparable{Address: "12 Main St", Price: 480000, Sqft: 1500, LotAcres: 0.3}, comps[0])
	assert.Equal(t, 1600.0, comps[1].Sqft)
	assert.Equal(t, 0.25, comps[1].LotAcres)
	assert.Equal(t, "new roof", comps[1].Remarks)
	assert.Equal(t, "", comps[2].Address)
}

func TestParseComparables_NumericStrings(t *testing.T) {
	comps, err := ParseComparables([]byte(`[{"price": "480000", "sqft": "1500.5", "lotAcres": "1"}]`))
	require.NoError(t, err)
	assert.Equal(t, model.Comparable{Price: 480000, Sqft: 1500.5, LotAcres: 1}, comps[0])
}

func TestParseComparables_Empty(t *testing.T) {
	comps, err := ParseComparables([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, comps)
}

func TestParseComparables_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		field   string
		message string
	}{
		{"null", `null`, "comps", "expected a JSON array"},
		{"object", `{"price": 1}`, "comps", ""},
		{"missing lotAcres", `[{"price": 1, "sqft": 2}]`, "comps[0]", "lotAcres"},
		{"null price", `[{"price": null, "sqft": 2, "lotAcres": 1}]`, "comps[0]", "price"},
		{"second record missing sqft", `[{"price": 1, "sqft": 2, "lotAcres": 1}, {"price": 1, "lotAcres": 1}]`, "comps[1]", "sqft"},
		{"not a number", `[{"price": "TBD", "sqft": 2, "lotAcres": 1}]`, "comps", "not a number"},
		{"bool", `[{"price": true, "sqft": 2, "lotAcres": 1}]`, "comps", "not a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseComparables([]byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)

			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.field, inputErr.Field)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input   string
		want    float64
		wantErr error
	}{
		{"500000", 500000, nil},
		{" 500000.0 ", 500000, nil},
		{"0", 0, nil},
		{"", 0, ErrMissingTarget},
		{"   ", 0, ErrMissingTarget},
		{"five hundred", 0, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInputError(t *testing.T) {
	err := inputError("comps[1]", errors.New("missing required field(s): sqft"))
	assert.Equal(t, "invalid input comps[1]: missing required field(s): sqft", err.Error())

	bare := &InputError{Err: ErrMissingTarget}
	assert.Equal(t, "invalid input: target price is required", bare.Error())
	assert.ErrorIs(t, bare, ErrMissingTarget)
}
