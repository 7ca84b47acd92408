package model

import (
	"encoding/json"
	"math"
)

// jsonFloat carries ±Inf through JSON as the strings "Infinity" and "-Infinity".
// A drafted number too large for float64 extracts as +Inf and must survive
// reporting and caching.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return json.Marshal(v)
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Infinity"`:
		*f = jsonFloat(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*f = jsonFloat(math.Inf(-1))
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = jsonFloat(v)
	return nil
}

func toJSONFloats(values []float64) []jsonFloat {
	if values == nil {
		return nil
	}
	out := make([]jsonFloat, len(values))
	for i, v := range values {
		out[i] = jsonFloat(v)
	}
	return out
}

func fromJSONFloats(values []jsonFloat) []float64 {
	if values == nil {
		return nil
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// verdictJSON mirrors Verdict field for field
type verdictJSON struct {
	Status           Status      `json:"status"`
	Reason           string      `json:"reason"`
	Hallucinations   []jsonFloat `json:"hallucinations,omitempty"`
	MatchedAddresses []string    `json:"matched_addresses"`
	Findings         []Finding   `json:"findings,omitempty"`
}

// MarshalJSON encodes the verdict, writing infinite hallucinations as strings
func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(verdictJSON{
		Status:           v.Status,
		Reason:           v.Reason,
		Hallucinations:   toJSONFloats(v.Hallucinations),
		MatchedAddresses: v.MatchedAddresses,
		Findings:         v.Findings,
	})
}

// UnmarshalJSON decodes a verdict written by MarshalJSON
func (v *Verdict) UnmarshalJSON(data []byte) error {
	var aux verdictJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*v = Verdict{
		Status:           aux.Status,
		Reason:           aux.Reason,
		Hallucinations:   fromJSONFloats(aux.Hallucinations),
		MatchedAddresses: aux.MatchedAddresses,
		Findings:         aux.Findings,
	}
	return nil
}

// findingJSON mirrors Finding field for field
type findingJSON struct {
	Value   jsonFloat `json:"value"`
	Match   MatchKind `json:"match"`
	Against float64   `json:"against,omitempty"`
	Comp    string    `json:"comp,omitempty"`
	Field   string    `json:"field,omitempty"`
}

// MarshalJSON encodes the finding, writing an infinite value as a string
func (f Finding) MarshalJSON() ([]byte, error) {
	return json.Marshal(findingJSON{
		Value:   jsonFloat(f.Value),
		Match:   f.Match,
		Against: f.Against,
		Comp:    f.Comp,
		Field:   f.Field,
	})
}

// UnmarshalJSON decodes a finding written by MarshalJSON
func (f *Finding) UnmarshalJSON(data []byte) error {
	var aux findingJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*f = Finding{
		Value:   float64(aux.Value),
		Match:   aux.Match,
		Against: aux.Against,
		Comp:    aux.Comp,
		Field:   aux.Field,
	}
	return nil
}
