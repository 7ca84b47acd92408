package verify

import (
	"math"

	"github.com/ppiankov/factlock/internal/model"
)

// AllowedSet is the set of values a draft may contain verbatim.
// Membership is tested by linear scan with an absolute tolerance, never by exact or
// rounded-key lookup.
type AllowedSet struct {
	values []float64
	seen   map[float64]struct{}
}

// BuildAllowed returns {target} ∪ {price, sqft, lotAcres of every comparable} ∪ whitelist
func BuildAllowed(targetPrice float64, comps []model.Comparable, whitelist []float64) *AllowedSet {
	set := &AllowedSet{seen: make(map[float64]struct{})}

	set.add(targetPrice)
	for _, comp := range comps {
		set.add(comp.Price)
		set.add(comp.Sqft)
		set.add(comp.LotAcres)
	}
	for _, w := range whitelist {
		set.add(w)
	}

	return set
}

func (s *AllowedSet) add(v float64) {
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

// Values returns the distinct allowed values in insertion order
func (s *AllowedSet) Values() []float64 {
	out := make([]float64, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of distinct allowed values
func (s *AllowedSet) Len() int {
	return len(s.values)
}

// Match returns the first allowed value strictly within tolerance of n
func (s *AllowedSet) Match(n, tolerance float64) (float64, bool) {
	for _, a := range s.values {
		if within(n, a, tolerance) {
			return a, true
		}
	}
	return 0, false
}

// Delta is one derived magnitude a draft may legitimately quote
type Delta struct {
	Comp  string  // Address of the comparable
	Field string  // price, sqft or lotAcres
	Value float64 // |field - reference|
}

// deltas returns the three derived magnitudes for a comparable.
// Price deltas are measured against the target; sqft and lot deltas against fixed
// reference constants.
func deltas(comp model.Comparable, targetPrice float64, rules Rules) [3]Delta {
	return [3]Delta{
		{Comp: comp.Address, Field: "price", Value: math.Abs(comp.Price - targetPrice)},
		{Comp: comp.Address, Field: "sqft", Value: math.Abs(comp.Sqft - rules.SqftReference)},
		{Comp: comp.Address, Field: "lotAcres", Value: math.Abs(comp.LotAcres - rules.LotAcresReference)},
	}
}

