package model

// Comparable represents one verified comparable sale used as ground truth
type Comparable struct {
	Address  string  `json:"address" yaml:"address"`                     // Street address (e.g., "12 Main St")
	Price    float64 `json:"price" yaml:"price"`                         // Sale price
	Sqft     float64 `json:"sqft" yaml:"sqft"`                           // Living area in square feet
	LotAcres float64 `json:"lotAcres" yaml:"lotAcres"`                   // Lot size in acres
	Remarks  string  `json:"remarks,omitempty" yaml:"remarks,omitempty"` // Listing remarks (screening only, never verified)
}

// DraftPair holds the generated texts under verification
type DraftPair struct {
	MMSDraft   string `json:"mmsDraft" yaml:"mmsDraft"`
	EmailDraft string `json:"emailDraft" yaml:"emailDraft"`
}

// Combined returns both drafts joined by a single space.
// Extraction treats the pair as one blob; which draft a number came from does not matter.
func (d DraftPair) Combined() string {
	return d.MMSDraft + " " + d.EmailDraft
}
