package planner

// Classification is the bucket a desired fact lands in.
type Classification uint8

// Classifications. Every committed entry holds exactly one of the values
// after Unclassified.
const (
	Unclassified Classification = iota
	Satisfied
	AugmentExisting
	AddNew
	Skipped
	Rejected
)

var classificationNames = [...]string{
	Unclassified:    "unclassified",
	Satisfied:       "satisfied",
	AugmentExisting: "augment",
	AddNew:          "add",
	Skipped:         "skipped",
	Rejected:        "rejected",
}

// String returns the classification name.
func (c Classification) String() string {
	if int(c) < len(classificationNames) {
		return classificationNames[c]
	}
	return "unknown"
}

// Reason records why an entry produces a write. AfterClassify hooks see
// them on the entry.
type Reason string

// Reasons.
const (
	ReasonMissingProperty          Reason = "missing_property"
	ReasonMissingValue             Reason = "missing_value"
	ReasonNewClaimFromQualifier    Reason = "new_claim_from_qualifier"
	ReasonDifferentRank            Reason = "different_rank"
	ReasonMissingQualifierProperty Reason = "missing_qualifier_property"
	ReasonMissingQualifierValue    Reason = "missing_qualifier_value"
	ReasonMissingReference         Reason = "missing_reference"
)

// NewClaimAdded reports whether the reason creates a statement.
func (r Reason) NewClaimAdded() bool {
	switch r {
	case ReasonMissingProperty, ReasonMissingValue, ReasonNewClaimFromQualifier:
		return true
	}
	return false
}

// ClaimModified reports whether the reason changes a statement's main snak
// or rank.
func (r Reason) ClaimModified() bool {
	return r.NewClaimAdded() || r == ReasonDifferentRank
}

// QualifierAdded reports whether the reason adds a qualifier.
func (r Reason) QualifierAdded() bool {
	return r == ReasonMissingQualifierProperty || r == ReasonMissingQualifierValue
}

// Handle points at the fact an entry binds to. For an existing fact Index
// is its position in Record.Facts; for a Pending fact it is the index of the
// AddNew entry that will create it.
type Handle struct {
	Index   int
	ID      string
	Pending bool
}

// Valid reports whether the handle points at a fact.
func (h Handle) Valid() bool {
	return h.Index >= 0
}

var noHandle = Handle{Index: -1}
