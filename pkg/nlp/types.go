package nlp

import "strings"

type QueryType string

const (
	QueryContracts     QueryType = "CONTRACTS"
	QueryParts         QueryType = "PARTS"
	QueryFailedParts   QueryType = "FAILED_PARTS"
	QueryCustomers     QueryType = "CUSTOMERS"
	QueryOpportunities QueryType = "OPPORTUNITIES"
	QueryHelp          QueryType = "HELP"
	QueryQuickAction   QueryType = "QUICK_ACTION"
	QueryAmbiguous     QueryType = "AMBIGUOUS"
)

type Operation string

const (
	OpEquals       Operation = "="
	OpGreater      Operation = ">"
	OpLess         Operation = "<"
	OpGreaterEqual Operation = ">="
	OpLessEqual    Operation = "<="
	OpBetween      Operation = "BETWEEN"
	OpLike         Operation = "LIKE"
)

// BetweenSeparator joins the two bounds of a BETWEEN value.
const BetweenSeparator = "|"

// DisplayCount asks for a row count instead of rows. Other display columns
// next to it become the grouping.
const DisplayCount = "COUNT"

type Source string

const (
	SourceUserInput Source = "user_input"
	SourceExtracted Source = "extracted"
	SourceDefault   Source = "default"
)

type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityBlocker Severity = "BLOCKER"
)

// Error codes surfaced to the caller.
const (
	CodeParseFormat      = "PARSE_FORMAT"
	CodeMissingHeader    = "MISSING_HEADER"
	CodeFieldValidation  = "FIELD_VALIDATION_ERROR"
	CodeInvalidSelection = "DISAMBIGUATION_INVALID_SELECTION"
	CodeProcessing       = "PROCESSING_ERROR"
	CodeStaleContextFlag = "STALE_CONTEXT_FLAG"
	CodeCollaborator     = "COLLABORATOR_ERROR"
)

// Canonical attribute names produced by the extractor.
const (
	AttrAwardNumber       = "AWARD_NUMBER"
	AttrLoadedCPNumber    = "LOADED_CP_NUMBER"
	AttrContractNo        = "CONTRACT_NO"
	AttrCustomerNumber    = "CUSTOMER_NUMBER"
	AttrCustomerName      = "CUSTOMER_NAME"
	AttrOpportunityNumber = "OPPORTUNITY_NUMBER"
	AttrInvoicePartNumber = "INVOICE_PART_NUMBER"
	AttrPartNumber        = "PART_NUMBER"
	AttrCreatedBy         = "CREATED_BY"
	AttrStatus            = "STATUS"
	AttrCreateDate        = "CREATE_DATE"
	AttrCreationDate      = "CREATION_DATE"
	AttrEffectiveDate     = "EFFECTIVE_DATE"
	AttrExpirationDate    = "EXPIRATION_DATE"
)

// ContractNumberAttributes lists the three mutually exclusive homes of a
// 6-digit contract number, most specific first.
var ContractNumberAttributes = []string{AttrContractNo, AttrLoadedCPNumber, AttrAwardNumber}

// Correction records a single token rewrite made by the normalizer.
type Correction struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type NormalizedInput struct {
	Original    string       `json:"original"`
	Corrected   string       `json:"corrected"`
	Confidence  float64      `json:"confidence"`
	Corrections []Correction `json:"corrections,omitempty"`
}

// Changed reports whether the normalizer rewrote anything.
func (n NormalizedInput) Changed() bool {
	return len(n.Corrections) > 0
}

type EntityFilter struct {
	Attribute string    `json:"attribute"`
	Operation Operation `json:"operation"`
	Value     string    `json:"value"`
	Source    Source    `json:"source"`
}

// Key identifies a filter for deduplication.
func (e EntityFilter) Key() string {
	return e.Attribute + "\x00" + string(e.Operation) + "\x00" + e.Value
}

// Bounds splits a BETWEEN value into its lower and upper bound.
func (e EntityFilter) Bounds() (string, string, bool) {
	lo, hi, ok := strings.Cut(e.Value, BetweenSeparator)
	return lo, hi, ok && e.Operation == OpBetween
}

type QueryClassification struct {
	QueryType       QueryType `json:"queryType"`
	ActionType      string    `json:"actionType"`
	Confidence      float64   `json:"confidence"`
	DisplayEntities []string  `json:"displayEntities"`
}

type ValidationError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

func (v ValidationError) IsBlocker() bool { return v.Severity == SeverityBlocker }

// HasBlocker reports whether any error halts processing.
func HasBlocker(errs []ValidationError) bool {
	for _, e := range errs {
		if e.IsBlocker() {
			return true
		}
	}
	return false
}

// FindEntity returns the first filter on attribute.
func FindEntity(entities []EntityFilter, attribute string) (EntityFilter, bool) {
	for _, e := range entities {
		if e.Attribute == attribute {
			return e, true
		}
	}
	return EntityFilter{}, false
}
