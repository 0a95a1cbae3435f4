package extractor

import (
	"bcct-chatbot-be/pkg/lexicon"
	"bcct-chatbot-be/pkg/nlp"
)

// Context is the keyword picture of one sentence.
type Context struct {
	Contract    bool
	Parts       bool
	Failed      bool
	Customer    bool
	Opportunity bool
}

// DetectContext scans lower-cased text for the domain keyword groups.
// Part attributes such as price or MOQ count as parts language.
func DetectContext(lex *lexicon.Lexicon, lower string) Context {
	return Context{
		Contract:    lex.Has("contract", lower),
		Parts:       lex.Has("parts", lower) || lex.Has("part_attributes", lower),
		Failed:      lex.Has("failed", lower),
		Customer:    lex.Has("customer", lower),
		Opportunity: lex.Has("opportunity", lower),
	}
}

// FailedParts reports the failed-parts context: failure language next to parts language.
func (c Context) FailedParts() bool {
	return c.Failed && c.Parts
}

// ContractNumberAttribute picks the single attribute a 6-digit number lands on.
// Priority is failed-parts, then parts, then contracts.
func (c Context) ContractNumberAttribute() string {
	switch {
	case c.FailedParts():
		return nlp.AttrContractNo
	case c.Parts:
		return nlp.AttrLoadedCPNumber
	default:
		return nlp.AttrAwardNumber
	}
}

// PartNumberAttribute returns the column a part number filters on.
func (c Context) PartNumberAttribute() string {
	if c.FailedParts() {
		return nlp.AttrPartNumber
	}
	return nlp.AttrInvoicePartNumber
}

// TableHint names the table whose columns the context refers to.
func (c Context) TableHint() nlp.QueryType {
	switch {
	case c.FailedParts():
		return nlp.QueryFailedParts
	case c.Parts:
		return nlp.QueryParts
	default:
		return nlp.QueryContracts
	}
}
