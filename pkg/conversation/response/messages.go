package response

import (
	"fmt"
	"strings"

	"bcct-chatbot-be/pkg/nlp"
)

const (
	MsgCancelled          = "Okay, I cancelled that. What would you like to do next?"
	MsgChecklistSkipped   = "Okay, no checklist for now. What would you like to do next?"
	MsgContractDiscarded  = "Okay, I discarded the contract details. Nothing was created."
	MsgChecklistTarget    = "Which contract is the checklist for? Please reply with its 6-digit contract number."
	MsgProcessingError    = "Something went wrong while processing your request. Please try again in a moment."
	MsgQueryFailed        = "I could not run that search right now. Please try again in a moment."
	MsgYesNo              = "Please reply yes or no."
	MsgMissingIdentifiers = "I could not find a contract number, part number, customer number or opportunity number in your request, " +
		"and it did not mention contracts, parts, customers or opportunities. " +
		"Try something like \"show contract 123456\", \"parts for contract 123456\", \"customer 1234567\" or \"opportunity CRF12345\"."
)

var nouns = map[nlp.QueryType][2]string{
	nlp.QueryContracts:     {"contract", "contracts"},
	nlp.QueryParts:         {"part", "parts"},
	nlp.QueryFailedParts:   {"failed part", "failed parts"},
	nlp.QueryCustomers:     {"customer", "customers"},
	nlp.QueryOpportunities: {"opportunity", "opportunities"},
}

func noun(qt nlp.QueryType, n int) string {
	forms, ok := nouns[qt]
	if !ok {
		forms = [2]string{"record", "records"}
	}
	if n == 1 {
		return forms[0]
	}
	return forms[1]
}

// QueryResult describes a finished search.
func QueryResult(qt nlp.QueryType, display []string, rows int) string {
	for _, d := range display {
		if d == nlp.DisplayCount {
			if rows == 0 {
				return "There is nothing to count for that request."
			}
			return "Here are the counts you asked for."
		}
	}
	if rows == 0 {
		return fmt.Sprintf("No %s matched your request.", noun(qt, 0))
	}
	return fmt.Sprintf("I found %d %s.", rows, noun(qt, rows))
}

// PromptFields asks for the fields still missing from a flow.
func PromptFields(what string, fields []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "To %s I still need:\n", what)
	for i, f := range fields {
		fmt.Fprintf(&b, "%d. %s\n", i+1, f)
	}
	b.WriteString("You can send them one at a time or together, for example \"" + fields[0] + ": ...\".")
	return b.String()
}

func FieldInvalid(field, value, reason string) string {
	if value == "" {
		return fmt.Sprintf("%s %s.", field, reason)
	}
	return fmt.Sprintf("%s '%s' %s.", field, value, reason)
}

func ConfirmContract(summary string) string {
	return "Here is the contract I am about to create:\n" + summary + "\nShall I create it? " + MsgYesNo
}

func ContractCreated(id string) string {
	return fmt.Sprintf("Contract %s was created. Would you like to create a checklist for it? %s", id, MsgYesNo)
}

func ConfirmChecklist(contractID, summary string) string {
	return fmt.Sprintf("Here is the checklist for contract %s:\n%s\nShall I save it? %s", contractID, summary, MsgYesNo)
}

func ChecklistFieldsReset(contractID string) string {
	return fmt.Sprintf("Okay, let's enter the checklist for contract %s again.", contractID)
}

func CreateFailed(what, detail string) string {
	msg := fmt.Sprintf("I could not %s.", what)
	if detail != "" {
		msg += " " + detail
	}
	return msg + " Reply yes to try again or cancel to stop."
}

// ChooseCandidate lists the candidates in the order the selection refers to.
func ChooseCandidate(name string, candidates []string) string {
	return fmt.Sprintf("I found %d users matching '%s'. Which one did you mean? Reply with the number or the full name:\n%s",
		len(candidates), name, numbered(candidates))
}

func InvalidSelection(reply string, candidates []string) string {
	return fmt.Sprintf("'%s' is not one of the options. Please reply with a number from 1 to %d or one of the names exactly as shown:\n%s",
		reply, len(candidates), numbered(candidates))
}

func NoUserMatch(name string) string {
	return fmt.Sprintf("I could not find any user matching '%s'. Please check the spelling and try again.", name)
}

func numbered(values []string) string {
	lines := make([]string, len(values))
	for i, v := range values {
		lines[i] = fmt.Sprintf("%d. %s", i+1, v)
	}
	return strings.Join(lines, "\n")
}
