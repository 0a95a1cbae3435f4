package extractor

import (
	"regexp"
	"strings"

	"bcct-chatbot-be/pkg/lexicon"
)

const maxTextLength = 255

var accountNumberRe = regexp.MustCompile(`^\d{7,}$`)

// NormalizeFieldValue applies the field's canonical spelling at merge time:
// default tokens collapse to the default and flags become YES or NO.
func NormalizeFieldValue(def lexicon.FieldDef, value string, flagTrue []string) string {
	v := strings.TrimSpace(value)
	if len(def.DefaultOn) > 0 && def.Defaultable(v) {
		return def.Default
	}
	switch def.Validator {
	case lexicon.ValidatorYesNo:
		if lexicon.IsToken(v, flagTrue) {
			return "YES"
		}
		return "NO"
	case lexicon.ValidatorAccountNumber:
		return strings.ReplaceAll(v, " ", "")
	}
	return v
}

// ValidateField checks one collected value. It returns the value to store and
// an empty reason on success.
func ValidateField(def lexicon.FieldDef, value string) (string, string) {
	v := strings.TrimSpace(value)

	switch def.Validator {
	case lexicon.ValidatorAccountNumber:
		if !accountNumberRe.MatchString(v) {
			return v, "must be a customer number of 7 or more digits"
		}
	case lexicon.ValidatorDate:
		t, ok := ParseDate(v)
		if !ok {
			return v, "must be a valid date in MM/DD/YY format"
		}
		return t.Format(ChecklistDate), ""
	case lexicon.ValidatorYesNo:
		up := strings.ToUpper(v)
		if up != "YES" && up != "NO" {
			return v, "must be yes or no"
		}
		return up, ""
	default:
		if v == "" && len(def.DefaultOn) == 0 {
			return v, "cannot be empty"
		}
		if len(v) > maxTextLength {
			return v, "must be 255 characters or fewer"
		}
	}
	return v, ""
}
