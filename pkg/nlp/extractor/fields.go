package extractor

import (
	"regexp"
	"sort"
	"strings"

	"bcct-chatbot-be/pkg/lexicon"
)

// Separators accepted between a label and its value: ":", "=", "|", "->",
// a tab, or a dash surrounded by spaces.
const labelSeparator = `(?:[ ]*(?:->|:|=|\|)[ \t]*|[ ]*\t[ \t]*|[ ]+-[ ]+)`

var (
	positionalSplitRe = regexp.MustCompile(`[,;\n|]`)
	accountOnlyRe     = regexp.MustCompile(`^\d{7,}$`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// FieldResult is what one user turn contributed to a flow.
type FieldResult struct {
	Values     map[string]string
	Labeled    int
	Positional bool
}

type flowLabels struct {
	re      *regexp.Regexp
	byLabel map[string]string
}

// FieldExtractor reads "label: value" pairs for the multi-turn flows.
type FieldExtractor struct {
	lex    *lexicon.Lexicon
	labels map[string]flowLabels
}

func NewFieldExtractor(lex *lexicon.Lexicon) *FieldExtractor {
	fx := &FieldExtractor{lex: lex, labels: make(map[string]flowLabels)}
	for _, flow := range []string{lexicon.FlowContractCreation, lexicon.FlowCreateChecklist} {
		fx.labels[flow] = buildLabels(lex.Fields(flow))
	}
	return fx
}

func buildLabels(fields []lexicon.FieldDef) flowLabels {
	byLabel := make(map[string]string)
	var labels []string
	for _, f := range fields {
		for _, l := range append([]string{f.Name, strings.ReplaceAll(f.Name, "_", " ")}, f.Labels...) {
			key := normalizeLabel(l)
			if _, dup := byLabel[key]; dup {
				continue
			}
			byLabel[key] = f.Name
			labels = append(labels, key)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool { return len(labels[i]) > len(labels[j]) })

	alts := make([]string, len(labels))
	for i, l := range labels {
		words := strings.Fields(l)
		for k := range words {
			words[k] = regexp.QuoteMeta(words[k])
		}
		alts[i] = strings.Join(words, `[ _]+`)
	}
	re := regexp.MustCompile(`(?i)(?:^|[\s,;])(` + strings.Join(alts, "|") + `)` + labelSeparator)
	return flowLabels{re: re, byLabel: byLabel}
}

func normalizeLabel(l string) string {
	l = strings.ToLower(strings.ReplaceAll(l, "_", " "))
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(l), " ")
}

// Extract pulls flow field values out of one turn. Labeled pairs win; the
// positional fallback runs only when the turn had no recognizable label at all.
// missing lists the still-required fields in prompt order.
func (fx *FieldExtractor) Extract(flow, text string, missing []string) FieldResult {
	res := FieldResult{Values: make(map[string]string)}
	fl, ok := fx.labels[flow]
	if !ok {
		return res
	}

	matches := fl.re.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		label := normalizeLabel(text[m[2]:m[3]])
		field, known := fl.byLabel[label]
		if !known {
			continue
		}
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := cleanValue(text[m[1]:end])
		res.Labeled++
		if value != "" {
			res.Values[field] = value
		}
	}
	if res.Labeled > 0 {
		return res
	}

	return fx.positional(flow, text, missing)
}

// ExtractLabeled is Extract without the positional fallback.
func (fx *FieldExtractor) ExtractLabeled(flow, text string) FieldResult {
	res := fx.Extract(flow, text, nil)
	if res.Positional {
		return FieldResult{Values: map[string]string{}}
	}
	return res
}

func (fx *FieldExtractor) positional(flow, text string, missing []string) FieldResult {
	res := FieldResult{Values: make(map[string]string), Positional: true}

	var parts []string
	for _, p := range positionalSplitRe.Split(text, -1) {
		if v := cleanValue(p); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		res.Positional = false
		return res
	}

	all := fx.lex.Fields(flow)
	if len(parts) == len(all) {
		for i, f := range all {
			res.Values[f.Name] = parts[i]
		}
		return res
	}

	if len(parts) == 1 && accountOnlyRe.MatchString(parts[0]) && contains(missing, "ACCOUNT_NUMBER") {
		res.Values["ACCOUNT_NUMBER"] = parts[0]
		return res
	}

	for i := 0; i < len(parts) && i < len(missing); i++ {
		res.Values[missing[i]] = parts[i]
	}
	return res
}

func cleanValue(v string) string {
	return strings.Trim(strings.TrimSpace(v), ",; \t\r\n")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
