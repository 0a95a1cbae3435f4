package lexicon

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

var (
	defaultOnce sync.Once
	defaultLex  *Lexicon
	defaultErr  error
)

// Flow names as they appear in the lexicon file.
const (
	FlowContractCreation = "CONTRACT_CREATION"
	FlowCreateChecklist  = "CREATE_CHECKLIST"
)

// Field validators understood by the extractor.
const (
	ValidatorText          = "text"
	ValidatorAccountNumber = "account_number"
	ValidatorYesNo         = "yes_no"
	ValidatorDate          = "date"
)

// FieldDef describes one slot of a multi-turn flow.
type FieldDef struct {
	Name      string   `yaml:"name"`
	Display   string   `yaml:"display"`
	Labels    []string `yaml:"labels"`
	Validator string   `yaml:"validator"`
	DefaultOn []string `yaml:"default_on"`
	Default   string   `yaml:"default"`
}

// Defaultable reports whether value is one of the tokens that mean "use the default".
func (f FieldDef) Defaultable(value string) bool {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, d := range f.DefaultOn {
		if v == d {
			return true
		}
	}
	return false
}

type QuickAction struct {
	Prompt string `yaml:"prompt"`
	Action string `yaml:"action"`
	Table  string `yaml:"table"`
}

type DisplayTerm struct {
	Pattern  string `yaml:"pattern"`
	Column   string `yaml:"column"`
	Specific bool   `yaml:"specific"`

	re *regexp.Regexp
}

// Regexp returns the compiled pattern.
func (d DisplayTerm) Regexp() *regexp.Regexp { return d.re }

type DomainConjunction struct {
	Pattern string   `yaml:"pattern"`
	Domains []string `yaml:"domains"`

	re *regexp.Regexp
}

func (d DomainConjunction) Regexp() *regexp.Regexp { return d.re }

type Table struct {
	Name          string   `yaml:"name"`
	Identifier    string   `yaml:"identifier"`
	CreatedColumn string   `yaml:"created_column"`
	Columns       []string `yaml:"columns"`
}

// HasColumn reports whether column is whitelisted for the table.
func (t Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

type Tokens struct {
	Cancel          []string `yaml:"cancel"`
	ChecklistCancel []string `yaml:"checklist_cancel"`
	Affirmative     []string `yaml:"affirmative"`
	Negative        []string `yaml:"negative"`
	FlagTrue        []string `yaml:"flag_true"`
}

type HelpTexts struct {
	General             string `yaml:"general"`
	CreateContractSteps string `yaml:"create_contract_steps"`
}

type document struct {
	SpellCorrections   map[string]string     `yaml:"spell_corrections"`
	DomainWords        []string              `yaml:"domain_words"`
	Lemmas             map[string]string     `yaml:"lemmas"`
	Keywords           map[string][]string   `yaml:"keywords"`
	Statuses           []string              `yaml:"statuses"`
	Blocklist          []string              `yaml:"blocklist"`
	DomainPlausible    []string              `yaml:"domain_plausible"`
	QuickActions       []QuickAction         `yaml:"quick_actions"`
	DisplayVocabulary  []DisplayTerm         `yaml:"display_vocabulary"`
	DefaultDisplay     map[string][]string   `yaml:"default_display"`
	DomainConjunctions []DomainConjunction   `yaml:"domain_conjunctions"`
	Tables             map[string]Table      `yaml:"tables"`
	Flows              map[string][]FieldDef `yaml:"flows"`
	Tokens             Tokens                `yaml:"tokens"`
	Help               HelpTexts             `yaml:"help"`
}

// Lexicon is the read-only vocabulary shared by every component.
// All accessors return copies or immutable values.
type Lexicon struct {
	doc         document
	domainWords map[string]struct{}
	blocklist   map[string]struct{}
	plausible   map[string]struct{}
	keywordRes  map[string]*regexp.Regexp
	statusRe    *regexp.Regexp
}

// Default returns the embedded lexicon, parsed once per process.
func Default() (*Lexicon, error) {
	defaultOnce.Do(func() {
		defaultLex, defaultErr = Load(defaultLexiconYAML)
	})
	return defaultLex, defaultErr
}

// MustDefault is Default for wiring code that cannot continue without a lexicon.
func MustDefault() *Lexicon {
	lex, err := Default()
	if err != nil {
		panic(err)
	}
	return lex
}

// Load parses a lexicon document and compiles its patterns.
func Load(data []byte) (*Lexicon, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	lex := &Lexicon{
		doc:         doc,
		domainWords: toSet(doc.DomainWords, strings.ToLower),
		blocklist:   toSet(doc.Blocklist, strings.ToUpper),
		plausible:   toSet(doc.DomainPlausible, strings.ToLower),
		keywordRes:  make(map[string]*regexp.Regexp, len(doc.Keywords)),
	}

	for group, words := range doc.Keywords {
		lex.keywordRes[group] = phraseRegexp(words)
	}
	lex.statusRe = phraseRegexp(doc.Statuses)

	for i := range lex.doc.DisplayVocabulary {
		re, err := regexp.Compile("(?i)" + lex.doc.DisplayVocabulary[i].Pattern)
		if err != nil {
			return nil, fmt.Errorf("display term %s: %w", lex.doc.DisplayVocabulary[i].Column, err)
		}
		lex.doc.DisplayVocabulary[i].re = re
	}
	for i := range lex.doc.DomainConjunctions {
		re, err := regexp.Compile("(?i)" + lex.doc.DomainConjunctions[i].Pattern)
		if err != nil {
			return nil, fmt.Errorf("domain conjunction %q: %w", lex.doc.DomainConjunctions[i].Pattern, err)
		}
		lex.doc.DomainConjunctions[i].re = re
	}

	for _, flow := range []string{FlowContractCreation, FlowCreateChecklist} {
		if len(doc.Flows[flow]) == 0 {
			return nil, fmt.Errorf("lexicon is missing required fields for flow %s", flow)
		}
	}

	return lex, nil
}

// phraseRegexp builds a word-bounded, case-insensitive alternation that also
// accepts a plural ending. Longer phrases come first so "lead time" wins over "lead".
func phraseRegexp(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return regexp.MustCompile(`a^`)
	}
	sorted := append([]string(nil), words...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	parts := make([]string, 0, len(sorted))
	for _, w := range sorted {
		fields := strings.Fields(strings.ToLower(w))
		for i := range fields {
			fields[i] = regexp.QuoteMeta(fields[i])
		}
		parts = append(parts, strings.Join(fields, `\s+`))
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(parts, "|") + `)(?:e?s)?\b`)
}

func toSet(words []string, fold func(string) string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[fold(w)] = struct{}{}
	}
	return set
}

// Correction returns the dictionary spelling for a lower-cased token.
func (l *Lexicon) Correction(token string) (string, bool) {
	c, ok := l.doc.SpellCorrections[token]
	return c, ok
}

func (l *Lexicon) IsDomainWord(word string) bool {
	_, ok := l.domainWords[strings.ToLower(word)]
	return ok
}

func (l *Lexicon) Lemma(word string) string {
	w := strings.ToLower(word)
	if lemma, ok := l.doc.Lemmas[w]; ok {
		return lemma
	}
	return w
}

// Has reports whether text contains any phrase of the keyword group.
func (l *Lexicon) Has(group, text string) bool {
	re, ok := l.keywordRes[group]
	return ok && re.MatchString(text)
}

// KeywordRegexp returns the compiled alternation for a keyword group.
func (l *Lexicon) KeywordRegexp(group string) *regexp.Regexp {
	if re, ok := l.keywordRes[group]; ok {
		return re
	}
	return phraseRegexp(nil)
}

func (l *Lexicon) StatusRegexp() *regexp.Regexp { return l.statusRe }

func (l *Lexicon) IsBlocked(token string) bool {
	_, ok := l.blocklist[strings.ToUpper(token)]
	return ok
}

func (l *Lexicon) IsDomainPlausible(word string) bool {
	_, ok := l.plausible[l.Lemma(word)]
	if ok {
		return true
	}
	_, ok = l.plausible[strings.ToLower(word)]
	return ok
}

// QuickAction finds the quick action whose prompt equals text, ignoring case,
// surrounding spaces and trailing punctuation.
func (l *Lexicon) QuickAction(text string) (QuickAction, bool) {
	t := strings.ToLower(strings.TrimRight(strings.TrimSpace(text), "?.! "))
	t = strings.Join(strings.Fields(t), " ")
	for _, qa := range l.doc.QuickActions {
		if qa.Prompt == t {
			return qa, true
		}
	}
	return QuickAction{}, false
}

func (l *Lexicon) QuickActions() []QuickAction {
	return append([]QuickAction(nil), l.doc.QuickActions...)
}

func (l *Lexicon) DisplayVocabulary() []DisplayTerm {
	return append([]DisplayTerm(nil), l.doc.DisplayVocabulary...)
}

func (l *Lexicon) DomainConjunctions() []DomainConjunction {
	return append([]DomainConjunction(nil), l.doc.DomainConjunctions...)
}

// DefaultDisplay returns the fallback column set of a query type.
func (l *Lexicon) DefaultDisplay(queryType string) []string {
	return append([]string(nil), l.doc.DefaultDisplay[queryType]...)
}

func (l *Lexicon) Table(hint string) (Table, bool) {
	t, ok := l.doc.Tables[hint]
	return t, ok
}

// Fields returns the ordered required fields of a flow.
func (l *Lexicon) Fields(flow string) []FieldDef {
	return append([]FieldDef(nil), l.doc.Flows[flow]...)
}

// Field looks up a single field definition of a flow.
func (l *Lexicon) Field(flow, name string) (FieldDef, bool) {
	for _, f := range l.doc.Flows[flow] {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

func (l *Lexicon) Tokens() Tokens { return l.doc.Tokens }

func (l *Lexicon) Help() HelpTexts { return l.doc.Help }

// IsToken reports an exact, trimmed, case-insensitive match against a token set.
func IsToken(input string, set []string) bool {
	v := strings.ToLower(strings.TrimSpace(input))
	for _, t := range set {
		if v == t {
			return true
		}
	}
	return false
}
