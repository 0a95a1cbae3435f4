package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bcct-chatbot-be/pkg/nlp"
)

// ISODate is the value format of every date filter.
const ISODate = "2006-01-02"

// ChecklistDate is the display format of checklist dates.
const ChecklistDate = "01/02/06"

var dateLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2006-01-02",
	"2006/01/02",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

const datePattern = `(?:\d{1,2}/\d{1,2}/\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2}|\d{1,2}-[A-Za-z]{3}-\d{2,4}|` +
	`(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4})`

var (
	dateRe    = regexp.MustCompile(`(?i)\b` + datePattern + `\b`)
	betweenRe = regexp.MustCompile(`(?i)\bbetween\s+(` + datePattern + `)\s+(?:and|to|-)\s+(` + datePattern + `)`)
	afterRe   = regexp.MustCompile(`(?i)\b(?:after|since|from)\s+(` + datePattern + `)`)
	beforeRe  = regexp.MustCompile(`(?i)\b(?:before|until|till)\s+(` + datePattern + `)`)
	onRe      = regexp.MustCompile(`(?i)\bon\s+(` + datePattern + `)`)
	yearRe    = regexp.MustCompile(`(?i)\b(?:in|during|for|of)\s+((?:19|20)\d{2})\b`)
	lastRe    = regexp.MustCompile(`(?i)\b(?:last|past|previous)\s+(\d{1,3})\s+(hours?|days?|weeks?|months?|years?)\b`)
	nextRe    = regexp.MustCompile(`(?i)\bnext\s+(\d{1,3})\s+(days?|weeks?|months?)\b`)
)

// ParseDate accepts the date spellings users type and rejects impossible
// calendar dates such as 02/30/24.
func ParseDate(s string) (time.Time, bool) {
	v := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "."))
	v = strings.Join(strings.Fields(v), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type dateScan struct {
	filters []nlp.EntityFilter
	issues  []string
	// masked has every date span blanked out so numbers inside dates are not
	// mistaken for identifiers.
	masked string
}

func (e *Extractor) scanDates(text, lower string, ctx Context) dateScan {
	column := dateColumn(lower, ctx)
	scan := dateScan{masked: text}
	now := e.now()

	addRange := func(op nlp.Operation, value string) {
		scan.filters = append(scan.filters, nlp.EntityFilter{
			Attribute: column,
			Operation: op,
			Value:     value,
			Source:    nlp.SourceExtracted,
		})
	}

	parse := func(raw string) (string, bool) {
		t, ok := ParseDate(raw)
		if !ok {
			scan.issues = append(scan.issues, fmt.Sprintf("Date '%s' is not a valid calendar date; use MM/DD/YY or YYYY-MM-DD.", raw))
			return "", false
		}
		return t.Format(ISODate), true
	}

	used := false
	if m := betweenRe.FindStringSubmatch(text); m != nil {
		lo, ok1 := parse(m[1])
		hi, ok2 := parse(m[2])
		if ok1 && ok2 {
			addRange(nlp.OpBetween, lo+nlp.BetweenSeparator+hi)
		}
		used = true
	}
	if !used {
		if m := afterRe.FindStringSubmatch(text); m != nil {
			if v, ok := parse(m[1]); ok {
				addRange(nlp.OpGreater, v)
			}
			used = true
		}
		if m := beforeRe.FindStringSubmatch(text); m != nil {
			if v, ok := parse(m[1]); ok {
				addRange(nlp.OpLess, v)
			}
			used = true
		}
	}
	if !used {
		if m := onRe.FindStringSubmatch(text); m != nil {
			if v, ok := parse(m[1]); ok {
				addRange(nlp.OpEquals, v)
			}
			used = true
		}
	}

	// Any remaining date the user typed still has to be a real date.
	if !used {
		for _, raw := range dateRe.FindAllString(text, -1) {
			parse(raw)
		}
	}

	if !used {
		if m := lastRe.FindStringSubmatch(lower); m != nil {
			n, _ := strconv.Atoi(m[1])
			addRange(nlp.OpGreaterEqual, shift(now, -n, m[2]))
			used = true
		}
	}
	if !used {
		if m := nextRe.FindStringSubmatch(lower); m != nil {
			n, _ := strconv.Atoi(m[1])
			addRange(nlp.OpBetween, now.Format(ISODate)+nlp.BetweenSeparator+shift(now, n, m[2]))
			used = true
		}
	}
	if !used {
		if m := yearRe.FindStringSubmatch(lower); m != nil {
			addRange(nlp.OpBetween, m[1]+"-01-01"+nlp.BetweenSeparator+m[1]+"-12-31")
			scan.masked = maskSpan(scan.masked, yearRe, 1)
		}
	}

	scan.masked = dateRe.ReplaceAllStringFunc(scan.masked, blank)
	scan.masked = lastRe.ReplaceAllStringFunc(scan.masked, blank)
	scan.masked = nextRe.ReplaceAllStringFunc(scan.masked, blank)
	return scan
}

func dateColumn(lower string, ctx Context) string {
	switch {
	case strings.Contains(lower, "expir"):
		return nlp.AttrExpirationDate
	case strings.Contains(lower, "effective"):
		return nlp.AttrEffectiveDate
	case ctx.Parts:
		return nlp.AttrCreationDate
	default:
		return nlp.AttrCreateDate
	}
}

func shift(now time.Time, n int, unit string) string {
	unit = strings.TrimSuffix(strings.ToLower(unit), "s")
	switch unit {
	case "hour":
		return now.Add(time.Duration(n) * time.Hour).Format("2006-01-02 15:04:05")
	case "week":
		return now.AddDate(0, 0, 7*n).Format(ISODate)
	case "month":
		return now.AddDate(0, n, 0).Format(ISODate)
	case "year":
		return now.AddDate(n, 0, 0).Format(ISODate)
	default:
		return now.AddDate(0, 0, n).Format(ISODate)
	}
}

func blank(s string) string {
	return strings.Repeat(" ", len(s))
}

// maskSpan blanks the given capture group of every match.
func maskSpan(s string, re *regexp.Regexp, group int) string {
	b := []byte(s)
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		start, end := loc[2*group], loc[2*group+1]
		for i := start; i < end; i++ {
			b[i] = ' '
		}
	}
	return string(b)
}
