package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/textnorm"
)

// BudgetParser turns the raw budget block into ordered budget items.
type BudgetParser struct {
	header       *regexp.Regexp
	item         *regexp.Regexp
	boundary     string
	fallback     string
	skipItemLike bool
}

func newBudgetParser(c *compiledRules) *BudgetParser {
	return &BudgetParser{
		header:       c.activityHeader,
		item:         c.budgetItem,
		boundary:     c.boundary,
		fallback:     c.fallbackActivity,
		skipItemLike: c.skipItemLike,
	}
}

type activityHeader struct {
	ordinal int // -1 when the ordinal group is not a number
	name    string
	start   int
	end     int
}

// Parse never fails: lines that do not fit the item pattern are skipped.
func (p *BudgetParser) Parse(block string) []entity.BudgetItem {
	headers := p.findHeaders(block)

	var items []entity.BudgetItem
	for i, h := range headers {
		end := p.sectionEnd(block, headers, i)
		items = append(items, p.parseItems(block[h.end:end], h.name)...)
	}
	if len(items) == 0 {
		items = p.parseItems(block, p.fallback)
	}
	return items
}

func (p *BudgetParser) findHeaders(block string) []activityHeader {
	matches := p.header.FindAllStringSubmatchIndex(block, -1)
	headers := make([]activityHeader, 0, len(matches))
	for _, m := range matches {
		line := block[m[0]:m[1]]
		if p.skipItemLike && p.item.MatchString(line) {
			continue
		}
		ordinal, err := strconv.Atoi(textnorm.FoldDigits(block[m[2]:m[3]]))
		if err != nil {
			ordinal = -1
		}
		headers = append(headers, activityHeader{
			ordinal: ordinal,
			name:    plainSpaces(block[m[4]:m[5]]),
			start:   m[0],
			end:     m[1],
		})
	}
	return headers
}

func (p *BudgetParser) sectionEnd(block string, headers []activityHeader, i int) int {
	h := headers[i]
	if p.boundary == BoundaryLiteral {
		if h.ordinal < 0 {
			return len(block)
		}
		next := strings.Index(block[h.end:], strconv.Itoa(h.ordinal+1)+".")
		if next == -1 {
			return len(block)
		}
		return h.end + next
	}

	rest := headers[i+1:]
	if len(rest) == 0 {
		return len(block)
	}
	if h.ordinal >= 0 {
		for _, next := range rest {
			if next.ordinal == h.ordinal+1 {
				return next.start
			}
		}
	}
	return rest[0].start
}

func (p *BudgetParser) parseItems(section, activity string) []entity.BudgetItem {
	var items []entity.BudgetItem
	for _, m := range p.item.FindAllStringSubmatch(section, -1) {
		amount, ok := parseAmount(m[4])
		if !ok {
			continue
		}
		items = append(items, entity.BudgetItem{
			ActivityName: activity,
			Description:  describe(m[2], m[3]),
			Amount:       amount,
		})
	}
	return items
}

func describe(text, calculation string) string {
	text = plainSpaces(text)
	calculation = plainSpaces(calculation)
	if calculation == "" {
		return text
	}
	return text + " (" + calculation + ")"
}

func plainSpaces(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
}

// parseAmount reads a numeral with thousands separators, e.g. "1,250" or "๑,๒๕๐" -> 1250.
func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(textnorm.FoldDigits(s)), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
