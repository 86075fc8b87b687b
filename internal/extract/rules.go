package extract

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Section boundary modes for activity sections.
const (
	// BoundaryHeader ends a section at the next detected activity header numbered n+1,
	// or at the next detected header when none is numbered n+1.
	BoundaryHeader = "header"
	// BoundaryLiteral ends a section at the first raw "<n+1>." after the header.
	BoundaryLiteral = "literal"
)

// Rules holds every pattern the locators and the budget parser use.
// Patterns are Go regular expressions; flags go inline, e.g. (?i).
type Rules struct {
	ProjectName       []string `yaml:"project_name"`
	ResponsiblePerson []string `yaml:"responsible_person"`
	TrailingMarker    string   `yaml:"trailing_marker"`
	BudgetSection     []string `yaml:"budget_section"`

	ActivityHeader      string `yaml:"activity_header"`
	BudgetItem          string `yaml:"budget_item"`
	SectionBoundary     string `yaml:"section_boundary"`
	FallbackActivity    string `yaml:"fallback_activity"`
	SkipItemLikeHeaders bool   `yaml:"skip_item_like_headers"`
}

// DefaultRules matches the numbered-section layout of the faculty project forms.
// Ordinals and amounts may be written in Thai numerals.
func DefaultRules() Rules {
	return Rules{
		ProjectName: []string{
			`(?i)1\.\s*ชื่อโครงการ\s+(.+?)(?:\n|$)`,
			`(?i)ชื่อโครงการ[:\s]+(.+?)(?:\n|$)`,
		},
		ResponsiblePerson: []string{
			`(?i)2\.\s*ผู้รับผิดชอบ\s+(.+?)(?:\n|หลักสูตร)`,
			`(?i)ผู้รับผิดชอบ[:\s]+(.+?)(?:\n|หลักสูตร)`,
		},
		TrailingMarker: "หลักสูตร",
		BudgetSection: []string{
			`(?is)14\.\s*รายละเอียดงบประมาณ\s*\n(.*?)(?:รวมทั้งหมด|15\.|$)`,
		},
		ActivityHeader:      `(\p{Nd}+)\.[\s\x{00A0}]*([A-Za-z\s\x{00A0}]+(?:and|ERP)[^\n]*)`,
		BudgetItem:          `(\p{Nd}+)\.[\s\x{00A0}]*(.+?)\((.+?)\)[\s\x{00A0}]+([\p{Nd},]+)`,
		SectionBoundary:     BoundaryHeader,
		FallbackActivity:    "General",
		SkipItemLikeHeaders: true,
	}
}

// LoadRules reads a YAML rules file. Keys missing from the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &rules); err != nil {
		return Rules{}, fmt.Errorf("decode rules file %s: %w", path, err)
	}
	return rules, nil
}

type compiledRules struct {
	projectName       []*regexp.Regexp
	responsiblePerson []*regexp.Regexp
	trailingMarker    *regexp.Regexp
	budgetSection     []*regexp.Regexp
	activityHeader    *regexp.Regexp
	budgetItem        *regexp.Regexp
	boundary          string
	fallbackActivity  string
	skipItemLike      bool
}

func (r Rules) compile() (*compiledRules, error) {
	var (
		c   compiledRules
		err error
	)
	if c.projectName, err = compileAll("project_name", r.ProjectName, 1); err != nil {
		return nil, err
	}
	if c.responsiblePerson, err = compileAll("responsible_person", r.ResponsiblePerson, 1); err != nil {
		return nil, err
	}
	if c.budgetSection, err = compileAll("budget_section", r.BudgetSection, 1); err != nil {
		return nil, err
	}
	if c.activityHeader, err = compileOne("activity_header", r.ActivityHeader, 2); err != nil {
		return nil, err
	}
	if c.budgetItem, err = compileOne("budget_item", r.BudgetItem, 4); err != nil {
		return nil, err
	}
	if r.TrailingMarker != "" {
		c.trailingMarker = regexp.MustCompile(`(?s)\s*` + regexp.QuoteMeta(r.TrailingMarker) + `.*`)
	}

	switch r.SectionBoundary {
	case "", BoundaryHeader:
		c.boundary = BoundaryHeader
	case BoundaryLiteral:
		c.boundary = BoundaryLiteral
	default:
		return nil, fmt.Errorf("rules: unknown section_boundary %q", r.SectionBoundary)
	}

	c.fallbackActivity = r.FallbackActivity
	if c.fallbackActivity == "" {
		c.fallbackActivity = "General"
	}
	c.skipItemLike = r.SkipItemLikeHeaders
	return &c, nil
}

func compileAll(name string, patterns []string, minGroups int) ([]*regexp.Regexp, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("rules: %s needs at least one pattern", name)
	}
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := compileOne(name, p, minGroups)
		if err != nil {
			return nil, err
		}
		out = append(out, re)
	}
	return out, nil
}

func compileOne(name, pattern string, minGroups int) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", name, err)
	}
	if re.NumSubexp() < minGroups {
		return nil, fmt.Errorf("rules: %s must have at least %d capture groups, got %d", name, minGroups, re.NumSubexp())
	}
	return re, nil
}
