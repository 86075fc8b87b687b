package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/budget-extractor/internal/entity"
	"github.com/joseph-ayodele/budget-extractor/internal/utils"
)

type ui struct {
	out     io.Writer
	noColor bool
}

func (c *cli) ui() *ui {
	if c.noColor {
		color.NoColor = true
	}
	return &ui{out: c.out, noColor: c.noColor}
}

func (u *ui) paint(attr color.Attribute, format string, args ...any) {
	color.New(attr).Fprintf(u.out, format, args...)
}

func (u *ui) Success(format string, args ...any) {
	u.paint(color.FgGreen, "✓ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Error(format string, args ...any) {
	u.paint(color.FgRed, "✗ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Warning(format string, args ...any) {
	u.paint(color.FgYellow, "⚠ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) Info(format string, args ...any) {
	u.paint(color.FgCyan, "ℹ %s\n", fmt.Sprintf(format, args...))
}

func (u *ui) JSON(v any) error {
	enc := json.NewEncoder(u.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Spinner writes to stderr so stdout stays clean for --json.
func (u *ui) Spinner(message string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	return s
}

func (u *ui) ProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionEnableColorCodes(!u.noColor),
		progressbar.OptionOnCompletion(func() { fmt.Fprint(os.Stderr, "\n") }),
		progressbar.OptionSetRenderBlankState(true),
	)
}

// Record prints the extracted fields and the budget table.
func (u *ui) Record(rec entity.ExtractedRecord) {
	bold := color.New(color.Bold)
	bold.Fprint(u.out, "Project:     ")
	fmt.Fprintln(u.out, orDash(rec.ProjectName))
	bold.Fprint(u.out, "Responsible: ")
	fmt.Fprintln(u.out, orDash(rec.ResponsiblePerson))

	if len(rec.BudgetItems) == 0 {
		return
	}
	fmt.Fprintln(u.out)
	current := ""
	for _, it := range rec.BudgetItems {
		if it.ActivityName != current {
			current = it.ActivityName
			u.paint(color.FgCyan, "  %s\n", orDash(current))
		}
		fmt.Fprintf(u.out, "    %-50s %14s\n", it.Description, utils.FormatBaht(it.Amount))
	}
	bold.Fprintf(u.out, "  %-52s %14s\n", "Total", utils.FormatBaht(rec.Total()))
}

func (u *ui) Violations(violations []string) {
	for _, v := range violations {
		u.Warning("%s", v)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
