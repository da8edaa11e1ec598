// Package report assembles the final markdown document from pre-generated
// delta tables, the module classification, and the run outcome.
package report

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
)

// Subset is one corpus subset's comparison inside a reference section.
type Subset struct {
	Name      string
	TableFile string // markdown table emitted by the delta tool; consumed on embed
	ToolExit  int    // delta tool exit code for this table
}

// Reference is one comparison axis (head-to-head or baseline) for a
// configuration.
type Reference struct {
	Name    string
	Subsets []Subset
}

// Section groups all comparisons for one build configuration.
type Section struct {
	Configuration string
	References    []Reference
}

// Assembler builds one report document. RunID makes anchor links unique per
// invocation even when section titles collide across runs on the same page.
type Assembler struct {
	Branch        string
	Suite         string
	RunID         string
	FailedModules []string
}

// New seeds an assembler with a random run identifier.
func New(branch string, suite string) *Assembler {
	return &Assembler{
		Branch: branch,
		Suite:  suite,
		RunID:  fmt.Sprintf("%08x", rand.Uint32()),
	}
}

// Anchor sanitizes a section title into a link target: non-alphanumerics
// stripped, lower-cased, uniquified with the run id.
func (a *Assembler) Anchor(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String() + "-" + a.RunID
}

// Write assembles the document and reports whether any embedded comparison
// flagged a regression. Embedded table files are deleted afterwards.
func (a *Assembler) Write(w io.Writer, sections []Section) (bool, error) {
	regressed := false
	for _, section := range sections {
		for _, ref := range section.References {
			for _, subset := range ref.Subsets {
				if subset.ToolExit != 0 {
					regressed = true
				}
			}
		}
	}

	fmt.Fprintf(w, "# Compile-time performance report\n\n")
	fmt.Fprintf(w, "Branch `%s`, suite `%s`.\n\n", a.Branch, a.Suite)

	if len(a.FailedModules) > 0 {
		fmt.Fprintf(w, "**Unexpected test results**\n\n")
		fmt.Fprintf(w, "The following modules did not produce clean stats in both instances:\n\n")
		for _, module := range a.FailedModules {
			fmt.Fprintf(w, "- %s\n", module)
		}
		fmt.Fprintln(w)
	}

	if regressed {
		fmt.Fprintf(w, "**Significant regressions found; see tables below.**\n\n")
	} else {
		fmt.Fprintf(w, "**No regressions above thresholds.**\n\n")
	}

	fmt.Fprintf(w, "## Contents\n\n")
	for _, section := range sections {
		fmt.Fprintf(w, "- [%s](#%s)\n", section.Configuration, a.Anchor(section.Configuration))
		for _, ref := range section.References {
			refTitle := section.Configuration + " " + ref.Name
			fmt.Fprintf(w, "  - [%s](#%s)\n", ref.Name, a.Anchor(refTitle))
		}
	}
	fmt.Fprintln(w)

	for _, section := range sections {
		fmt.Fprintf(w, "## <a name=%q></a>%s\n\n", a.Anchor(section.Configuration), section.Configuration)
		for _, ref := range section.References {
			refTitle := section.Configuration + " " + ref.Name
			fmt.Fprintf(w, "### <a name=%q></a>%s\n\n", a.Anchor(refTitle), ref.Name)
			for _, subset := range ref.Subsets {
				fmt.Fprintf(w, "<details>\n<summary>%s</summary>\n\n", subset.Name)
				fmt.Fprint(w, embedTable(subset.TableFile))
				fmt.Fprintf(w, "\n</details>\n\n")
			}
		}
	}

	return regressed, nil
}

// embedTable returns the table content for one subset and removes the
// consumed file.
func embedTable(path string) string {
	if path == "" {
		return "No analysis available\n"
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "No analysis available\n"
	}
	defer os.Remove(path)
	if strings.TrimSpace(string(content)) == "" {
		return "None\n"
	}
	return string(content)
}
