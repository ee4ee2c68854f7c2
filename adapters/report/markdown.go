package report

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	"promohypo/domain/analysis"
)

// MarkdownRenderer writes an analysis report as markdown tables
type MarkdownRenderer struct {
	// Digits is the number of decimals for estimates; 0 means 4
	Digits int
}

// NewMarkdownRenderer creates a renderer with default precision
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{Digits: 4}
}

// Render writes the report
func (r *MarkdownRenderer) Render(w io.Writer, rep *analysis.Report) error {
	var b bytes.Buffer
	r.write(&b, rep)
	_, err := w.Write(b.Bytes())
	return err
}

func (r *MarkdownRenderer) write(b *bytes.Buffer, rep *analysis.Report) {
	fmt.Fprintf(b, "# Promotion analysis %s\n\n", rep.ID)
	fmt.Fprintf(b, "- Source: %s\n", orDash(rep.Source))
	fmt.Fprintf(b, "- Dataset fingerprint: `%s`\n", rep.Fingerprint.Short())
	fmt.Fprintf(b, "- Started: %s, completed: %s\n", rep.StartedAt, rep.CompletedAt)
	fmt.Fprintf(b, "- Confidence level: %g, separation policy: %s\n\n", rep.ConfidenceLevel, orDash(rep.SeparationPolicy))

	if s := rep.Summary; s != nil {
		b.WriteString("## Data\n\n")
		ex := s.Exclusions
		fmt.Fprintf(b, "%d rows read, %d included, %d excluded (missing %d, invalid %d). %d promoted.\n\n",
			ex.Total, ex.Included, ex.Excluded(), ex.ExcludedMissing, ex.ExcludedInvalid, s.Promoted)

		table(b, []string{"Column", "Mean", "SD", "Min", "Median", "Max"}, func(row func(...string)) {
			for _, c := range s.Columns {
				row(c.Column, r.num(c.Mean), r.num(c.StdDev), r.num(c.Min), r.num(c.Median), r.num(c.Max))
			}
		})
		table(b, []string{"Performance", "Rows", "Promoted", "Rate"}, func(row func(...string)) {
			for _, l := range s.Levels {
				row(l.Level, fmt.Sprint(l.Rows), fmt.Sprint(l.Promoted), r.num(l.Rate))
			}
		})
	}

	if len(rep.VIF) > 0 {
		b.WriteString("## Collinearity (VIF)\n\n")
		table(b, []string{"Predictor", "VIF", "R²", "Flagged"}, func(row func(...string)) {
			for _, v := range rep.VIF {
				row(v.Predictor, r.num(v.VIF), r.num(v.RSquared), yesNo(v.Flagged))
			}
		})
	}

	if len(rep.Linearity) > 0 {
		b.WriteString("## Linearity of the logit (Box-Tidwell)\n\n")
		table(b, []string{"Predictor", "x·ln(x) coef", "χ²", "df", "p", "Note"}, func(row func(...string)) {
			for _, l := range rep.Linearity {
				if !l.OK() {
					row(l.Predictor, "-", "-", fmt.Sprint(l.DF), "-", escape(l.Error))
					continue
				}
				row(l.Predictor, r.num(l.Coefficient), r.num(l.Statistic), fmt.Sprint(l.DF), pValue(l.PValue), "")
			}
		})
	}

	if len(rep.Models) > 0 {
		b.WriteString("## Models\n\n")
		table(b, []string{"Family", "N", "Parameters", "Log-likelihood", "Deviance", "AIC", "Iterations", "Flags"}, func(row func(...string)) {
			for _, m := range rep.Models {
				row(m.Family, fmt.Sprint(m.N), fmt.Sprint(m.Parameters), r.num(m.LogLikelihood), r.num(m.Deviance),
					r.num(m.AIC), fmt.Sprint(m.Iterations), modelFlags(m))
			}
		})

		for _, m := range rep.Models {
			fmt.Fprintf(b, "### %s\n\n", m.Family)
			table(b, []string{"Term", "Estimate", "SE", "z", "p", "Odds ratio", "CI low", "CI high"}, func(row func(...string)) {
				for _, c := range m.Coefficients {
					row(escape(c.Term), r.num(c.Coefficient), r.num(c.StdError), r.num(c.ZValue), pValue(c.PValue),
						r.num(c.OddsRatio), r.num(c.CILower), r.num(c.CIUpper))
				}
			})
		}
	}

	if len(rep.Comparisons) > 0 {
		b.WriteString("## Nested model comparisons (likelihood ratio)\n\n")
		table(b, []string{"Reduced", "Full", "χ²", "df", "p"}, func(row func(...string)) {
			for _, c := range rep.Comparisons {
				row(c.Reduced, c.Full, r.num(c.ChiSquare), fmt.Sprint(c.DF), pValue(c.PValue))
			}
		})
	}

	if failed := rep.Failed(); len(failed) > 0 {
		b.WriteString("## Failed operations\n\n")
		table(b, []string{"Operation", "Kind", "Error"}, func(row func(...string)) {
			for _, op := range failed {
				row(escape(op.Operation), op.ErrorKind, escape(op.Error))
			}
		})
	}
}

func (r *MarkdownRenderer) num(v float64) string {
	digits := r.Digits
	if digits <= 0 {
		digits = 4
	}
	switch {
	case math.IsNaN(v):
		return "NaN"
	case v >= math.MaxFloat64:
		return "∞"
	case v <= -math.MaxFloat64:
		return "-∞"
	}
	return fmt.Sprintf("%.*f", digits, v)
}

func table(b *bytes.Buffer, headers []string, rows func(row func(...string))) {
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	sep := make([]string, len(headers))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	rows(func(cells ...string) {
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	})
	b.WriteString("\n")
}

func pValue(p float64) string {
	if p < 1e-4 {
		return "< 0.0001"
	}
	return fmt.Sprintf("%.4f", p)
}

func modelFlags(m analysis.ModelReport) string {
	var flags []string
	if !m.Converged {
		flags = append(flags, "not converged")
	}
	if m.Separated {
		flags = append(flags, "separation")
	}
	if len(flags) == 0 {
		return ""
	}
	return strings.Join(flags, ", ")
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escape keeps pipes in cell text from breaking table columns
func escape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
