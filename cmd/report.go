package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jung-kurt/gofpdf"
	"gopkg.in/yaml.v3"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

const (
	jsonPrefix     = ""
	jsonIndent     = "  "
	reportFilePerm = 0o644
)

// reportDocument is the serialized form of a finished evaluation.
type reportDocument struct {
	ID          string               `json:"id" yaml:"id"`
	Target      string               `json:"target" yaml:"target"`
	Profile     string               `json:"profile" yaml:"profile"`
	StartedAt   time.Time            `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time            `json:"completed_at" yaml:"completed_at"`
	DurationMs  int64                `json:"duration_ms" yaml:"duration_ms"`
	Findings    []evaluation.Finding `json:"findings" yaml:"findings"`
	Verdict     evaluation.Verdict   `json:"verdict" yaml:"verdict"`
}

func newReportDocument(report *evaluation.Report, verdict evaluation.Verdict) reportDocument {
	return reportDocument{
		ID:          report.ID(),
		Target:      report.Target().String(),
		Profile:     report.Profile(),
		StartedAt:   report.StartedAt().UTC(),
		CompletedAt: report.CompletedAt().UTC(),
		DurationMs:  report.Duration().Milliseconds(),
		Findings:    report.Findings(),
		Verdict:     verdict,
	}
}

// writeReport renders the report in format to path, or to w when path is empty.
func writeReport(w io.Writer, format, path string, report *evaluation.Report, verdict evaluation.Verdict) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case outputJSON:
		data, err = json.MarshalIndent(newReportDocument(report, verdict), jsonPrefix, jsonIndent)
		data = append(data, '\n')
	case outputYAML:
		data, err = generateYAMLReport(newReportDocument(report, verdict))
	case outputPDF:
		data, err = generatePDFReportBytes(report, verdict)
	default:
		var buf bytes.Buffer
		writeTextReport(&buf, report, verdict)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("render %s report: %w", format, err)
	}

	if path == "" {
		_, err = w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, reportFilePerm); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "Report written to %s\n", path)
	return nil
}

func generateYAMLReport(doc reportDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTextReport(w io.Writer, report *evaluation.Report, verdict evaluation.Verdict) {
	advisory := make(map[string]bool, len(verdict.Advisories))
	for _, detail := range verdict.Advisories {
		advisory[detail] = true
	}

	fmt.Fprintf(w, "%s %s (profile %s)\n\n", colorBold("Evaluation of"), report.Target().String(), report.Profile())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, f := range report.Findings() {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", findingMarker(f, advisory[f.Detail] && !f.IsPositive()), kindLabel(f.Kind), f.Detail)
	}
	_ = tw.Flush()

	if f, ok := report.Find(evaluation.KindCDN); ok && f.CDN != nil && len(f.CDN.SoftErrors) > 0 {
		fmt.Fprintf(w, "\n  %s\n", colorWarn("CDN lookups with errors:"))
		for _, e := range f.CDN.SoftErrors {
			fmt.Fprintf(w, "    %s\n", e)
		}
	}

	rating := "n/a"
	if verdict.Rating > 0 {
		rating = fmt.Sprintf("%d/%d", verdict.Rating, evaluation.MaxRating)
	}
	fmt.Fprintf(w, "\nLatency rating: %s\n", rating)
	fmt.Fprintf(w, "Verdict: %s\n", formatVerdictWithColor(verdict.Accepted))

	printReasons(w, "Positive", verdict.PositiveReasons)
	printReasons(w, "Negative", verdict.NegativeReasons)
	printReasons(w, "Advisory", verdict.Advisories)
	fmt.Fprintf(w, "\nCompleted in %s (report %s)\n", report.Duration().Round(time.Millisecond), report.ID())
}

func printReasons(w io.Writer, title string, reasons []string) {
	if len(reasons) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, r := range reasons {
		fmt.Fprintf(w, "  - %s\n", r)
	}
}

func kindLabel(kind evaluation.Kind) string {
	switch kind {
	case evaluation.KindTLS:
		return "TLS"
	case evaluation.KindHTTP2:
		return "HTTP/2"
	case evaluation.KindHTTP3:
		return "HTTP/3"
	case evaluation.KindCDN:
		return "CDN"
	case evaluation.KindRedirect:
		return "Redirect"
	case evaluation.KindLatency:
		return "Latency"
	default:
		return strings.ToUpper(string(kind))
	}
}

func generatePDFReportBytes(report *evaluation.Report, verdict evaluation.Verdict) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Host Evaluation: %s", report.Target().String())), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Report ID: %s", report.ID()), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Profile: %s", report.Profile()), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Started: %s", report.StartedAt().UTC().Format(time.RFC3339)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Duration: %s", report.Duration().Round(time.Millisecond)), "", 1, "", false, 0, "")
	pdf.Ln(5)

	// Verdict
	pdf.SetFont("Arial", "B", 12)
	if verdict.Accepted {
		pdf.SetTextColor(0, 128, 0)
		pdf.CellFormat(0, 8, "Verdict: ACCEPTED", "", 1, "", false, 0, "")
	} else {
		pdf.SetTextColor(192, 0, 0)
		pdf.CellFormat(0, 8, "Verdict: REJECTED", "", 1, "", false, 0, "")
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Latency rating: %d/%d", verdict.Rating, evaluation.MaxRating), "", 1, "", false, 0, "")
	pdf.Ln(5)

	// Findings table
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(25, 7, "Check", "1", 0, "", true, 0, "")
	pdf.CellFormat(25, 7, "Status", "1", 0, "", true, 0, "")
	pdf.CellFormat(0, 7, "Detail", "1", 1, "", true, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, f := range report.Findings() {
		pdf.CellFormat(25, 6, kindLabel(f.Kind), "1", 0, "", false, 0, "")
		pdf.CellFormat(25, 6, string(f.Status), "1", 0, "", false, 0, "")
		pdf.CellFormat(0, 6, tr(f.Detail), "1", 1, "", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
