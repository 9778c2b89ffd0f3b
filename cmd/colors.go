package cmd

import (
	"github.com/fatih/color"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
)

var (
	colorSuccess = color.New(color.FgGreen).SprintFunc()
	colorInfo    = color.New(color.FgCyan).SprintFunc()
	colorWarn    = color.New(color.FgYellow).SprintFunc()
	colorError   = color.New(color.FgRed).SprintFunc()
	colorBold    = color.New(color.Bold).SprintFunc()
)

// findingMarker returns the colored marker printed before a finding.
func findingMarker(f evaluation.Finding, advisory bool) string {
	switch {
	case f.IsPositive():
		return colorSuccess("[+]")
	case advisory:
		return colorInfo("[i]")
	case f.Status == evaluation.StatusError:
		return colorError("[!]")
	case f.IsCDNDetection():
		return colorWarn("[-]")
	default:
		return colorError("[-]")
	}
}

func formatVerdictWithColor(accepted bool) string {
	if accepted {
		return colorSuccess("ACCEPTED")
	}
	return colorError("REJECTED")
}
