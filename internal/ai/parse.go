package ai

import (
	"strings"
	"unicode/utf8"
)

type ScanResult struct {
	FaceShape        string
	Recommendations  []string
	DetailedAnalysis string
}

var listPrefixes = []string{"1.", "2.", "3.", "4.", "5.", "-", "•"}

// ParseScanResponse extracts the structured sections from the model's reply.
// The model is prompted for a fixed layout but replies drift, so parsing is
// tolerant: if no list items are recognized the raw reply is kept as a single
// recommendation.
func ParseScanResponse(text string) ScanResult {
	var result ScanResult
	var analysis strings.Builder
	section := ""

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "FORMA_DEL_ROSTRO:"):
			result.FaceShape = strings.TrimSpace(strings.TrimPrefix(line, "FORMA_DEL_ROSTRO:"))
		case strings.HasPrefix(line, "RECOMENDACIONES:"):
			section = "recommendations"
		case strings.HasPrefix(line, "ANALISIS_DETALLADO:"), strings.HasPrefix(line, "ANÁLISIS_DETALLADO:"):
			section = "analysis"
		case strings.HasPrefix(line, "CONSEJOS_ADICIONALES:"):
			section = "tips"
		case section == "recommendations" && hasListPrefix(line):
			if rec := strings.TrimSpace(strings.TrimLeft(line, "0123456789.-•) ")); rec != "" {
				result.Recommendations = append(result.Recommendations, rec)
			}
		case section == "analysis":
			analysis.WriteString(line)
			analysis.WriteString(" ")
		}
	}

	result.DetailedAnalysis = strings.TrimSpace(analysis.String())

	if len(result.Recommendations) == 0 && text != "" {
		result.Recommendations = []string{truncate(text, 500)}
	}

	return result
}

// truncate cuts s to at most max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func hasListPrefix(line string) bool {
	for _, prefix := range listPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
