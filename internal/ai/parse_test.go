package ai

import (
	"strings"
	"testing"
	"unicode/utf8"
)

const sampleResponse = `FORMA_DEL_ROSTRO: ovalada

RECOMENDACIONES:
1. Pompadour clasico - Alarga visualmente el rostro
2. Corte texturizado medio - Equilibra los rasgos
3. Fade bajo con flequillo - Suaviza la frente

ANALISIS_DETALLADO:
El rostro presenta proporciones equilibradas.
La mandibula es suave y la frente proporcionada.

CONSEJOS_ADICIONALES:
Usa cera mate para mantener el volumen.`

func TestParseScanResponseStructured(t *testing.T) {
	result := ParseScanResponse(sampleResponse)

	if result.FaceShape != "ovalada" {
		t.Fatalf("face shape: got %q", result.FaceShape)
	}
	if len(result.Recommendations) != 3 {
		t.Fatalf("expected 3 recommendations, got %d: %v", len(result.Recommendations), result.Recommendations)
	}
	if result.Recommendations[0] != "Pompadour clasico - Alarga visualmente el rostro" {
		t.Fatalf("unexpected first recommendation: %q", result.Recommendations[0])
	}
	if !strings.Contains(result.DetailedAnalysis, "proporciones equilibradas") {
		t.Fatalf("analysis missing content: %q", result.DetailedAnalysis)
	}
	if strings.Contains(result.DetailedAnalysis, "cera mate") {
		t.Fatalf("tips section leaked into analysis: %q", result.DetailedAnalysis)
	}
}

func TestParseScanResponseBulletVariants(t *testing.T) {
	result := ParseScanResponse("RECOMENDACIONES:\n- Corte uno\n• Corte dos")
	if len(result.Recommendations) != 2 {
		t.Fatalf("expected 2 recommendations, got %v", result.Recommendations)
	}
}

func TestParseScanResponseFallback(t *testing.T) {
	raw := strings.Repeat("x", 600)
	result := ParseScanResponse(raw)
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected fallback recommendation, got %v", result.Recommendations)
	}
	if len(result.Recommendations[0]) != 500 {
		t.Fatalf("expected fallback truncated to 500, got %d", len(result.Recommendations[0]))
	}
}

func TestParseScanResponseFallbackKeepsRunesWhole(t *testing.T) {
	// Spanish replies put accented characters anywhere, including right at
	// the truncation point. "ó" is two bytes, so a byte slice at 500 would
	// split it.
	raw := strings.Repeat("a", 499) + "ó" + strings.Repeat("b", 200)
	result := ParseScanResponse(raw)
	if len(result.Recommendations) != 1 {
		t.Fatalf("expected fallback recommendation, got %v", result.Recommendations)
	}
	rec := result.Recommendations[0]
	if !utf8.ValidString(rec) {
		t.Fatalf("fallback recommendation is not valid UTF-8: %q", rec[490:])
	}
	if len(rec) != 499 {
		t.Fatalf("expected cut before the split rune at 499 bytes, got %d", len(rec))
	}
}

func TestStripDataURL(t *testing.T) {
	if got := StripDataURL("data:image/png;base64,abc123"); got != "abc123" {
		t.Fatalf("got %q", got)
	}
	if got := StripDataURL("abc123"); got != "abc123" {
		t.Fatalf("got %q", got)
	}
}
