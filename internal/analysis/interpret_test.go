package analysis

import (
	"encoding/json"
	"testing"

	"github.com/media-verifier/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestInterpretProvenance(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    ProvenanceKind
		wantVariant models.StepVariant
		wantLine    string
	}{
		{
			name:        "manifest present and AI generated",
			raw:         `{"c2pa_present": true, "issuer": "Acme", "ai_generated": true}`,
			wantKind:    ProvenancePresent,
			wantVariant: models.VariantFlagged,
			wantLine:    "C2PA manifest found. Issuer: Acme | AI generated: YES",
		},
		{
			name:        "manifest present, not AI",
			raw:         `{"c2pa_present": true, "issuer": "Leica", "ai_generated": false}`,
			wantKind:    ProvenancePresent,
			wantVariant: models.VariantVerified,
			wantLine:    "C2PA manifest found. Issuer: Leica | AI generated: NO",
		},
		{
			name:        "manifest present, issuer missing",
			raw:         `{"c2pa_present": true}`,
			wantKind:    ProvenancePresent,
			wantVariant: models.VariantVerified,
			wantLine:    "C2PA manifest found. Issuer: unknown | AI generated: NO",
		},
		{
			name:        "no manifest",
			raw:         `{"c2pa_present": false, "message": "No C2PA manifest found"}`,
			wantKind:    ProvenanceNotFound,
			wantVariant: models.VariantNone,
			wantLine:    "No C2PA manifest found, continuing.",
		},
		{
			name:        "layer absent",
			raw:         "",
			wantKind:    ProvenanceNotFound,
			wantVariant: models.VariantNone,
			wantLine:    "No C2PA manifest found, continuing.",
		},
		{
			name:        "layer null",
			raw:         "null",
			wantKind:    ProvenanceNotFound,
			wantVariant: models.VariantNone,
			wantLine:    "No C2PA manifest found, continuing.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := interpretProvenance(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantKind, p.Kind)
			assert.Equal(t, tt.wantVariant, p.Variant())
			assert.Equal(t, []string{tt.wantLine}, p.Lines())
		})
	}
}

func TestInterpretWatermark(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind WatermarkKind
		wantLine string
	}{
		{
			name:     "skipped with reason",
			raw:      `{"status": "skipped", "reason": "not applicable"}`,
			wantKind: WatermarkSkipped,
			wantLine: "SynthID check skipped: not applicable",
		},
		{
			name:     "skipped without reason",
			raw:      `{"status": "skipped"}`,
			wantKind: WatermarkSkipped,
			wantLine: "SynthID check skipped: no reason given",
		},
		{
			name:     "complete",
			raw:      `{"status": "complete"}`,
			wantKind: WatermarkChecked,
			wantLine: "SynthID check complete.",
		},
		{
			name:     "layer absent treated as complete",
			raw:      "",
			wantKind: WatermarkChecked,
			wantLine: "SynthID check complete.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := interpretWatermark(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantKind, w.Kind)
			assert.Equal(t, []string{tt.wantLine}, w.Lines())
		})
	}
}

func TestInterpretClassifier(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantKind    ClassifierKind
		wantVariant models.StepVariant
		wantLine    string
	}{
		{
			name:        "complete flags AI label",
			raw:         `{"status": "complete", "label": "AI-generated", "confidence": 87.3}`,
			wantKind:    ClassifierComplete,
			wantVariant: models.VariantFlagged,
			wantLine:    "Model classification: AI-generated (confidence 87.3%)",
		},
		{
			name:        "complete real image",
			raw:         `{"status": "complete", "label": "Real Image", "confidence": 92.25}`,
			wantKind:    ClassifierComplete,
			wantVariant: models.VariantVerified,
			wantLine:    "Model classification: Real Image (confidence 92.2%)",
		},
		{
			name:        "skipped",
			raw:         `{"status": "skipped", "reason": "C2PA verification successful"}`,
			wantKind:    ClassifierSkipped,
			wantVariant: models.VariantNone,
			wantLine:    "Model classification skipped: C2PA verification successful",
		},
		{
			name:        "error with message",
			raw:         `{"status": "error", "error": "AI model not loaded"}`,
			wantKind:    ClassifierFailed,
			wantVariant: models.VariantNone,
			wantLine:    "Model classification failed: AI model not loaded",
		},
		{
			name:        "error without message falls back",
			raw:         `{"status": "error"}`,
			wantKind:    ClassifierFailed,
			wantVariant: models.VariantNone,
			wantLine:    "Model classification failed: AI model unavailable",
		},
		{
			name:        "layer absent falls back",
			raw:         "",
			wantKind:    ClassifierFailed,
			wantVariant: models.VariantNone,
			wantLine:    "Model classification failed: AI model unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := interpretClassifier(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantKind, c.Kind)
			assert.Equal(t, tt.wantVariant, c.Variant())
			assert.Equal(t, []string{tt.wantLine}, c.Lines())
		})
	}
}

func TestInterpret_FullResult(t *testing.T) {
	var res models.AnalysisResult
	err := json.Unmarshal([]byte(fixtureResponse), &res)
	assert.NoError(t, err)

	in := Interpret(&res)

	assert.Equal(t, ProvenancePresent, in.Provenance.Kind)
	assert.Equal(t, "Acme", in.Provenance.Issuer)
	assert.Equal(t, WatermarkSkipped, in.Watermark.Kind)
	assert.Equal(t, ClassifierComplete, in.Classifier.Kind)
	assert.Equal(t, "LIKELY AI-GENERATED", in.FinalVerdict)

	lines := in.VerdictLines()
	assert.Equal(t, "Final verdict: LIKELY AI-GENERATED", lines[0])
	assert.Equal(t, "Overall confidence: 87.3%", lines[1])
}

func TestInterpret_EmptyVerdict(t *testing.T) {
	in := Interpretation{}
	assert.Equal(t, "Final verdict: Inconclusive", in.VerdictLines()[0])
}
