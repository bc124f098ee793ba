package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/media-verifier/backend/internal/models"
)

// ProvenanceKind tags the two outcomes of the provenance layer. Both count
// as complete; absence of a manifest is never a failure.
type ProvenanceKind int

const (
	ProvenanceNotFound ProvenanceKind = iota
	ProvenancePresent
)

// Provenance is the interpreted C2PA layer.
type Provenance struct {
	Kind        ProvenanceKind
	Issuer      string
	AIGenerated bool
	Valid       bool
}

// Lines renders the provenance log output.
func (p Provenance) Lines() []string {
	switch p.Kind {
	case ProvenancePresent:
		issuer := p.Issuer
		if issuer == "" {
			issuer = "unknown"
		}
		return []string{fmt.Sprintf("C2PA manifest found. Issuer: %s | AI generated: %s", issuer, yesNo(p.AIGenerated))}
	default:
		return []string{"No C2PA manifest found, continuing."}
	}
}

// Variant maps the outcome onto the completed-step flavor shown in the UI.
func (p Provenance) Variant() models.StepVariant {
	switch p.Kind {
	case ProvenancePresent:
		if p.AIGenerated {
			return models.VariantFlagged
		}
		return models.VariantVerified
	default:
		return models.VariantNone
	}
}

// WatermarkKind tags the watermark layer outcomes.
type WatermarkKind int

const (
	WatermarkChecked WatermarkKind = iota
	WatermarkSkipped
)

// Watermark is the interpreted SynthID layer.
type Watermark struct {
	Kind   WatermarkKind
	Reason string
}

// Lines renders the watermark log output.
func (w Watermark) Lines() []string {
	switch w.Kind {
	case WatermarkSkipped:
		reason := w.Reason
		if reason == "" {
			reason = "no reason given"
		}
		return []string{fmt.Sprintf("SynthID check skipped: %s", reason)}
	default:
		return []string{"SynthID check complete."}
	}
}

// Variant returns the completed-step flavor for the watermark layer.
func (w Watermark) Variant() models.StepVariant {
	if w.Kind == WatermarkChecked {
		return models.VariantVerified
	}
	return models.VariantNone
}

// ClassifierKind tags the three-way model classification outcome. This is
// the only layer with an explicit failure variant.
type ClassifierKind int

const (
	ClassifierComplete ClassifierKind = iota
	ClassifierSkipped
	ClassifierFailed
)

// Classifier is the interpreted model classification layer.
type Classifier struct {
	Kind       ClassifierKind
	Label      string
	Confidence float64
	Reason     string
	Message    string
}

// Lines renders the classifier log output.
func (c Classifier) Lines() []string {
	switch c.Kind {
	case ClassifierComplete:
		return []string{fmt.Sprintf("Model classification: %s (confidence %.1f%%)", c.Label, c.Confidence)}
	case ClassifierSkipped:
		return []string{fmt.Sprintf("Model classification skipped: %s", c.Reason)}
	default:
		return []string{fmt.Sprintf("Model classification failed: %s", c.Message)}
	}
}

// Variant returns the completed-step flavor for the classifier layer.
func (c Classifier) Variant() models.StepVariant {
	if c.Kind != ClassifierComplete {
		return models.VariantNone
	}
	if c.Label == "AI Image" || c.Label == "AI-generated" {
		return models.VariantFlagged
	}
	return models.VariantVerified
}

// Interpretation is the full decoded result: one tagged outcome per layer
// plus the backend's verdict.
type Interpretation struct {
	Provenance   Provenance
	Watermark    Watermark
	Classifier   Classifier
	FinalVerdict string
	Confidence   float64
}

// VerdictLines renders the closing log output.
func (in Interpretation) VerdictLines() []string {
	verdict := in.FinalVerdict
	if verdict == "" {
		verdict = "Inconclusive"
	}
	return []string{
		fmt.Sprintf("Final verdict: %s", verdict),
		fmt.Sprintf("Overall confidence: %.1f%%", in.Confidence),
	}
}

// Interpret decodes the three raw layers of a successful analysis result
// into tagged outcomes, applying the missing-field defaults explicitly.
func Interpret(res *models.AnalysisResult) Interpretation {
	return Interpretation{
		Provenance:   interpretProvenance(res.Layers.C2PA),
		Watermark:    interpretWatermark(res.Layers.SynthID),
		Classifier:   interpretClassifier(res.Layers.AIModel),
		FinalVerdict: res.FinalVerdict,
		Confidence:   res.Confidence,
	}
}

func interpretProvenance(raw json.RawMessage) Provenance {
	var layer models.C2PALayer
	if !decodeLayer(raw, &layer) {
		return Provenance{Kind: ProvenanceNotFound}
	}
	if !layer.C2PAPresent {
		return Provenance{Kind: ProvenanceNotFound}
	}
	return Provenance{
		Kind:        ProvenancePresent,
		Issuer:      layer.Issuer,
		AIGenerated: layer.AIGenerated,
		Valid:       layer.Valid,
	}
}

func interpretWatermark(raw json.RawMessage) Watermark {
	var layer models.SynthIDLayer
	if !decodeLayer(raw, &layer) {
		return Watermark{Kind: WatermarkChecked}
	}
	if layer.Status == "skipped" {
		return Watermark{Kind: WatermarkSkipped, Reason: layer.Reason}
	}
	return Watermark{Kind: WatermarkChecked}
}

func interpretClassifier(raw json.RawMessage) Classifier {
	var layer models.AIModelLayer
	if !decodeLayer(raw, &layer) {
		return Classifier{Kind: ClassifierFailed, Message: "AI model unavailable"}
	}
	switch layer.Status {
	case "complete":
		return Classifier{
			Kind:       ClassifierComplete,
			Label:      layer.Label,
			Confidence: layer.Confidence,
		}
	case "skipped":
		reason := layer.Reason
		if reason == "" {
			reason = "no reason given"
		}
		return Classifier{Kind: ClassifierSkipped, Reason: reason}
	default:
		msg := layer.Error
		if msg == "" {
			msg = "AI model unavailable"
		}
		return Classifier{Kind: ClassifierFailed, Message: msg}
	}
}

// decodeLayer reports whether raw held a usable layer object.
func decodeLayer(raw json.RawMessage, v interface{}) bool {
	if len(raw) == 0 || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, v) == nil
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
