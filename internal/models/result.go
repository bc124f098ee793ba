package models

import "encoding/json"

// AnalysisResult is the JSON payload returned by the remote analysis
// endpoint. Layer payloads are kept raw here; the analysis package decodes
// them into tagged per-layer outcomes.
type AnalysisResult struct {
	Success       bool         `json:"success"`
	Error         string       `json:"error,omitempty"`
	Filename      string       `json:"filename,omitempty"`
	Layers        ResultLayers `json:"layers"`
	FinalVerdict  string       `json:"final_verdict"`
	Confidence    float64      `json:"confidence"`
	IsAIGenerated bool         `json:"is_ai_generated"`
}

// ResultLayers holds the three analysis layers. Any of them may be null or
// absent in the response.
type ResultLayers struct {
	C2PA    json.RawMessage `json:"c2pa,omitempty"`
	SynthID json.RawMessage `json:"synthid,omitempty"`
	AIModel json.RawMessage `json:"ai_model,omitempty"`
}

// C2PALayer is the provenance layer payload.
type C2PALayer struct {
	C2PAPresent bool   `json:"c2pa_present"`
	Available   *bool  `json:"available,omitempty"`
	Valid       bool   `json:"valid,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
	AIGenerated bool   `json:"ai_generated,omitempty"`
	Status      string `json:"status,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// SynthIDLayer is the watermark layer payload.
type SynthIDLayer struct {
	Status string `json:"status,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// AIModelLayer is the model classification layer payload.
type AIModelLayer struct {
	Status     string  `json:"status,omitempty"`
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Error      string  `json:"error,omitempty"`
}
