package models

// ScanState represents where the scan sequence currently is. The machine
// advances idle -> step1 -> step2 -> step3 -> done, with failed as the
// terminal state of either failure path.
type ScanState string

const (
	ScanStateIdle   ScanState = "idle"
	ScanStateStep1  ScanState = "step1"
	ScanStateStep2  ScanState = "step2"
	ScanStateStep3  ScanState = "step3"
	ScanStateDone   ScanState = "done"
	ScanStateFailed ScanState = "failed"
)

// StepStatus is the UI status of a single pipeline step.
type StepStatus string

const (
	StepWaiting    StepStatus = "waiting"
	StepProcessing StepStatus = "processing"
	StepCompleted  StepStatus = "completed"
)

// StepVariant distinguishes the two cosmetic flavors of a completed step.
// Flagged is still "completed"; it is not a machine state of its own.
type StepVariant string

const (
	VariantNone     StepVariant = ""
	VariantVerified StepVariant = "verified"
	VariantFlagged  StepVariant = "flagged"
)

// StepCount is the fixed number of pipeline steps.
const StepCount = 3

// StepInfo is the rendered status of one step.
type StepInfo struct {
	Index   int         `json:"index"` // 1-based
	Title   string      `json:"title"`
	Status  StepStatus  `json:"status"`
	Variant StepVariant `json:"variant,omitempty"`
	Detail  string      `json:"detail,omitempty"`
}

// ScanSnapshot is the externally visible state of a scan.
type ScanSnapshot struct {
	ID           string              `json:"id"`
	FileID       string              `json:"fileId"`
	FileName     string              `json:"fileName"`
	State        ScanState           `json:"state"`
	Steps        [StepCount]StepInfo `json:"steps"`
	FinalVerdict string              `json:"finalVerdict,omitempty"`
	Confidence   float64             `json:"confidence,omitempty"`
	Error        string              `json:"error,omitempty"`
	ReportPath   string              `json:"reportPath,omitempty"`
}
