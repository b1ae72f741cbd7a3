package engine

// PipelinePhase names the step of an evaluation that produced a trace entry
// or a diagnostic.
type PipelinePhase string

const (
	Compile     PipelinePhase = "compile"
	Validity    PipelinePhase = "validity"
	Eligibility PipelinePhase = "eligibility"
	Effect      PipelinePhase = "effect"
	Resolution  PipelinePhase = "resolution"
)
