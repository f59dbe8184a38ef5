// Package verdict defines the three-valued outcome of an ELSST keyword check
// and the evaluation response reported to callers.
package verdict

import "strings"

// Verdict is the classification outcome for one catalogue record.
type Verdict string

const (
	// Pass means the record positively uses the ELSST vocabulary.
	Pass Verdict = "pass"
	// Fail means the record positively does not use the ELSST vocabulary.
	Fail Verdict = "fail"
	// Indeterminate means the determination could not be made.
	Indeterminate Verdict = "indeterminate"
)

// String returns the literal verdict token.
func (v Verdict) String() string {
	return string(v)
}

// ExitCode maps the verdict to a process exit status: 0 for pass,
// 1 for anything else.
func (v Verdict) ExitCode() int {
	if v == Pass {
		return 0
	}
	return 1
}

// EvaluationResponse couples the verdict with a human-readable account of
// how it was reached.
type EvaluationResponse struct {
	Result  Verdict `json:"result"`
	Message string  `json:"message"`
}

// NewEvaluationResponse builds a response from a verdict and its trace steps.
func NewEvaluationResponse(v Verdict, trace []string) EvaluationResponse {
	return EvaluationResponse{
		Result:  v,
		Message: strings.Join(trace, "\n"),
	}
}
