package imports

import "fmt"

// RowResult records the outcome for one spreadsheet row (1-indexed in
// spreadsheet terms, so data starts at row 2).
type RowResult struct {
	Row    int    `json:"row"`
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Report is the outcome of one preview or confirm pass. It lives only for
// the duration of a single import request.
type Report struct {
	Success []RowResult `json:"success"`
	Skipped []RowResult `json:"skipped"`
	Errors  []RowResult `json:"errors"`
	Message string      `json:"message"`
}

func newReport() *Report {
	return &Report{
		Success: []RowResult{},
		Skipped: []RowResult{},
		Errors:  []RowResult{},
	}
}

func (r *Report) addSuccess(row int, key string) {
	r.Success = append(r.Success, RowResult{Row: row, Key: key})
}

func (r *Report) addSkipped(row int, key, reason string) {
	r.Skipped = append(r.Skipped, RowResult{Row: row, Key: key, Reason: reason})
}

func (r *Report) addError(row int, key, message string) {
	r.Errors = append(r.Errors, RowResult{Row: row, Key: key, Reason: message})
}

func (r *Report) finalize(noun string) {
	r.Message = fmt.Sprintf("%d %s rows valid, %d skipped, %d errors",
		len(r.Success), noun, len(r.Skipped), len(r.Errors))
}
