// Package extract turns a listing's detail page into a JobRecord.
//
// Extraction is a two-stage pipeline. The enhanced stage asks a language
// model to copy out raw field strings; the heuristic stage reads the same
// strings from CSS selector text and labelled lines. Either way the strings
// go through the same deterministic parsers, so a given page and extraction
// time always yield the same record.
package extract

import (
	"fmt"

	"github.com/baxromumarov/job-autopilot/internal/model"
)

// Stage names the extractor that produced a Result.
type Stage string

const (
	StageEnhanced  Stage = "enhanced"
	StageHeuristic Stage = "heuristic"
)

// Fields that can fail extraction.
const (
	FieldReference = "reference"
	FieldTitle     = "title"
	FieldEmployer  = "employer"
	FieldSalary    = "salary"
)

// Failure names the field that could not be extracted.
type Failure struct {
	Field  string
	Reason string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extract %s: %s", f.Field, f.Reason)
}

// Result is either a complete JobRecord or a Failure, never both.
type Result struct {
	Job     model.JobRecord
	Failure *Failure
	Stage   Stage
}

func Ok(job model.JobRecord, stage Stage) Result {
	return Result{Job: job, Stage: stage}
}

func Failed(field, reason string, stage Stage) Result {
	return Result{Failure: &Failure{Field: field, Reason: reason}, Stage: stage}
}

func (r Result) OK() bool {
	return r.Failure == nil
}
