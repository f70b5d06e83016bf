// Package enrich turns raw fault records into display rows, merging the live
// diagnostic dictionaries with the static knowledge base.
package enrich

import (
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/internal/celdash/knowledgebase"
)

// Dictionary resolves diagnostic and failure mode ids.
// In celdash, this is implemented by refdata.Cache.
type Dictionary interface {
	Diagnostic(id string) (model.Diagnostic, bool)
	FailureMode(id string) (model.FailureMode, bool)
}

// DiagnosticInfo is the resolved diagnostic of a fault. Missing fields are "--".
type DiagnosticInfo struct {
	Name   string
	Code   string
	Source string
}

// FailureModeInfo is the resolved failure mode of a fault. Missing fields are "--".
type FailureModeInfo struct {
	Name              string
	Description       string
	RecommendedAction string
	EffectOnComponent string
}

// Enricher resolves the display fields of fault records.
type Enricher struct {
	dict Dictionary
	kb   *knowledgebase.KnowledgeBase
}

// New creates an Enricher. A nil kb means knowledgebase.Default().
func New(dict Dictionary, kb *knowledgebase.KnowledgeBase) *Enricher {
	if kb == nil {
		kb = knowledgebase.Default()
	}
	return &Enricher{dict: dict, kb: kb}
}

func orPlaceholder(s string) string {
	if s == "" {
		return model.Placeholder
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Diagnostic resolves the fault's diagnostic from the dictionary, then from
// the reference embedded in the record.
func (e *Enricher) Diagnostic(f model.FaultRecord) DiagnosticInfo {
	if f.Diagnostic == nil {
		return DiagnosticInfo{Name: model.Placeholder, Code: model.Placeholder, Source: model.Placeholder}
	}
	if d, ok := e.dict.Diagnostic(f.Diagnostic.ID); ok {
		return DiagnosticInfo{
			Name:   orPlaceholder(d.Name),
			Code:   orPlaceholder(d.Code),
			Source: orPlaceholder(d.Source),
		}
	}
	return DiagnosticInfo{
		Name:   orPlaceholder(f.Diagnostic.Name),
		Code:   orPlaceholder(firstNonEmpty(f.Diagnostic.Code, f.Diagnostic.ID)),
		Source: orPlaceholder(f.Diagnostic.Source),
	}
}

// FailureMode resolves the fault's failure mode from the dictionary, then
// from the reference embedded in the record.
func (e *Enricher) FailureMode(f model.FaultRecord) FailureModeInfo {
	fm := f.FailureMode
	if fm == nil {
		return FailureModeInfo{
			Name:              model.Placeholder,
			Description:       model.Placeholder,
			RecommendedAction: model.Placeholder,
			EffectOnComponent: model.Placeholder,
		}
	}
	if cached, ok := e.dict.FailureMode(fm.ID); ok {
		fm = &cached
	}
	return FailureModeInfo{
		Name:              orPlaceholder(fm.Name),
		Description:       orPlaceholder(fm.Description),
		RecommendedAction: orPlaceholder(fm.RecommendedAction),
		EffectOnComponent: orPlaceholder(fm.EffectOnComponent),
	}
}

// Code returns the resolved diagnostic code of f, or "--".
func (e *Enricher) Code(f model.FaultRecord) string {
	return e.Diagnostic(f).Code
}

// ControllerLabel returns the controller name, else its id, else "--".
func ControllerLabel(c *model.Controller) string {
	if c == nil {
		return model.Placeholder
	}
	return orPlaceholder(firstNonEmpty(c.Name, c.ID))
}

// Enrich resolves every display field of f except Unit and Count. The
// knowledge base only fills severity when it is "None" or "--", and effect
// or action when they are "--".
func (e *Enricher) Enrich(f model.FaultRecord) model.DtcRow {
	diag := e.Diagnostic(f)
	fm := e.FailureMode(f)

	row := model.DtcRow{
		Date:        f.DateTime,
		DeviceID:    f.DeviceID,
		Code:        diag.Code,
		Description: diag.Name,
		State:       State(f.State).String(),
		Severity:    Severity(f),
		FaultClass:  diag.Source,
		Controller:  ControllerLabel(f.Controller),
		Effect:      fm.EffectOnComponent,
		Action:      fm.RecommendedAction,
	}

	if ref, ok := e.kb.Lookup(row.Code, row.Description, f.Controller); ok {
		if row.Severity == SeverityNone || row.Severity == model.Placeholder {
			row.Severity = ref.Severity
		}
		if row.Effect == model.Placeholder {
			row.Effect = ref.Effect
		}
		if row.Action == model.Placeholder {
			row.Action = ref.Action
		}
	}
	return row
}

// OccurrenceKey identifies a code on a device.
type OccurrenceKey struct {
	DeviceID string
	Code     string
}

// CountOccurrences counts faults per device and resolved code.
func (e *Enricher) CountOccurrences(faults []model.FaultRecord) map[OccurrenceKey]int {
	out := map[OccurrenceKey]int{}
	for _, f := range faults {
		out[OccurrenceKey{DeviceID: f.DeviceID, Code: e.Code(f)}]++
	}
	return out
}
