// Package knowledgebase is the static reference of telematics device fault
// codes used to backfill severity, effect and action text that live
// diagnostic data leaves blank.
package knowledgebase

import (
	"strings"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// Controller ids reported for faults raised by the telematics device itself.
const (
	ControllerGoDeviceID = "ControllerGoDeviceId"
	ControllerNoneID     = "ControllerNoneId"
)

// Entry is the remediation text of one known fault.
type Entry struct {
	Severity string `json:"severity"`
	Effect   string `json:"effect"`
	Action   string `json:"action"`
}

type row struct {
	code        string
	description string
	entry       Entry
}

// KnowledgeBase indexes entries by "code|description" and by code alone.
// It is immutable after construction.
type KnowledgeBase struct {
	exact  map[string]Entry
	byCode map[string]Entry
}

var std = build(telematicsFaults)

// Default returns the built-in knowledge base.
func Default() *KnowledgeBase { return std }

func build(rows []row) *KnowledgeBase {
	kb := &KnowledgeBase{
		exact:  make(map[string]Entry, len(rows)),
		byCode: make(map[string]Entry, len(rows)),
	}
	// Later rows with the same code replace earlier ones in the code index.
	for _, r := range rows {
		kb.exact[key(r.code, r.description)] = r.entry
		kb.byCode[r.code] = r.entry
	}
	return kb
}

func key(code, description string) string {
	return code + "|" + description
}

// Len returns the number of exact entries.
func (kb *KnowledgeBase) Len() int { return len(kb.exact) }

// Lookup matches on code and description first. When that fails and the
// fault was raised by the telematics device, the code alone is matched.
// Lookup never fails; ok is false when nothing matches.
func (kb *KnowledgeBase) Lookup(code, description string, ctrl *model.Controller) (Entry, bool) {
	if e, ok := kb.exact[key(code, description)]; ok {
		return e, true
	}
	if IsDeviceController(ctrl) {
		if e, ok := kb.byCode[code]; ok {
			return e, true
		}
	}
	return Entry{}, false
}

// IsDeviceController reports whether ctrl identifies the telematics device
// rather than a vehicle ECU. A nil controller is never a device controller.
func IsDeviceController(ctrl *model.Controller) bool {
	if ctrl == nil {
		return false
	}
	if ctrl.ID == ControllerGoDeviceID || ctrl.ID == ControllerNoneID {
		return true
	}
	name := strings.ToLower(ctrl.Name)
	return strings.HasPrefix(name, "go") || strings.Contains(name, "geotab")
}
