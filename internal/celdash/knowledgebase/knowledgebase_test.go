package knowledgebase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

func TestDefault_Size(t *testing.T) {
	assert.Equal(t, 45, Default().Len())
}

func TestIsDeviceController(t *testing.T) {
	tests := []struct {
		name string
		ctrl *model.Controller
		want bool
	}{
		{"nil", nil, false},
		{"go device id", &model.Controller{ID: ControllerGoDeviceID}, true},
		{"none id", &model.Controller{ID: ControllerNoneID}, true},
		{"go prefix", &model.Controller{ID: "x", Name: "GO9"}, true},
		{"geotab substring", &model.Controller{ID: "x", Name: "My Geotab unit"}, true},
		{"engine ecu", &model.Controller{ID: "x", Name: "Engine"}, false},
		{"go not at start", &model.Controller{ID: "x", Name: "Cargo"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDeviceController(tt.ctrl))
		})
	}
}

func TestLookup(t *testing.T) {
	kb := Default()
	engine := &model.Controller{ID: "c1", Name: "Engine"}

	tests := []struct {
		name         string
		code, desc   string
		ctrl         *model.Controller
		wantOK       bool
		wantSeverity string
	}{
		{"exact match any controller", "168", "Vehicle warning light is on", engine, true, "Informational"},
		{"exact match nil controller", "168", "Vehicle warning light is on", nil, true, "Informational"},
		{"code fallback on device", "140", "Something else", &model.Controller{Name: "GO9"}, true, "Critical"},
		{"no fallback on ecu", "140", "Something else", engine, false, ""},
		{"unknown code", "999", "Nope", &model.Controller{ID: ControllerGoDeviceID}, false, ""},
		{"placeholder code", "--", "--", &model.Controller{ID: ControllerGoDeviceID}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := kb.Lookup(tt.code, tt.desc, tt.ctrl)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantSeverity, e.Severity)
		})
	}
}

func TestLookup_EntryText(t *testing.T) {
	e, ok := Default().Lookup("289", "CAN BUS short detected", nil)
	assert.True(t, ok)
	assert.Equal(t, Entry{
		Severity: "Critical",
		Effect:   "Short circuit detected on CAN bus",
		Action:   "Remove device immediately; contact Support",
	}, e)
}
