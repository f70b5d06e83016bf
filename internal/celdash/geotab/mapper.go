package geotab

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/tidwall/gjson"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// str returns the first non-empty value among paths. Numbers are rendered
// as written, so a numeric "year" becomes "2019".
func str(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := r.Get(p)
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		if v.Type == gjson.Number && v.Num == 0 {
			continue
		}
		if s := v.String(); s != "" {
			return s
		}
	}
	return ""
}

func parseTime(r gjson.Result) time.Time {
	s := r.String()
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isTrue(r gjson.Result, path string) bool {
	return r.Get(path).Type == gjson.True
}

// refName renders an entity reference that may be an object or a bare id.
func refName(r gjson.Result) string {
	if r.IsObject() {
		return str(r, "name", "id")
	}
	return r.String()
}

func toDevice(r gjson.Result) model.Device {
	d := model.Device{
		ID:          r.Get("id").String(),
		Name:        r.Get("name").String(),
		Year:        str(r, "year", "modelYear"),
		Make:        str(r, "make"),
		VehicleType: str(r, "vehicleType", "deviceType"),
		EngineType:  str(r, "engineType"),
		VIN:         str(r, "vehicleIdentificationNumber"),
	}
	for _, g := range r.Get("groups.#.id").Array() {
		if id := g.String(); id != "" {
			d.GroupIDs = append(d.GroupIDs, id)
		}
	}
	return d
}

func toGroup(r gjson.Result) model.Group {
	return model.Group{
		ID:       r.Get("id").String(),
		Name:     r.Get("name").String(),
		ParentID: r.Get("parent.id").String(),
	}
}

func toDeviceStatus(r gjson.Result) model.DeviceStatus {
	last := parseTime(r.Get("dateTime"))
	if last.IsZero() {
		last = parseTime(r.Get("lastCommunication"))
	}
	return model.DeviceStatus{
		DeviceID:     r.Get("device.id").String(),
		LastReported: last,
		IsDriving:    isTrue(r, "isDriving"),
	}
}

func toDiagnostic(r gjson.Result) model.Diagnostic {
	return model.Diagnostic{
		ID:     r.Get("id").String(),
		Name:   r.Get("name").String(),
		Code:   str(r, "code"),
		Source: refName(r.Get("source")),
	}
}

func toFailureMode(r gjson.Result) model.FailureMode {
	if !r.IsObject() {
		return model.FailureMode{ID: r.String()}
	}
	return model.FailureMode{
		ID:                r.Get("id").String(),
		Name:              r.Get("name").String(),
		Description:       r.Get("description").String(),
		RecommendedAction: r.Get("recommendedAction").String(),
		EffectOnComponent: r.Get("effectOnComponent").String(),
	}
}

func toRawState(r gjson.Result) model.RawState {
	st := r.Get("state")
	if !st.Exists() || st.Type == gjson.Null {
		st = r.Get("faultState")
	}
	switch st.Type {
	case gjson.Number:
		return model.RawState{Number: int(st.Int()), HasNumber: true}
	case gjson.String:
		return model.RawState{Name: st.String()}
	default:
		return model.RawState{}
	}
}

func toFault(r gjson.Result) model.FaultRecord {
	f := model.FaultRecord{
		ID:       r.Get("id").String(),
		DeviceID: r.Get("device.id").String(),
		DateTime: parseTime(r.Get("dateTime")),
		State:    toRawState(r),
		Severity: str(r, "severity"),
		Lamps: model.Lamps{
			RedStop:        isTrue(r, "redStopLamp"),
			Malfunction:    isTrue(r, "malfunctionLamp"),
			AmberWarning:   isTrue(r, "amberWarningLamp"),
			ProtectWarning: isTrue(r, "protectWarningLamp"),
		},
	}

	if d := r.Get("diagnostic"); d.IsObject() {
		diag := toDiagnostic(d)
		f.Diagnostic = &diag
	} else if d.Type == gjson.String {
		f.Diagnostic = &model.Diagnostic{ID: d.String()}
	}

	if fm := r.Get("failureMode"); fm.IsObject() || (fm.Type == gjson.String && fm.String() != "") {
		mode := toFailureMode(fm)
		f.FailureMode = &mode
	}

	if c := r.Get("controller"); c.IsObject() {
		f.Controller = &model.Controller{ID: c.Get("id").String(), Name: c.Get("name").String()}
	} else if c.Type == gjson.String && c.String() != "" {
		f.Controller = &model.Controller{ID: c.String()}
	}

	return f
}

func toTrip(r gjson.Result) model.TripRecord {
	return model.TripRecord{
		DeviceID: r.Get("device.id").String(),
		Start:    parseTime(r.Get("start")),
		Stop:     parseTime(r.Get("stop")),
	}
}

func mapAll[T any](rs []gjson.Result, fn func(gjson.Result) T) []T {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		out = append(out, fn(r))
	}
	return out
}
