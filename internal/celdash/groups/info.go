package groups

import (
	"sort"

	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

func orPlaceholder(s string) string {
	if s == "" {
		return model.Placeholder
	}
	return s
}

// Info returns the display attributes of d, "--" where missing.
func Info(d model.Device) model.DeviceInfo {
	return model.DeviceInfo{
		Year:   orPlaceholder(d.Year),
		Make:   orPlaceholder(d.Make),
		VType:  orPlaceholder(d.VehicleType),
		Engine: orPlaceholder(d.EngineType),
	}
}

// InfoMap returns the display attributes of every device.
func InfoMap(devices []model.Device) map[string]model.DeviceInfo {
	return lo.Associate(devices, func(d model.Device) (string, model.DeviceInfo) { return d.ID, Info(d) })
}

// Backfill fills the "--" fields of info from decoded, leaving known values alone.
func Backfill(info model.DeviceInfo, decoded model.DeviceInfo) model.DeviceInfo {
	fill := func(cur, v string) string {
		if cur == model.Placeholder && v != "" && v != model.Placeholder {
			return v
		}
		return cur
	}
	return model.DeviceInfo{
		Year:   fill(info.Year, decoded.Year),
		Make:   fill(info.Make, decoded.Make),
		VType:  fill(info.VType, decoded.VType),
		Engine: fill(info.Engine, decoded.Engine),
	}
}

func isAll(s string) bool { return s == "" || s == "all" }

// Select applies f to devices. A concrete vehicle id selects only that
// device and ignores the other fields.
func Select(devices []model.Device, placements map[string]model.Placement, info map[string]model.DeviceInfo,
	f model.DeviceFilter) []model.Device {
	if !isAll(f.VehicleID) {
		return lo.Filter(devices, func(d model.Device, _ int) bool { return d.ID == f.VehicleID })
	}

	return lo.Filter(devices, func(d model.Device, _ int) bool {
		p := placements[d.ID]
		if !isAll(f.RegionID) && p.RegionID != f.RegionID {
			return false
		}
		if !isAll(f.BranchID) && p.BranchID != f.BranchID {
			return false
		}
		if isAll(f.Year) && isAll(f.Make) && isAll(f.VType) {
			return true
		}
		vi, ok := info[d.ID]
		if !ok {
			vi = Info(d)
		}
		if !isAll(f.Year) && vi.Year != f.Year {
			return false
		}
		if !isAll(f.Make) && vi.Make != f.Make {
			return false
		}
		if !isAll(f.VType) && vi.VType != f.VType {
			return false
		}
		return true
	})
}

// Option is one selectable entry of a filter list.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Options are the values offered by each device filter.
type Options struct {
	Regions  []Option            `json:"regions"`
	Branches map[string][]Option `json:"branches"`
	Vehicles []Option            `json:"vehicles"`
	Years    []string            `json:"years"`
	Makes    []string            `json:"makes"`
	Types    []string            `json:"types"`
}

func groupOption(g model.Group) Option {
	name := g.Name
	if name == "" {
		name = g.ID
	}
	return Option{ID: g.ID, Name: name}
}

// BuildOptions lists regions and branches in hierarchy order, vehicles by
// name, and the distinct known years, makes and types in sorted order.
func BuildOptions(h Hierarchy, devices []model.Device, info map[string]model.DeviceInfo) Options {
	o := Options{
		Regions:  lo.Map(h.Regions, func(g model.Group, _ int) Option { return groupOption(g) }),
		Branches: make(map[string][]Option, len(h.Branches)),
	}
	for rid, brs := range h.Branches {
		o.Branches[rid] = lo.Map(brs, func(g model.Group, _ int) Option { return groupOption(g) })
	}

	sorted := append([]model.Device(nil), devices...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	o.Vehicles = lo.Map(sorted, func(d model.Device, _ int) Option { return Option{ID: d.ID, Name: d.DisplayName()} })

	values := lo.Values(info)
	distinct := func(pick func(model.DeviceInfo) string) []string {
		vs := lo.Uniq(lo.FilterMap(values, func(vi model.DeviceInfo, _ int) (string, bool) {
			v := pick(vi)
			return v, v != "" && v != model.Placeholder
		}))
		sort.Strings(vs)
		return vs
	}
	o.Years = distinct(func(vi model.DeviceInfo) string { return vi.Year })
	o.Makes = distinct(func(vi model.DeviceInfo) string { return vi.Make })
	o.Types = distinct(func(vi model.DeviceInfo) string { return vi.VType })
	return o
}
