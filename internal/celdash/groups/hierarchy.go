// Package groups derives the region and branch levels of the organisation
// tree, the display attributes of devices, and the device selection.
package groups

import (
	"sort"

	"github.com/samber/lo"

	"github.com/autopeer-io/celdash/internal/celdash/core/model"
)

// Well-known root group of a database.
const (
	CompanyGroupName = "CompanyGroup"
	CompanyGroupID   = "GroupCompanyId"
)

// Hierarchy holds the two levels below the roots: regions are children of
// a root, branches are children of a region.
type Hierarchy struct {
	Regions []model.Group `json:"regions"`

	// Branches maps a region id to its branches.
	Branches map[string][]model.Group `json:"branches"`
}

// BuildHierarchy walks from roots, or from the company group when roots
// is empty. Regions and branches are sorted by name.
func BuildHierarchy(groups []model.Group, roots []string) Hierarchy {
	if len(roots) == 0 {
		roots = lo.FilterMap(groups, func(g model.Group, _ int) (string, bool) {
			return g.ID, g.Name == CompanyGroupName || g.ID == CompanyGroupID
		})
	}

	children := lo.GroupBy(lo.Filter(groups, func(g model.Group, _ int) bool { return g.ParentID != "" }),
		func(g model.Group) string { return g.ParentID })

	h := Hierarchy{Branches: map[string][]model.Group{}}
	for _, root := range roots {
		for _, region := range children[root] {
			h.Regions = append(h.Regions, region)
			h.Branches[region.ID] = sortByName(append([]model.Group(nil), children[region.ID]...))
		}
	}
	h.Regions = sortByName(h.Regions)
	return h
}

func sortByName(gs []model.Group) []model.Group {
	sort.SliceStable(gs, func(i, j int) bool { return gs[i].Name < gs[j].Name })
	return gs
}

// Place locates d in the hierarchy. Membership of a branch places the device
// in that branch and its region; when several groups match, the last one in
// hierarchy order wins.
func (h Hierarchy) Place(d model.Device) model.Placement {
	p := model.Placement{Region: model.Placeholder, Branch: model.Placeholder}
	if len(d.GroupIDs) == 0 {
		return p
	}

	member := lo.Associate(d.GroupIDs, func(id string) (string, struct{}) { return id, struct{}{} })
	var region, branch *model.Group
	for i := range h.Regions {
		reg := &h.Regions[i]
		if _, ok := member[reg.ID]; ok {
			region = reg
		}
		brs := h.Branches[reg.ID]
		for j := range brs {
			if _, ok := member[brs[j].ID]; ok {
				region = reg
				branch = &brs[j]
			}
		}
	}

	if region != nil {
		p.Region, p.RegionID = groupName(*region), region.ID
	}
	if branch != nil {
		p.Branch, p.BranchID = groupName(*branch), branch.ID
	}
	return p
}

func groupName(g model.Group) string {
	if g.Name == "" {
		return model.Placeholder
	}
	return g.Name
}

// Placements places every device.
func (h Hierarchy) Placements(devices []model.Device) map[string]model.Placement {
	out := make(map[string]model.Placement, len(devices))
	for _, d := range devices {
		out[d.ID] = h.Place(d)
	}
	return out
}
