package label

import (
	"strings"

	"checkin-server-go/models"
)

type guardianGroup struct {
	code     int
	guardian string
	children []string
}

// BuildBatch concatenates one child band per selected record and one
// guardian band per cod_resp present in the selection, separated by a blank
// line. Guardian bands list only the selected children of that guardian.
// It returns the markup and the ids that were actually found.
func BuildBatch(records []models.ChildRecord, selectedIDs []int, g models.Geometry) (string, []int) {
	selected := make(map[int]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}

	var blocks []string
	var groups []*guardianGroup
	byCode := make(map[int]*guardianGroup)
	found := make([]int, 0, len(selectedIDs))

	for _, r := range records {
		if _, ok := selected[r.ID]; !ok {
			continue
		}
		found = append(found, r.ID)
		blocks = append(blocks, GenerateChildLabel(r, g))

		if r.CodResp == 0 {
			continue
		}
		grp, ok := byCode[r.CodResp]
		if !ok {
			grp = &guardianGroup{code: r.CodResp, guardian: r.NomeResponsavel}
			byCode[r.CodResp] = grp
			groups = append(groups, grp)
		}
		grp.children = append(grp.children, r.NomeCrianca)
	}

	for _, grp := range groups {
		blocks = append(blocks, GenerateGuardianLabel(grp.guardian, grp.children, grp.code, g))
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n")), found
}
