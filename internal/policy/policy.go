// Package policy decides what a teammate may see and check in on.
package policy

import (
	"github.com/arnold/goalgraph-api/internal/models"
)

// PrivacyPolicy grants access from a goal's privacy level, its creator and
// its owner. Org-unit owners admit every member of that unit.
type PrivacyPolicy struct{}

func (PrivacyPolicy) CanView(goal *models.Goal, viewer *models.Teammate) bool {
	if goal == nil || viewer == nil {
		return false
	}
	if goal.CreatorID == viewer.ID {
		return true
	}
	switch goal.PrivacyLevel {
	case models.PrivacyEveryone, "":
		return true
	case models.PrivacyOwnerAndCreator:
		return owns(goal.Owner, viewer)
	default:
		return false
	}
}

func owns(o models.Owner, viewer *models.Teammate) bool {
	switch o.Kind {
	case models.OwnerIndividual:
		return o.ID == viewer.ID
	case models.OwnerOrgUnit:
		return viewer.OrgUnitID != nil && *viewer.OrgUnitID == o.ID
	}
	return false
}
