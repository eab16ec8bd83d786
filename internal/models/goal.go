package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GoalType string

const (
	GoalTypeInspirationalObjective GoalType = "inspirational_objective"
	GoalTypeQuantitativeKeyResult  GoalType = "quantitative_key_result"
	GoalTypeQualitativeKeyResult   GoalType = "qualitative_key_result"
)

func (t GoalType) Valid() bool {
	switch t {
	case GoalTypeInspirationalObjective, GoalTypeQuantitativeKeyResult, GoalTypeQualitativeKeyResult:
		return true
	}
	return false
}

// Posture is the risk stance a goal was set with. It drives how fast the
// expected confidence rises over the goal's lifetime.
type Posture string

const (
	PostureCommit    Posture = "commit"
	PostureStretch   Posture = "stretch"
	PostureTransform Posture = "transform"
)

type PrivacyLevel string

const (
	PrivacyEveryone        PrivacyLevel = "everyone"
	PrivacyOwnerAndCreator PrivacyLevel = "owner_and_creator"
	PrivacyCreatorOnly     PrivacyLevel = "creator_only"
)

type OwnerKind string

const (
	OwnerIndividual OwnerKind = "individual"
	OwnerOrgUnit    OwnerKind = "org_unit"
)

// Owner is either a single teammate or an org unit. Kind is the discriminant.
type Owner struct {
	Kind OwnerKind `json:"kind" gorm:"column:owner_kind;not null"`
	ID   uuid.UUID `json:"id" gorm:"column:owner_id;type:uuid;index;not null"`
}

func IndividualOwner(teammateID uuid.UUID) Owner {
	return Owner{Kind: OwnerIndividual, ID: teammateID}
}

func OrgUnitOwner(orgUnitID uuid.UUID) Owner {
	return Owner{Kind: OwnerOrgUnit, ID: orgUnitID}
}

// TeammateID returns the owning teammate, or false when the owner is an org unit.
func (o Owner) TeammateID() (uuid.UUID, bool) {
	if o.Kind != OwnerIndividual {
		return uuid.Nil, false
	}
	return o.ID, true
}

type Goal struct {
	ID                   uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Title                string         `json:"title" gorm:"not null"`
	GoalType             GoalType       `json:"goalType" gorm:"not null"`
	Owner                Owner          `json:"owner" gorm:"embedded"`
	CreatorID            uuid.UUID      `json:"creatorId" gorm:"type:uuid;not null"`
	PrivacyLevel         PrivacyLevel   `json:"privacyLevel" gorm:"not null;default:'everyone'"`
	InitialConfidence    Posture        `json:"initialConfidence" gorm:"not null;default:'stretch'"`
	EarliestTargetDate   *time.Time     `json:"earliestTargetDate" gorm:"type:date"`
	MostLikelyTargetDate *time.Time     `json:"mostLikelyTargetDate" gorm:"type:date"`
	LatestTargetDate     *time.Time     `json:"latestTargetDate" gorm:"type:date"`
	StartedAt            *time.Time     `json:"startedAt"`
	CompletedAt          *time.Time     `json:"completedAt"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	if g.InitialConfidence == "" {
		g.InitialConfidence = PostureStretch
	}
	if g.PrivacyLevel == "" {
		g.PrivacyLevel = PrivacyEveryone
	}
	return g.Validate()
}

func (g *Goal) IsCompleted() bool {
	return g.CompletedAt != nil
}

// Validate checks the goal's own fields, including target date ordering.
func (g *Goal) Validate() error {
	var msgs []string
	if g.Title == "" {
		msgs = append(msgs, "title is required")
	}
	if !g.GoalType.Valid() {
		msgs = append(msgs, "goal type is invalid")
	}
	if g.Owner.Kind != OwnerIndividual && g.Owner.Kind != OwnerOrgUnit {
		msgs = append(msgs, "owner kind is invalid")
	}
	if ml := g.MostLikelyTargetDate; ml != nil {
		if g.EarliestTargetDate != nil && g.EarliestTargetDate.After(*ml) {
			msgs = append(msgs, "earliest target date must be on or before the most likely target date")
		}
		if g.LatestTargetDate != nil && !g.LatestTargetDate.After(*ml) {
			msgs = append(msgs, "latest target date must be after the most likely target date")
		}
	}
	if len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	return nil
}

// ClampTargetDates moves the most likely target date to ml and pulls the
// bounds along so that earliest <= ml < latest keeps holding.
func (g *Goal) ClampTargetDates(ml time.Time) {
	ml = DateOf(ml)
	g.MostLikelyTargetDate = &ml
	if g.EarliestTargetDate != nil && g.EarliestTargetDate.After(ml) {
		earliest := ml
		g.EarliestTargetDate = &earliest
	}
	if g.LatestTargetDate != nil && !g.LatestTargetDate.After(ml) {
		latest := ml.AddDate(0, 0, 1)
		g.LatestTargetDate = &latest
	}
}

// LastTargetDate is the latest of the three target dates, or nil when none is set.
func (g *Goal) LastTargetDate() *time.Time {
	var last *time.Time
	for _, d := range []*time.Time{g.EarliestTargetDate, g.MostLikelyTargetDate, g.LatestTargetDate} {
		if d != nil && (last == nil || d.After(*last)) {
			last = d
		}
	}
	return last
}

// GoalLink is a directed parent -> child edge.
type GoalLink struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ParentGoalID uuid.UUID `json:"parentGoalId" gorm:"type:uuid;not null;uniqueIndex:idx_goal_link,priority:1"`
	ChildGoalID  uuid.UUID `json:"childGoalId" gorm:"type:uuid;not null;index;uniqueIndex:idx_goal_link,priority:2"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (l *GoalLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.ParentGoalID == l.ChildGoalID {
		return ErrCycleDetected
	}
	return nil
}

// Goal DTOs
type CreateGoalRequest struct {
	Title                string     `json:"title" validate:"required,max=255"`
	GoalType             GoalType   `json:"goalType" validate:"required,oneof=inspirational_objective quantitative_key_result qualitative_key_result"`
	OwnerKind            OwnerKind  `json:"ownerKind" validate:"omitempty,oneof=individual org_unit"`
	OwnerID              *uuid.UUID `json:"ownerId"`
	PrivacyLevel         string     `json:"privacyLevel" validate:"omitempty,oneof=everyone owner_and_creator creator_only"`
	InitialConfidence    string     `json:"initialConfidence" validate:"omitempty,oneof=commit stretch transform"`
	EarliestTargetDate   *string    `json:"earliestTargetDate"`
	MostLikelyTargetDate *string    `json:"mostLikelyTargetDate"`
	LatestTargetDate     *string    `json:"latestTargetDate"`
	ParentGoalID         *uuid.UUID `json:"parentGoalId"`
}

type UpdateGoalRequest struct {
	Title                *string `json:"title" validate:"omitempty,min=1,max=255"`
	InitialConfidence    *string `json:"initialConfidence" validate:"omitempty,oneof=commit stretch transform"`
	PrivacyLevel         *string `json:"privacyLevel" validate:"omitempty,oneof=everyone owner_and_creator creator_only"`
	EarliestTargetDate   *string `json:"earliestTargetDate"`
	MostLikelyTargetDate *string `json:"mostLikelyTargetDate"`
	LatestTargetDate     *string `json:"latestTargetDate"`
	Completed            *bool   `json:"completed"`
}

type OutlineImportRequest struct {
	Text            string     `json:"text" validate:"required"`
	DefaultGoalType GoalType   `json:"defaultGoalType" validate:"omitempty,oneof=inspirational_objective quantitative_key_result qualitative_key_result"`
	ParentGoalID    *uuid.UUID `json:"parentGoalId"`
}
