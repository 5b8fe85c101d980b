package subscriptions

import (
	"github.com/angelmondragon/marketloft-backend/pkg/db/models"
	"github.com/angelmondragon/marketloft-backend/pkg/enums"
)

// PlanRelationship classifies a candidate plan against the user's usable
// subscription.
type PlanRelationship string

const (
	// RelationshipCurrent means the usable subscription already targets the plan.
	RelationshipCurrent PlanRelationship = "current"
	// RelationshipBlocked means a usable subscription exists for a different plan.
	RelationshipBlocked PlanRelationship = "blocked"
	// RelationshipEligible means no usable subscription exists.
	RelationshipEligible PlanRelationship = "eligible"
)

// IsUsableStatus reports whether the status counts as a live subscription.
// Everything outside active/trialing reads as "no subscription".
func IsUsableStatus(status enums.SubscriptionStatus) bool {
	return status == enums.SubscriptionStatusActive || status == enums.SubscriptionStatusTrialing
}

// Classify returns the subscription when it is usable, nil otherwise.
// past_due, incomplete, and canceled rows must never surface as the
// user's current plan.
func Classify(sub *models.Subscription) *models.Subscription {
	if sub == nil || !IsUsableStatus(sub.Status) {
		return nil
	}
	return sub
}

// GetPlanRelationship derives the three-way plan classification from the
// (possibly nil) usable subscription.
func GetPlanRelationship(sub *models.Subscription, planID string) PlanRelationship {
	usable := Classify(sub)
	if usable == nil {
		return RelationshipEligible
	}
	if usable.PlanID == planID {
		return RelationshipCurrent
	}
	return RelationshipBlocked
}
