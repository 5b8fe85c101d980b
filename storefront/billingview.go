package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// PlanRelation describes how a plan relates to the viewer's subscription.
type PlanRelation string

const (
	// RelationCurrent marks the plan the viewer is subscribed to.
	RelationCurrent PlanRelation = "current"
	// RelationBlocked marks other plans while a subscription is usable.
	RelationBlocked PlanRelation = "blocked"
	// RelationEligible marks plans the viewer may subscribe to.
	RelationEligible PlanRelation = "eligible"
)

// ClassifySubscription reduces a subscription to the view layer's notion
// of usable. Statuses outside active and trialing read as no subscription.
func ClassifySubscription(sub *Subscription) *Subscription {
	if sub == nil {
		return nil
	}
	switch sub.Status {
	case StatusActive, StatusTrialing:
		return sub
	default:
		return nil
	}
}

// PlanRelationship reports how a plan relates to the viewer's usable
// subscription. With no usable subscription every plan is eligible.
func PlanRelationship(plan Plan, sub *Subscription) PlanRelation {
	usable := ClassifySubscription(sub)
	if usable == nil {
		return RelationEligible
	}
	if usable.PlanID == plan.ID {
		return RelationCurrent
	}
	return RelationBlocked
}

// TrialEligible reports whether the viewer may start a trial. Only a
// viewer with no usable subscription qualifies.
func TrialEligible(sub *Subscription) bool {
	return ClassifySubscription(sub) == nil
}

// CancelFlowState is a step in the cancellation dialogue.
type CancelFlowState string

const (
	CancelIdle       CancelFlowState = "idle"
	CancelConfirming CancelFlowState = "confirming"
	CancelSubmitting CancelFlowState = "cancelling"
	CancelDone       CancelFlowState = "cancelled"
)

// cancelToken is the phrase the viewer must type before the confirm
// action unlocks.
const cancelToken = "CONFIRM"

// subscriptionAPI is the slice of the API client the cancel flow uses.
type subscriptionAPI interface {
	CancelSubscription(ctx context.Context) (*Subscription, error)
	CurrentSubscription(ctx context.Context) (*Subscription, error)
}

// CancelFlow drives the subscription cancellation dialogue. The confirm
// action stays disabled until the viewer types the exact confirmation
// phrase, and a confirmed flow issues the cancel request exactly once.
type CancelFlow struct {
	api    subscriptionAPI
	notify Notifier

	mu    sync.Mutex
	state CancelFlowState
	input string
	sub   *Subscription
}

func NewCancelFlow(api subscriptionAPI, notify Notifier) *CancelFlow {
	if notify == nil {
		notify = noopNotifier{}
	}
	return &CancelFlow{api: api, notify: notify, state: CancelIdle}
}

// State returns the current step.
func (f *CancelFlow) State() CancelFlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Subscription returns the result of a completed flow.
func (f *CancelFlow) Subscription() *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

// Open moves an idle flow into the confirmation step with a blank input.
func (f *CancelFlow) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != CancelIdle {
		return
	}
	f.state = CancelConfirming
	f.input = ""
}

// Dismiss abandons the confirmation step without cancelling.
func (f *CancelFlow) Dismiss() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != CancelConfirming {
		return
	}
	f.state = CancelIdle
	f.input = ""
}

// SetInput records the viewer's typed confirmation phrase.
func (f *CancelFlow) SetInput(input string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != CancelConfirming {
		return
	}
	f.input = input
}

// CanConfirm reports whether the confirm action is enabled. The typed
// phrase must match exactly, whitespace included.
func (f *CancelFlow) CanConfirm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state == CancelConfirming && f.input == cancelToken
}

// Confirm submits the cancellation. A failed request returns the flow to
// the confirmation step so the viewer may retry; a successful one
// refetches the subscription and completes the flow.
func (f *CancelFlow) Confirm(ctx context.Context) {
	f.mu.Lock()
	if f.state != CancelConfirming || f.input != cancelToken {
		f.mu.Unlock()
		return
	}
	f.state = CancelSubmitting
	f.mu.Unlock()

	if _, err := f.api.CancelSubscription(ctx); err != nil {
		f.mu.Lock()
		f.state = CancelConfirming
		f.mu.Unlock()
		f.notify.Failure(cancelFailureMessage(err))
		return
	}

	sub, err := f.api.CurrentSubscription(ctx)
	f.mu.Lock()
	f.state = CancelDone
	f.input = ""
	if err == nil {
		f.sub = sub
	}
	f.mu.Unlock()
	f.notify.Success("Your subscription has been cancelled.")
}

func cancelFailureMessage(err error) string {
	msg := "Could not cancel your subscription."
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = msg + " " + strings.TrimSpace(apiErr.Message)
	}
	return msg
}
