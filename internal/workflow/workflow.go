// Package workflow holds the lifecycle state machines of requisitions,
// purchase orders and work orders.
package workflow

import "fmt"

// State is a lifecycle status value.
type State string

// Requisition states.
const (
	RequisitionDraft     State = "draft"
	RequisitionPending   State = "pending"
	RequisitionApproved  State = "approved"
	RequisitionRejected  State = "rejected"
	RequisitionCancelled State = "cancelled"
	RequisitionCompleted State = "completed"
)

// Purchase order states.
const (
	PODraft              State = "draft"
	POPending            State = "pending"
	POApproved           State = "approved"
	POSentToVendor       State = "sent_to_vendor"
	POAcknowledged       State = "acknowledged"
	POPartiallyDelivered State = "partially_delivered"
	POCompleted          State = "completed"
	POCancelled          State = "cancelled"
)

// Work order states.
const (
	WODraft      State = "draft"
	WOPending    State = "pending"
	WOApproved   State = "approved"
	WOInProgress State = "in_progress"
	WOCompleted  State = "completed"
	WOCancelled  State = "cancelled"
	WOOnHold     State = "on_hold"
)

// Machine is a transition table. Terminal states have no outgoing edges.
type Machine struct {
	name    string
	states  []State
	edges   map[State][]State
	escapes []State
}

// Requisition: draft -> pending -> approved|rejected, approved -> completed,
// cancelled from any non-terminal state.
var Requisition = &Machine{
	name:   "requisition",
	states: []State{RequisitionDraft, RequisitionPending, RequisitionApproved, RequisitionRejected, RequisitionCancelled, RequisitionCompleted},
	edges: map[State][]State{
		RequisitionDraft:    {RequisitionPending},
		RequisitionPending:  {RequisitionApproved, RequisitionRejected},
		RequisitionApproved: {RequisitionCompleted},
	},
	escapes: []State{RequisitionCancelled},
}

// PurchaseOrder follows the delivery pipeline; an acknowledged order filled
// by a single delivery moves straight to completed.
var PurchaseOrder = &Machine{
	name:   "purchase order",
	states: []State{PODraft, POPending, POApproved, POSentToVendor, POAcknowledged, POPartiallyDelivered, POCompleted, POCancelled},
	edges: map[State][]State{
		PODraft:              {POPending},
		POPending:            {POApproved},
		POApproved:           {POSentToVendor},
		POSentToVendor:       {POAcknowledged},
		POAcknowledged:       {POPartiallyDelivered, POCompleted},
		POPartiallyDelivered: {POCompleted},
	},
	escapes: []State{POCancelled},
}

// WorkOrder can be held or cancelled from any non-terminal state. Leaving
// on_hold is handled by Resume, which restores the held-from state.
var WorkOrder = &Machine{
	name:   "work order",
	states: []State{WODraft, WOPending, WOApproved, WOInProgress, WOCompleted, WOCancelled, WOOnHold},
	edges: map[State][]State{
		WODraft:      {WOPending},
		WOPending:    {WOApproved},
		WOApproved:   {WOInProgress},
		WOInProgress: {WOCompleted},
		WOOnHold:     {},
	},
	escapes: []State{WOOnHold, WOCancelled},
}

// Valid reports whether s belongs to the machine.
func (m *Machine) Valid(s State) bool {
	for _, known := range m.states {
		if known == s {
			return true
		}
	}
	return false
}

// Terminal reports whether s has no way out.
func (m *Machine) Terminal(s State) bool {
	_, ok := m.edges[s]
	return !ok && m.Valid(s)
}

// CanTransition reports whether from -> to is a legal move. A move to the
// current state is not a transition.
func (m *Machine) CanTransition(from, to State) bool {
	if from == to || !m.Valid(from) || !m.Valid(to) || m.Terminal(from) {
		return false
	}
	for _, next := range m.edges[from] {
		if next == to {
			return true
		}
	}
	for _, esc := range m.escapes {
		if esc == to {
			return true
		}
	}
	return false
}

// Step validates a move. It returns noop=true when from == to so callers can
// treat repeated requests idempotently.
func (m *Machine) Step(from, to State) (noop bool, err error) {
	if !m.Valid(to) {
		return false, fmt.Errorf("unknown %s status %q", m.name, to)
	}
	if from == to {
		return true, nil
	}
	if !m.CanTransition(from, to) {
		return false, fmt.Errorf("%s cannot move from %s to %s", m.name, from, to)
	}
	return false, nil
}

// States lists the machine's states in declaration order.
func (m *Machine) States() []State {
	out := make([]State, len(m.states))
	copy(out, m.states)
	return out
}
