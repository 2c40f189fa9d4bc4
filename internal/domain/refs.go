package domain

// Event and node references embedded in actions and choices. These are
// logical links that are not modeled as edges, so deleting the thing they
// point to has to walk them explicitly.

// ReferencedEvents returns the ids of every event the actions read or write,
// nested branches included. Duplicates are possible.
func (l ActionList) ReferencedEvents() []string {
	var ids []string
	for _, a := range l {
		switch a := a.(type) {
		case *SetFlagAction:
			ids = append(ids, a.Flag)
		case *ConditionalAction:
			if a.Condition.Source == ConditionSourceFlag {
				ids = append(ids, a.Condition.Subject)
			}
			ids = append(ids, a.SuccessActions.ReferencedEvents()...)
			ids = append(ids, a.FailureActions.ReferencedEvents()...)
		case *DiceRollAction:
			for _, o := range a.Outcomes {
				ids = append(ids, o.Actions.ReferencedEvents()...)
			}
		case *ModifyStatAction, *ModifyInventoryAction, *AddItemAction, nil:
		default:
			panic("domain: unhandled action type")
		}
	}
	return ids
}

// ReferencedEvents returns the ids of every event the choices test.
func (l ChoiceList) ReferencedEvents() []string {
	var ids []string
	for _, c := range l {
		switch c := c.(type) {
		case *ConditionalChoice:
			if c.Condition.Type == ConditionEvent {
				ids = append(ids, c.Condition.Subject)
			}
		case *SkillCheckChoice:
			for _, m := range c.RollConfig.ConditionalModifiers {
				if m.Trigger.CheckType == "flag" {
					ids = append(ids, m.Trigger.TargetID)
				}
			}
		case *SimpleChoice, *DiceRollChoice, nil:
		default:
			panic("domain: unhandled choice type")
		}
	}
	return ids
}

// ReferencesEvent reports whether the node's actions or choices use eventID.
func (n Node) ReferencesEvent(eventID string) bool {
	return contains(n.Data.Actions.ReferencedEvents(), eventID) ||
		contains(n.Data.Choices.ReferencedEvents(), eventID)
}

// ReferencesEvent reports whether the edge's actions use eventID.
func (e Edge) ReferencesEvent(eventID string) bool {
	if e.Data == nil {
		return false
	}
	return contains(e.Data.Actions.ReferencedEvents(), eventID)
}

// Targets returns the node ids dice-roll outcomes lead to, nested branches
// included.
func (l ActionList) Targets() []string {
	var ids []string
	for _, a := range l {
		switch a := a.(type) {
		case *DiceRollAction:
			for _, o := range a.Outcomes {
				ids = append(ids, o.TargetNodeID)
				ids = append(ids, o.Actions.Targets()...)
			}
		case *ConditionalAction:
			ids = append(ids, a.SuccessActions.Targets()...)
			ids = append(ids, a.FailureActions.Targets()...)
		}
	}
	return ids
}

// ClearTarget blanks every dice-roll outcome target equal to nodeID.
func (l ActionList) ClearTarget(nodeID string) bool {
	changed := false
	for _, a := range l {
		switch a := a.(type) {
		case *DiceRollAction:
			for i := range a.Outcomes {
				if clearIfEqual(&a.Outcomes[i].TargetNodeID, nodeID) {
					changed = true
				}
				if a.Outcomes[i].Actions.ClearTarget(nodeID) {
					changed = true
				}
			}
		case *ConditionalAction:
			if a.SuccessActions.ClearTarget(nodeID) {
				changed = true
			}
			if a.FailureActions.ClearTarget(nodeID) {
				changed = true
			}
		}
	}
	return changed
}

// ClearTarget blanks every choice target equal to nodeID.
func (l ChoiceList) ClearTarget(nodeID string) bool {
	changed := false
	for _, c := range l {
		if c.ClearTarget(nodeID) {
			changed = true
		}
	}
	return changed
}

// Targets returns every node id the choices lead to.
func (l ChoiceList) Targets() []string {
	var ids []string
	for _, c := range l {
		ids = append(ids, c.Targets()...)
	}
	return ids
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
