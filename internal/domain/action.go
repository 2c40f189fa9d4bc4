package domain

import (
	"encoding/json"
	"fmt"
	"log"
)

type ActionType string

const (
	ActionModifyStat      ActionType = "modifyStat"
	ActionModifyInventory ActionType = "modifyInventory"
	ActionAddItem         ActionType = "addItem"
	ActionSetFlag         ActionType = "setFlag"
	ActionDiceRoll        ActionType = "diceRoll"
	ActionConditional     ActionType = "conditional"
)

// Action is a state-changing effect run when a node is entered or an edge is
// traversed. Implementations: ModifyStatAction, ModifyInventoryAction,
// AddItemAction, SetFlagAction, DiceRollAction, ConditionalAction.
type Action interface {
	ActionType() ActionType
	ActionID() string
	clone() Action
}

type ModifyStatAction struct {
	ID        string  `json:"id"`
	Stat      string  `json:"stat"`
	Operation string  `json:"operation"`
	Value     float64 `json:"value"`
}

type ModifyInventoryAction struct {
	ID        string  `json:"id"`
	Operation string  `json:"operation"`
	Item      string  `json:"item"`
	Quantity  float64 `json:"quantity"`
}

// AddItemAction puts Item into the character sheet section keyed by Section.
type AddItemAction struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Item    Item   `json:"item"`
}

type SetFlagAction struct {
	ID    string `json:"id"`
	Flag  string `json:"flag"`
	Value any    `json:"value"`
}

type DiceRollOutcome struct {
	ID           string     `json:"id"`
	Range        string     `json:"range"`
	Description  string     `json:"description"`
	TargetNodeID string     `json:"targetNodeId"`
	Actions      ActionList `json:"actions,omitempty"`
}

type DiceRollAction struct {
	ID          string            `json:"id"`
	Dice        string            `json:"dice"`
	Description string            `json:"description"`
	Outcomes    []DiceRollOutcome `json:"outcomes"`
}

type ConditionSource string

const (
	ConditionSourceStat ConditionSource = "stat"
	ConditionSourceFlag ConditionSource = "flag"
)

type ActionCondition struct {
	Source   ConditionSource `json:"source"`
	Subject  string          `json:"subject"`
	Operator string          `json:"operator"`
	Value    any             `json:"value"`
}

type ConditionalAction struct {
	ID             string          `json:"id"`
	Condition      ActionCondition `json:"condition"`
	SuccessActions ActionList      `json:"successActions"`
	FailureActions ActionList      `json:"failureActions"`
}

func (a *ModifyStatAction) ActionType() ActionType      { return ActionModifyStat }
func (a *ModifyInventoryAction) ActionType() ActionType { return ActionModifyInventory }
func (a *AddItemAction) ActionType() ActionType         { return ActionAddItem }
func (a *SetFlagAction) ActionType() ActionType         { return ActionSetFlag }
func (a *DiceRollAction) ActionType() ActionType        { return ActionDiceRoll }
func (a *ConditionalAction) ActionType() ActionType     { return ActionConditional }

func (a *ModifyStatAction) ActionID() string      { return a.ID }
func (a *ModifyInventoryAction) ActionID() string { return a.ID }
func (a *AddItemAction) ActionID() string         { return a.ID }
func (a *SetFlagAction) ActionID() string         { return a.ID }
func (a *DiceRollAction) ActionID() string        { return a.ID }
func (a *ConditionalAction) ActionID() string     { return a.ID }

func (a *ModifyStatAction) clone() Action {
	cp := *a
	return &cp
}

func (a *ModifyInventoryAction) clone() Action {
	cp := *a
	return &cp
}

func (a *AddItemAction) clone() Action {
	cp := *a
	cp.Item.Effects = append([]ItemEffect(nil), a.Item.Effects...)
	if a.Item.Quantity != nil {
		q := *a.Item.Quantity
		cp.Item.Quantity = &q
	}
	return &cp
}

func (a *SetFlagAction) clone() Action {
	cp := *a
	return &cp
}

func (a *DiceRollAction) clone() Action {
	cp := *a
	if a.Outcomes != nil {
		cp.Outcomes = make([]DiceRollOutcome, len(a.Outcomes))
		for i, o := range a.Outcomes {
			o.Actions = o.Actions.Clone()
			cp.Outcomes[i] = o
		}
	}
	return &cp
}

func (a *ConditionalAction) clone() Action {
	cp := *a
	cp.SuccessActions = a.SuccessActions.Clone()
	cp.FailureActions = a.FailureActions.Clone()
	return &cp
}

// ── JSON ───────────────────────────────────────────────────

func (a ModifyStatAction) MarshalJSON() ([]byte, error) {
	type plain ModifyStatAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionModifyStat, plain(a)})
}

func (a ModifyInventoryAction) MarshalJSON() ([]byte, error) {
	type plain ModifyInventoryAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionModifyInventory, plain(a)})
}

func (a AddItemAction) MarshalJSON() ([]byte, error) {
	type plain AddItemAction
	if a.Item.Effects == nil {
		a.Item.Effects = []ItemEffect{}
	}
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionAddItem, plain(a)})
}

func (a SetFlagAction) MarshalJSON() ([]byte, error) {
	type plain SetFlagAction
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionSetFlag, plain(a)})
}

func (a DiceRollAction) MarshalJSON() ([]byte, error) {
	type plain DiceRollAction
	if a.Outcomes == nil {
		a.Outcomes = []DiceRollOutcome{}
	}
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionDiceRoll, plain(a)})
}

func (a ConditionalAction) MarshalJSON() ([]byte, error) {
	type plain ConditionalAction
	if a.SuccessActions == nil {
		a.SuccessActions = ActionList{}
	}
	if a.FailureActions == nil {
		a.FailureActions = ActionList{}
	}
	return json.Marshal(struct {
		Type ActionType `json:"type"`
		plain
	}{ActionConditional, plain(a)})
}

// DecodeAction decodes one action, dispatching on its "type" field.
func DecodeAction(raw json.RawMessage) (Action, error) {
	var head struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode action: %w", err)
	}
	var a Action
	switch head.Type {
	case ActionModifyStat:
		a = &ModifyStatAction{}
	case ActionModifyInventory:
		a = &ModifyInventoryAction{}
	case ActionAddItem:
		a = &AddItemAction{}
	case ActionSetFlag:
		a = &SetFlagAction{}
	case ActionDiceRoll:
		a = &DiceRollAction{}
	case ActionConditional:
		a = &ConditionalAction{}
	default:
		return nil, fmt.Errorf("decode action: unknown type %q", head.Type)
	}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("decode %s action: %w", head.Type, err)
	}
	return a, nil
}

// ActionList is the polymorphic actions array of a node, edge or nested
// branch. Decoding is lenient in the same way as ChoiceList.
type ActionList []Action

func (l *ActionList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		*l = nil
		return nil
	}
	out := make(ActionList, 0, len(raws))
	for _, raw := range raws {
		a, err := DecodeAction(raw)
		if err != nil {
			log.Printf("domain: dropping action: %v", err)
			continue
		}
		out = append(out, a)
	}
	*l = out
	return nil
}

func (l ActionList) Clone() ActionList {
	if l == nil {
		return nil
	}
	out := make(ActionList, len(l))
	for i, a := range l {
		out[i] = a.clone()
	}
	return out
}
