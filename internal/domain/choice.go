package domain

import (
	"encoding/json"
	"fmt"
	"log"
)

type ChoiceType string

const (
	ChoiceSimple      ChoiceType = "simple"
	ChoiceConditional ChoiceType = "conditional"
	ChoiceDiceRoll    ChoiceType = "diceRoll"
	ChoiceSkillCheck  ChoiceType = "skillCheck"
)

// Choice is a player-facing exit of a node. The set of implementations is
// closed: SimpleChoice, ConditionalChoice, DiceRollChoice, SkillCheckChoice.
type Choice interface {
	ChoiceType() ChoiceType
	ChoiceID() string
	// Handle is the layout handle the choice leaves its node from.
	Handle() string
	// Targets lists every node id the choice can lead to (unset ones included).
	Targets() []string
	// ClearTarget blanks every target equal to nodeID and reports whether
	// anything changed.
	ClearTarget(nodeID string) bool
	clone() Choice
}

type SimpleChoice struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	TargetNodeID string `json:"targetNodeId"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

type ConditionType string

const (
	ConditionStat  ConditionType = "stat"
	ConditionItem  ConditionType = "item"
	ConditionEvent ConditionType = "event"
)

type ChoiceCondition struct {
	ID           string        `json:"id"`
	Type         ConditionType `json:"type"`
	Subject      string        `json:"subject"`
	Operator     string        `json:"operator"`
	Value        any           `json:"value"`
	SourceHandle string        `json:"sourceHandle,omitempty"`
}

type ConditionalChoice struct {
	ID                  string          `json:"id"`
	Label               string          `json:"label"`
	Condition           ChoiceCondition `json:"condition"`
	SuccessTargetNodeID string          `json:"successTargetNodeId"`
	FailureTargetNodeID string          `json:"failureTargetNodeId"`
	SourceHandle        string          `json:"sourceHandle,omitempty"`
}

type DiceOutcome struct {
	ID           string `json:"id"`
	Range        string `json:"range"`
	Label        string `json:"label"`
	TargetNodeID string `json:"targetNodeId"`
	SourceHandle string `json:"sourceHandle,omitempty"`
}

type DiceRollChoice struct {
	ID           string        `json:"id"`
	Label        string        `json:"label"`
	Dice         string        `json:"dice"`
	Outcomes     []DiceOutcome `json:"outcomes"`
	SourceHandle string        `json:"sourceHandle,omitempty"`
}

type ModifierTrigger struct {
	CheckType string `json:"checkType"`
	TargetID  string `json:"targetId"`
	Operator  string `json:"operator"`
	Value     *bool  `json:"value,omitempty"`
}

type ModifierEffect struct {
	Operation string  `json:"operation"`
	Value     float64 `json:"value"`
}

type ConditionalModifier struct {
	RuleID  string          `json:"ruleId"`
	Trigger ModifierTrigger `json:"trigger"`
	Effect  ModifierEffect  `json:"effect"`
}

type SkillCheckConfig struct {
	BaseDifficulty       float64               `json:"baseDifficulty"`
	Skill                string                `json:"skill"`
	DiceType             string                `json:"diceType"`
	ConditionalModifiers []ConditionalModifier `json:"conditionalModifiers"`
}

type SkillCheckChoice struct {
	ID                  string           `json:"id"`
	Label               string           `json:"label"`
	SuccessTargetNodeID string           `json:"successTargetNodeId"`
	FailureTargetNodeID string           `json:"failureTargetNodeId"`
	RollConfig          SkillCheckConfig `json:"rollConfig"`
	SourceHandle        string           `json:"sourceHandle,omitempty"`
	SuccessText         string           `json:"successText,omitempty"`
	FailureText         string           `json:"failureText,omitempty"`
}

func (c *SimpleChoice) ChoiceType() ChoiceType      { return ChoiceSimple }
func (c *ConditionalChoice) ChoiceType() ChoiceType { return ChoiceConditional }
func (c *DiceRollChoice) ChoiceType() ChoiceType    { return ChoiceDiceRoll }
func (c *SkillCheckChoice) ChoiceType() ChoiceType  { return ChoiceSkillCheck }

func (c *SimpleChoice) ChoiceID() string      { return c.ID }
func (c *ConditionalChoice) ChoiceID() string { return c.ID }
func (c *DiceRollChoice) ChoiceID() string    { return c.ID }
func (c *SkillCheckChoice) ChoiceID() string  { return c.ID }

func (c *SimpleChoice) Handle() string      { return c.SourceHandle }
func (c *ConditionalChoice) Handle() string { return c.SourceHandle }
func (c *DiceRollChoice) Handle() string    { return c.SourceHandle }
func (c *SkillCheckChoice) Handle() string  { return c.SourceHandle }

func (c *SimpleChoice) Targets() []string { return []string{c.TargetNodeID} }

func (c *ConditionalChoice) Targets() []string {
	return []string{c.SuccessTargetNodeID, c.FailureTargetNodeID}
}

func (c *DiceRollChoice) Targets() []string {
	targets := make([]string, 0, len(c.Outcomes))
	for _, o := range c.Outcomes {
		targets = append(targets, o.TargetNodeID)
	}
	return targets
}

func (c *SkillCheckChoice) Targets() []string {
	return []string{c.SuccessTargetNodeID, c.FailureTargetNodeID}
}

func (c *SimpleChoice) ClearTarget(nodeID string) bool {
	return clearIfEqual(&c.TargetNodeID, nodeID)
}

func (c *ConditionalChoice) ClearTarget(nodeID string) bool {
	a := clearIfEqual(&c.SuccessTargetNodeID, nodeID)
	b := clearIfEqual(&c.FailureTargetNodeID, nodeID)
	return a || b
}

func (c *DiceRollChoice) ClearTarget(nodeID string) bool {
	changed := false
	for i := range c.Outcomes {
		if clearIfEqual(&c.Outcomes[i].TargetNodeID, nodeID) {
			changed = true
		}
	}
	return changed
}

func (c *SkillCheckChoice) ClearTarget(nodeID string) bool {
	a := clearIfEqual(&c.SuccessTargetNodeID, nodeID)
	b := clearIfEqual(&c.FailureTargetNodeID, nodeID)
	return a || b
}

func clearIfEqual(field *string, nodeID string) bool {
	if nodeID == "" || *field != nodeID {
		return false
	}
	*field = ""
	return true
}

func (c *SimpleChoice) clone() Choice {
	cp := *c
	return &cp
}

func (c *ConditionalChoice) clone() Choice {
	cp := *c
	return &cp
}

func (c *DiceRollChoice) clone() Choice {
	cp := *c
	cp.Outcomes = append([]DiceOutcome(nil), c.Outcomes...)
	return &cp
}

func (c *SkillCheckChoice) clone() Choice {
	cp := *c
	cp.RollConfig.ConditionalModifiers = append([]ConditionalModifier(nil), c.RollConfig.ConditionalModifiers...)
	return &cp
}

// ── JSON ───────────────────────────────────────────────────

func (c SimpleChoice) MarshalJSON() ([]byte, error) {
	type plain SimpleChoice
	return json.Marshal(struct {
		Type ChoiceType `json:"type"`
		plain
	}{ChoiceSimple, plain(c)})
}

func (c ConditionalChoice) MarshalJSON() ([]byte, error) {
	type plain ConditionalChoice
	return json.Marshal(struct {
		Type ChoiceType `json:"type"`
		plain
	}{ChoiceConditional, plain(c)})
}

func (c DiceRollChoice) MarshalJSON() ([]byte, error) {
	type plain DiceRollChoice
	if c.Outcomes == nil {
		c.Outcomes = []DiceOutcome{}
	}
	return json.Marshal(struct {
		Type ChoiceType `json:"type"`
		plain
	}{ChoiceDiceRoll, plain(c)})
}

func (c SkillCheckChoice) MarshalJSON() ([]byte, error) {
	type plain SkillCheckChoice
	if c.RollConfig.ConditionalModifiers == nil {
		c.RollConfig.ConditionalModifiers = []ConditionalModifier{}
	}
	return json.Marshal(struct {
		Type ChoiceType `json:"type"`
		plain
	}{ChoiceSkillCheck, plain(c)})
}

// DecodeChoice decodes one choice, dispatching on its "type" field.
func DecodeChoice(raw json.RawMessage) (Choice, error) {
	var head struct {
		Type ChoiceType `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode choice: %w", err)
	}
	var c Choice
	switch head.Type {
	case ChoiceSimple:
		c = &SimpleChoice{}
	case ChoiceConditional:
		c = &ConditionalChoice{}
	case ChoiceDiceRoll:
		c = &DiceRollChoice{}
	case ChoiceSkillCheck:
		c = &SkillCheckChoice{}
	default:
		return nil, fmt.Errorf("decode choice: unknown type %q", head.Type)
	}
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("decode %s choice: %w", head.Type, err)
	}
	return c, nil
}

// ChoiceList is the polymorphic choices array of a node.
// Decoding is lenient: a non-array value yields an empty list and elements
// that can't be decoded are dropped.
type ChoiceList []Choice

func (l *ChoiceList) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		*l = nil
		return nil
	}
	out := make(ChoiceList, 0, len(raws))
	for _, raw := range raws {
		c, err := DecodeChoice(raw)
		if err != nil {
			log.Printf("domain: dropping choice: %v", err)
			continue
		}
		out = append(out, c)
	}
	*l = out
	return nil
}

func (l ChoiceList) Clone() ChoiceList {
	if l == nil {
		return nil
	}
	out := make(ChoiceList, len(l))
	for i, c := range l {
		out[i] = c.clone()
	}
	return out
}
