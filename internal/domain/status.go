package domain

import (
	"fmt"
	"strings"
)

// RiskLevel is the stock-out risk tier of a product. The zero value is not a valid level.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
	RiskCritical
)

var riskLevelLabels = map[RiskLevel]string{
	RiskLow:      "low",
	RiskMedium:   "medium",
	RiskHigh:     "high",
	RiskCritical: "critical",
}

var riskLevelCodes = map[string]RiskLevel{
	"low":      RiskLow,
	"medium":   RiskMedium,
	"high":     RiskHigh,
	"critical": RiskCritical,
}

// riskLevelRanks orders levels most severe first.
var riskLevelRanks = map[RiskLevel]int{
	RiskCritical: 0,
	RiskHigh:     1,
	RiskMedium:   2,
	RiskLow:      3,
}

// RiskLevels lists every level, most severe first.
func RiskLevels() []RiskLevel {
	return []RiskLevel{RiskCritical, RiskHigh, RiskMedium, RiskLow}
}

// Rank returns the sort rank of the level (0 = most severe). Invalid levels sort last.
func (r RiskLevel) Rank() int {
	if rank, ok := riskLevelRanks[r]; ok {
		return rank
	}
	return len(riskLevelRanks)
}

func (r RiskLevel) Valid() bool {
	_, ok := riskLevelLabels[r]
	return ok
}

func (r RiskLevel) String() string {
	if label, ok := riskLevelLabels[r]; ok {
		return label
	}
	return fmt.Sprintf("RiskLevel(%d)", int(r))
}

// ParseRiskLevel returns the level for a given label (case-insensitive).
func ParseRiskLevel(label string) (RiskLevel, bool) {
	level, ok := riskLevelCodes[strings.ToLower(strings.TrimSpace(label))]
	return level, ok
}

func (r RiskLevel) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid risk level %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *RiskLevel) UnmarshalText(text []byte) error {
	level, ok := ParseRiskLevel(string(text))
	if !ok {
		return fmt.Errorf("unknown risk level %q", string(text))
	}
	*r = level
	return nil
}

// DecisionType is the kind of action an insight recommends.
type DecisionType int

const (
	DecisionReorder DecisionType = iota + 1
	DecisionDiscontinue
	DecisionPromote
	DecisionReview
)

var decisionTypeLabels = map[DecisionType]string{
	DecisionReorder:     "reorder",
	DecisionDiscontinue: "discontinue",
	DecisionPromote:     "promote",
	DecisionReview:      "review",
}

var decisionTypeCodes = map[string]DecisionType{
	"reorder":     DecisionReorder,
	"discontinue": DecisionDiscontinue,
	"promote":     DecisionPromote,
	"review":      DecisionReview,
}

func (d DecisionType) Valid() bool {
	_, ok := decisionTypeLabels[d]
	return ok
}

func (d DecisionType) String() string {
	if label, ok := decisionTypeLabels[d]; ok {
		return label
	}
	return fmt.Sprintf("DecisionType(%d)", int(d))
}

// ParseDecisionType returns the decision type for a given label (case-insensitive).
func ParseDecisionType(label string) (DecisionType, bool) {
	d, ok := decisionTypeCodes[strings.ToLower(strings.TrimSpace(label))]
	return d, ok
}

func (d DecisionType) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid decision type %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *DecisionType) UnmarshalText(text []byte) error {
	parsed, ok := ParseDecisionType(string(text))
	if !ok {
		return fmt.Errorf("unknown decision type %q", string(text))
	}
	*d = parsed
	return nil
}
