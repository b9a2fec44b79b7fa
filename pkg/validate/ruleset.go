// pkg/validate/ruleset.go
package validate

import (
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/ecotraits/curate/pkg/model"
	"github.com/ecotraits/curate/pkg/table"
)

// RuleSet evaluates a fixed list of independent rules against a table.
// Failures accumulate; evaluation never halts on the first finding.
type RuleSet struct {
	rules  []Rule
	logger *zap.Logger
}

// NewRuleSet creates a rule set with the given rules
func NewRuleSet(logger *zap.Logger, rules ...Rule) (*RuleSet, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	return &RuleSet{
		rules:  rules,
		logger: logger,
	}, nil
}

// Add appends rules and returns the rule set for chaining
func (rs *RuleSet) Add(rules ...Rule) *RuleSet {
	rs.rules = append(rs.rules, rules...)
	return rs
}

// Len returns the number of rules
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// Evaluate runs every rule against the table and returns all findings.
// Findings are sorted by rule name, column and row key so the result is
// the same regardless of rule registration order.
func (rs *RuleSet) Evaluate(t *table.Table, schema *model.Schema) []Finding {
	if t == nil || schema == nil {
		return nil
	}

	var findings []Finding
	for _, rule := range rs.rules {
		ruleFindings := rule.Check(t, schema)
		if len(ruleFindings) > 0 {
			rs.logger.Debug("Rule produced findings",
				zap.String("rule", rule.Name),
				zap.String("column", rule.Column),
				zap.Int("count", len(ruleFindings)))
		}
		findings = append(findings, ruleFindings...)
	}

	sortFindings(findings)

	rs.logger.Info("Validation completed",
		zap.String("dataset", t.Name),
		zap.Int("rules", len(rs.rules)),
		zap.Int("rows", t.RowCount()),
		zap.Int("findings", len(findings)))

	return findings
}

// sortFindings orders findings deterministically
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Rule != findings[j].Rule {
			return findings[i].Rule < findings[j].Rule
		}
		if findings[i].Column != findings[j].Column {
			return findings[i].Column < findings[j].Column
		}
		return findings[i].RowKey < findings[j].RowKey
	})
}
