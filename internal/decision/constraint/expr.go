package constraint

import (
	"fmt"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
)

// MissingFieldsError reports that a concrete query lacks fields the
// region constrains, so matching cannot be decided.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("query missing fields [%s]", strings.Join(e.Fields, ", "))
}

// ExprString renders the region as a boolean expression, e.g.
// `version < "56" && locale in ["de", "fr"]`. The empty region renders
// as "true".
func (r Region) ExprString() string {
	if len(r) == 0 {
		return "true"
	}
	parts := make([]string, 0, len(r))
	for _, f := range r.Fields() {
		if frag := exprFragment(f, r[f]); frag != "" {
			parts = append(parts, frag)
		}
	}
	if len(parts) == 0 {
		return "true"
	}
	return strings.Join(parts, " && ")
}

func exprFragment(field string, c Constraint) string {
	switch cc := c.(type) {
	case Any:
		return ""
	case Equals:
		return field + " == " + formatValue(cc.Value)
	case NotEquals:
		return field + " != " + formatValue(cc.Value)
	case Interval:
		var parts []string
		if cc.Low != nil {
			parts = append(parts, field+" >= "+formatValue(cc.Low))
		}
		if cc.High != nil {
			parts = append(parts, field+" < "+formatValue(cc.High))
		}
		if len(cc.Excluded) > 0 {
			parts = append(parts, "!("+field+" in ["+formatValues(cc.Excluded)+"])")
		}
		if len(parts) == 0 {
			return ""
		}
		if len(parts) == 1 {
			return parts[0]
		}
		return "(" + strings.Join(parts, " && ") + ")"
	case InSet:
		return field + " in [" + formatValues(cc.Values) + "]"
	default:
		ns := c.(NotInSet)
		return "!(" + field + " in [" + formatValues(ns.Values) + "])"
	}
}

// Matches reports whether a concrete query satisfies the region. The
// rendered expression is evaluated with expr against the query values,
// so the answer agrees with what a human reads in ExprString output.
func (r Region) Matches(query map[string]any) (bool, error) {
	var missing []string
	for _, f := range r.Fields() {
		if _, ok := r[f].(Any); ok {
			continue
		}
		if _, ok := query[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return false, &MissingFieldsError{Fields: missing}
	}

	vars := make(map[string]any, len(query))
	for k, v := range query {
		vars[k] = Normalize(v)
	}

	out, err := expr.Eval(r.ExprString(), vars)
	if err != nil {
		return false, fmt.Errorf("evaluate region expression: %w", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("region expression must evaluate to bool (got %T)", out)
	}
	return b, nil
}
