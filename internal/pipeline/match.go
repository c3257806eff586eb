package pipeline

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/blue-harrier/irisbridge/internal/falcon"
)

// IncidentMatcher compiles and evaluates an expr-lang predicate against
// resolved incidents, so operators can narrow a run beyond the status
// filter, e.g. `fine_score >= 50 && "Defense Evasion" in tactics`.
type IncidentMatcher struct {
	expression string
	program    *vm.Program
}

// NewIncidentMatcher compiles the given expression.
func NewIncidentMatcher(expression string) (*IncidentMatcher, error) {
	program, err := expr.Compile(expression,
		expr.Env(sampleEnv()),
		expr.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("compile filter expression: %w", err)
	}
	return &IncidentMatcher{expression: expression, program: program}, nil
}

// Match evaluates the expression against one joined incident.
func (m *IncidentMatcher) Match(inc *falcon.Incident) (bool, error) {
	result, err := expr.Run(m.program, incidentEnv(inc))
	if err != nil {
		return false, fmt.Errorf("evaluate filter expression: %w", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("filter expression did not return bool: got %T", result)
	}
	return matched, nil
}

// Expression returns the original expression string.
func (m *IncidentMatcher) Expression() string {
	return m.expression
}

// sampleEnv is a representative environment used for compile-time type
// checking; the shapes must match incidentEnv.
func sampleEnv() map[string]any {
	return map[string]any{
		"incident_id":    "inc:example:1",
		"state":          "closed",
		"fine_score":     0,
		"tactics":        []string{},
		"objectives":     []string{},
		"users":          []string{},
		"hostnames":      []string{},
		"host_count":     0,
		"behavior_count": 0,
	}
}

func incidentEnv(inc *falcon.Incident) map[string]any {
	hostnames := make([]string, 0, len(inc.Hosts))
	for _, h := range inc.Hosts {
		hostnames = append(hostnames, h.Hostname)
	}
	return map[string]any{
		"incident_id":    inc.IncidentID,
		"state":          inc.State,
		"fine_score":     inc.FineScore,
		"tactics":        orEmpty(inc.Tactics),
		"objectives":     orEmpty(inc.Objectives),
		"users":          orEmpty(inc.Users),
		"hostnames":      hostnames,
		"host_count":     len(inc.Hosts),
		"behavior_count": len(inc.Behaviors),
	}
}

// orEmpty keeps nil slices out of the expr environment.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
