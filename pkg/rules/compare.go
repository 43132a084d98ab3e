package rules

// FixStatus describes what happened to a violation across a conversion.
type FixStatus string

const (
	StatusFixed      FixStatus = "fixed"
	StatusRemaining  FixStatus = "remaining"
	StatusIntroduced FixStatus = "introduced"
)

// FixResult pairs a violation with its status after a conversion.
type FixResult struct {
	NodeID   string    `json:"node_id"`
	NodeName string    `json:"node_name,omitempty"`
	RuleID   ID        `json:"rule_id"`
	Subject  string    `json:"subject,omitempty"`
	Status   FixStatus `json:"status"`
	Message  string    `json:"message"`
}

type violationKey struct {
	node, subject string
	rule          ID
}

func keyOf(v Violation) violationKey {
	return violationKey{node: v.NodeID, subject: v.Subject, rule: v.RuleID}
}

// Compare matches violations found before and after a conversion by node,
// rule and subject. Results list the before violations in order (fixed or
// remaining) followed by the ones only found after.
func Compare(before, after []Violation) []FixResult {
	seen := make(map[violationKey]Violation, len(after))
	for _, v := range after {
		seen[keyOf(v)] = v
	}
	out := make([]FixResult, 0, len(before)+len(after))
	matched := make(map[violationKey]bool, len(before))
	for _, v := range before {
		k := keyOf(v)
		if matched[k] {
			continue
		}
		matched[k] = true
		if now, ok := seen[k]; ok {
			out = append(out, result(now, StatusRemaining))
			continue
		}
		out = append(out, result(v, StatusFixed))
	}
	for _, v := range after {
		k := keyOf(v)
		if matched[k] {
			continue
		}
		matched[k] = true
		out = append(out, result(v, StatusIntroduced))
	}
	return out
}

func result(v Violation, s FixStatus) FixResult {
	return FixResult{
		NodeID:   v.NodeID,
		NodeName: v.NodeName,
		RuleID:   v.RuleID,
		Subject:  v.Subject,
		Status:   s,
		Message:  v.Message,
	}
}

// Tally counts fix results by status.
func Tally(results []FixResult) map[FixStatus]int {
	m := make(map[FixStatus]int, 3)
	for _, r := range results {
		m[r.Status]++
	}
	return m
}

// Counts returns the number of violations per severity.
func Counts(vs []Violation) map[Severity]int {
	m := make(map[Severity]int, 3)
	for _, v := range vs {
		m[v.Severity]++
	}
	return m
}
