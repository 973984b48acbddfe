package publish

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Selection tag statuses and count types of the ECR lifecycle policy document.
const (
	TagStatusTagged   = "tagged"
	TagStatusUntagged = "untagged"
	TagStatusAny      = "any"

	CountTypeSinceImagePushed   = "sinceImagePushed"
	CountTypeImageCountMoreThan = "imageCountMoreThan"

	CountUnitDays = "days"

	ActionExpire = "expire"
)

// ReleaseTagPrefixes are the tag prefixes whose images are capped by count.
var ReleaseTagPrefixes = []string{"latest", "v", "release", "dev", "prod"}

const (
	untaggedMaxAgeDays = 7
	taggedMaxCount     = 10
)

// LifecyclePolicy is an ECR lifecycle policy document.
type LifecyclePolicy struct {
	Rules []LifecycleRule `json:"rules"`
}

// LifecycleRule is one retention rule. Rules are evaluated independently in
// ascending priority order.
type LifecycleRule struct {
	RulePriority int             `json:"rulePriority"`
	Description  string          `json:"description"`
	Selection    LifecycleSelect `json:"selection"`
	Action       LifecycleAction `json:"action"`
}

// LifecycleSelect is the image selection predicate of a rule.
type LifecycleSelect struct {
	TagStatus     string   `json:"tagStatus"`
	TagPrefixList []string `json:"tagPrefixList,omitempty"`
	CountType     string   `json:"countType"`
	CountUnit     string   `json:"countUnit,omitempty"`
	CountNumber   int      `json:"countNumber"`
}

// LifecycleAction is what happens to selected images.
type LifecycleAction struct {
	Type string `json:"type"`
}

// DefaultLifecyclePolicy returns the retention policy installed on new repositories:
// expire untagged images older than 7 days, and keep at most 10 release-tagged images.
func DefaultLifecyclePolicy() LifecyclePolicy {
	prefixes := make([]string, len(ReleaseTagPrefixes))
	copy(prefixes, ReleaseTagPrefixes)
	return LifecyclePolicy{
		Rules: []LifecycleRule{
			{
				RulePriority: 1,
				Description:  fmt.Sprintf("Expire untagged images older than %d days", untaggedMaxAgeDays),
				Selection: LifecycleSelect{
					TagStatus:   TagStatusUntagged,
					CountType:   CountTypeSinceImagePushed,
					CountUnit:   CountUnitDays,
					CountNumber: untaggedMaxAgeDays,
				},
				Action: LifecycleAction{Type: ActionExpire},
			},
			{
				RulePriority: 2,
				Description:  fmt.Sprintf("Keep only the last %d tagged images", taggedMaxCount),
				Selection: LifecycleSelect{
					TagStatus:     TagStatusTagged,
					TagPrefixList: prefixes,
					CountType:     CountTypeImageCountMoreThan,
					CountNumber:   taggedMaxCount,
				},
				Action: LifecycleAction{Type: ActionExpire},
			},
		},
	}
}

// Validate checks the invariants ECR enforces on a policy document.
func (p LifecyclePolicy) Validate() error {
	if len(p.Rules) == 0 {
		return fmt.Errorf("lifecycle policy has no rules")
	}
	seen := make(map[int]bool, len(p.Rules))
	for _, r := range p.Rules {
		if r.RulePriority < 1 {
			return fmt.Errorf("rule %q: priority must be positive, got %d", r.Description, r.RulePriority)
		}
		if seen[r.RulePriority] {
			return fmt.Errorf("duplicate rule priority %d", r.RulePriority)
		}
		seen[r.RulePriority] = true
		if r.Action.Type != ActionExpire {
			return fmt.Errorf("rule %d: unsupported action %q", r.RulePriority, r.Action.Type)
		}
		if r.Selection.TagStatus == TagStatusTagged && len(r.Selection.TagPrefixList) == 0 {
			return fmt.Errorf("rule %d: tagged selection requires a tag prefix list", r.RulePriority)
		}
		if r.Selection.CountNumber < 1 {
			return fmt.Errorf("rule %d: countNumber must be positive", r.RulePriority)
		}
	}
	return nil
}

// Ordered returns a copy of the rules sorted by ascending priority.
func (p LifecyclePolicy) Ordered() []LifecycleRule {
	rules := make([]LifecycleRule, len(p.Rules))
	copy(rules, p.Rules)
	sort.Slice(rules, func(i, j int) bool { return rules[i].RulePriority < rules[j].RulePriority })
	return rules
}

// Document renders the policy as the JSON text accepted by PutLifecyclePolicy.
func (p LifecyclePolicy) Document() (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	data, err := json.Marshal(LifecyclePolicy{Rules: p.Ordered()})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
