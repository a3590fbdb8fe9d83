package automod

// A rule either reaches a decision (second return value true), which ends evaluation, or passes the message on to the next rule.
type MessageRuleFunc = func(c *MessageContext) (Decision, bool)

type Rule struct {
	Name string
	Func MessageRuleFunc
}

// Ordered list of rules. The first rule to reach a decision wins; if none does, the message is allowed.
type RuleSet struct {
	Rules []Rule
}

func (r *RuleSet) Call(c *MessageContext) Decision {
	for _, rule := range r.Rules {
		if dec, ok := rule.Func(c); ok {
			return dec
		}
	}
	return Allow("")
}

// Basic rules are the banned text pattern and banned repost checks. The sticker cooldown rule, if enabled, runs first.
func DefaultRules(stickerCooldown bool) RuleSet {
	rs := RuleSet{}
	if stickerCooldown {
		rs.Rules = append(rs.Rules, Rule{Name: RuleStickerCooldown, Func: StickerCooldownRule})
	}
	rs.Rules = append(rs.Rules,
		Rule{Name: RuleBannedPattern, Func: BannedPatternRule},
		Rule{Name: RuleBannedRepost, Func: BannedRepostRule},
	)
	return rs
}

func (r *RuleSet) Names() []string {
	out := make([]string, len(r.Rules))
	for i, rule := range r.Rules {
		out[i] = rule.Name
	}
	return out
}
