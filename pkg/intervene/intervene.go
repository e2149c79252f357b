// Package intervene turns fused risk verdicts into user-facing safety
// actions and an auditable crisis trail. Directives here are static and
// deterministic: the crisis path never depends on a model being up.
package intervene

import (
	"github.com/solacehealth/solace/pkg/risk"
)

// State is the intervention decision for one message.
type State int

const (
	// NoAction leaves the conversation untouched.
	NoAction State = iota
	// SupportOffered surfaces support resources alongside the reply.
	SupportOffered
	// CrisisOverride replaces the reply entirely with crisis resources.
	CrisisOverride
)

var stateNames = map[State]string{
	NoAction:       "no_action",
	SupportOffered: "support_offered",
	CrisisOverride: "crisis_override",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "no_action"
}

// StateFor maps a fused verdict to an intervention state. Critical
// overrides the conversation; High offers support; everything below
// passes through.
func StateFor(v *risk.FusedVerdict) State {
	switch {
	case v == nil:
		return NoAction
	case v.ImmediateCrisis:
		return CrisisOverride
	case v.RequiresIntervention:
		return SupportOffered
	default:
		return NoAction
	}
}

// Hotline is one crisis contact channel.
type Hotline struct {
	Label  string `json:"label"`
	Action string `json:"action"`
	URL    string `json:"url,omitempty"`
}

// Directive is the resource bundle shown to the user. Content is fixed
// at compile time; see immediateDirective and supportDirective.
type Directive struct {
	Kind     string    `json:"kind"` // "immediate" or "support"
	Headline string    `json:"headline"`
	Body     string    `json:"body"`
	Hotlines []Hotline `json:"hotlines"`
	Coping   []string  `json:"coping_strategies,omitempty"`
}

var immediateDirective = Directive{
	Kind:     "immediate",
	Headline: "IMMEDIATE CRISIS RESOURCES",
	Body: "If you're in immediate danger, call 911.\n\n" +
		"You matter, and there are people who want to help. " +
		"These services are free, confidential, and available 24/7.",
	Hotlines: []Hotline{
		{Label: "Suicide & Crisis Lifeline (24/7)", Action: "Call 988"},
		{Label: "Crisis Text Line", Action: "Text HOME to 741741"},
		{Label: "Chat online", Action: "suicidepreventionlifeline.org", URL: "https://suicidepreventionlifeline.org"},
	},
}

var supportDirective = Directive{
	Kind:     "support",
	Headline: "We're here to support you",
	Body: "It sounds like you might be going through a tough time. " +
		"Seeking help is a sign of strength, not weakness.",
	Hotlines: []Hotline{
		{Label: "Suicide & Crisis Lifeline", Action: "Call 988"},
		{Label: "Crisis Text Line", Action: "Text HOME to 741741"},
		{Label: "Find local mental health services", Action: "samhsa.gov/find-help", URL: "https://www.samhsa.gov/find-help"},
	},
	Coping: []string{
		"Take 5 deep breaths",
		"Name 5 things you can see, 4 you can touch, 3 you can hear",
		"Reach out to a trusted friend or family member",
		"Use the breathing exercises tool",
	},
}

// DirectiveFor returns the resource bundle for a state, or nil when no
// intervention is needed. Callers must not mutate the result.
func DirectiveFor(s State) *Directive {
	switch s {
	case CrisisOverride:
		return &immediateDirective
	case SupportOffered:
		return &supportDirective
	default:
		return nil
	}
}

// FollowUpFor returns the companion's next message after an
// intervention, keyed by the fused risk level.
func FollowUpFor(level risk.RiskLevel) string {
	switch level {
	case risk.LevelCritical:
		return "I'm really concerned about you right now. Please reach out to one of the crisis resources above. " +
			"You don't have to go through this alone, and there are people trained to help in situations like this.\n\n" +
			"Would you like to try some grounding exercises while you consider reaching out for help?"
	case risk.LevelHigh:
		return "I can hear that you're struggling right now, and I want you to know that your feelings are valid. " +
			"It might be helpful to talk to someone who can provide more support than I can offer.\n\n" +
			"In the meantime, would you like to explore some coping strategies together?"
	case risk.LevelModerate:
		return "It sounds like you're dealing with some difficult feelings. That takes courage to share.\n\n" +
			"Would you like to work through some coping techniques, or would you prefer to talk about what's been on your mind?"
	default:
		return "Thank you for sharing. I'm here to listen and support you. What would be most helpful for you right now?"
	}
}
