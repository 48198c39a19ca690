package build

// Trigger identifies which watched group of sources changed. Triggers are
// ordered: each one rebuilds a superset of the stages of the one before it,
// so the union of two triggers is the larger one.
type Trigger int

const (
	TriggerNone Trigger = iota
	TriggerPages
	TriggerTemplates
	TriggerStyles
)

// Union merges two pending triggers into the one that covers both.
func (t Trigger) Union(o Trigger) Trigger {
	if o > t {
		return o
	}
	return t
}

func (t Trigger) String() string {
	switch t {
	case TriggerPages:
		return "pages"
	case TriggerTemplates:
		return "templates"
	case TriggerStyles:
		return "styles"
	default:
		return "none"
	}
}
