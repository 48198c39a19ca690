package pipeline

import "git.home.luguber.info/inful/emailbuilder/internal/build"

// FullPlan is the stage order of a complete build.
var FullPlan = []build.StageName{
	build.StageReset,
	build.StagePages,
	build.StageStyles,
	build.StageInline,
	build.StageClean,
	build.StageRelease,
}

// PlanFor returns the stages a watcher trigger reruns. Release is never
// part of a rebuild; the preview serves dist directly.
func PlanFor(t build.Trigger) []build.StageName {
	switch t {
	case build.TriggerStyles:
		return []build.StageName{build.StageStyles, build.StagePages, build.StageInline}
	case build.TriggerPages, build.TriggerTemplates:
		return []build.StageName{build.StagePages, build.StageInline}
	default:
		return nil
	}
}

// refreshes reports whether t invalidates cached layouts and partials.
func refreshes(t build.Trigger) bool {
	return t == build.TriggerTemplates || t == build.TriggerStyles
}
