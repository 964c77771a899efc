package build

import (
	"time"
)

// Status represents the outcome of a build execution.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Report summarises one build.
type Report struct {
	BuildID string
	Status  Status

	Pages       int
	Posts       int
	Files       int
	StaticFiles int

	// PluginPages counts the pages and files each generator registered.
	PluginPages map[string]int
	// SkippedPlugins lists generators disabled through exclude_plugins.
	SkippedPlugins []string

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

func (r *Report) finish(status Status) {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
