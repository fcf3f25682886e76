package core

// Metrics records domain counters. Implementations must be safe for concurrent use.
type Metrics interface {
	PersonResolved(created bool)
	LinkCreated(linkType string)
	OnboardingFinished(outcome string)
}

type nopMetrics struct{}

// NopMetrics discards everything.
var NopMetrics Metrics = nopMetrics{}

func (nopMetrics) PersonResolved(bool)       {}
func (nopMetrics) LinkCreated(string)        {}
func (nopMetrics) OnboardingFinished(string) {}
