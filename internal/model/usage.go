package model

import "time"

// UsageEvent is an application session with explicit start and end bounds.
type UsageEvent struct {
	ContentGUID string
	UserGUID    string
	Started     time.Time
	Ended       time.Time
	DataVersion int
}

func (UsageEvent) sourceKind() SourceKind { return SourceUsage }
