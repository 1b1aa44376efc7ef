package pipeline

import "time"

// notifySeqUnit is the per-step divisor that converts a group notify
// sequence number down to seconds (applied twice).
const notifySeqUnit = 1000

// BootGate suppresses replayed history. The platform re-delivers recent
// events on every reconnect; anything stamped before process start has
// already been reported by a previous run.
type BootGate struct {
	bootTime int64 // seconds
}

// NewBootGate captures the process start time. A zero time means "now".
func NewBootGate(start time.Time) *BootGate {
	if start.IsZero() {
		start = time.Now()
	}
	return &BootGate{bootTime: start.Unix()}
}

// BootTime returns the captured start time in seconds.
func (g *BootGate) BootTime() int64 { return g.bootTime }

// AdmitTime reports whether an event stamped at ts seconds may be emitted.
// The lower bound is inclusive: an event stamped exactly at boot passes.
func (g *BootGate) AdmitTime(ts int64) bool {
	return ts >= g.bootTime
}

// AdmitSeq gates a group notify by its sequence number, which encodes time
// at a finer unit than seconds.
func (g *BootGate) AdmitSeq(seq int64) bool {
	return g.AdmitTime(seq / notifySeqUnit / notifySeqUnit)
}
