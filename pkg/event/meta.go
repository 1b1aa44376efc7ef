package event

// Meta event types.
const (
	MetaHeartbeat = "heartbeat"
	MetaLifecycle = "lifecycle"
)

type metaBase struct {
	Base

	MetaEventType string `json:"meta_event_type"`
}

func newMetaBase(metaEventType string) metaBase {
	return metaBase{Base: newBase(PostTypeMetaEvent), MetaEventType: metaEventType}
}

func (m *metaBase) EventName() string { return PostTypeMetaEvent + "." + m.MetaEventType }

// HeartbeatStatus is the status block carried by heartbeat events.
type HeartbeatStatus struct {
	Online bool `json:"online"`
	Good   bool `json:"good"`
}

// Heartbeat is emitted at a fixed interval while the bridge is up.
type Heartbeat struct {
	metaBase

	Status   HeartbeatStatus `json:"status"`
	Interval int64           `json:"interval"` // milliseconds
}

func NewHeartbeat(interval int64) *Heartbeat {
	return &Heartbeat{
		metaBase: newMetaBase(MetaHeartbeat),
		Status:   HeartbeatStatus{Online: true, Good: true},
		Interval: interval,
	}
}

// Lifecycle announces a transport connection coming up.
type Lifecycle struct {
	metaBase

	SubType string `json:"sub_type"`
}

func NewLifecycle() *Lifecycle {
	return &Lifecycle{metaBase: newMetaBase(MetaLifecycle), SubType: "connect"}
}
