// Package pipeline normalizes raw NT client-core notifications into the
// outbound protocol event stream. It classifies group notifications,
// suppresses duplicate and pre-boot deliveries, resolves opaque identities
// to stable ones, and attributes recalls to the responsible actor.
//
// Batches are fanned out one goroutine per element; no ordering is
// guaranteed between elements of a batch or across batches. A failure in
// one element never aborts its siblings.
package pipeline

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/tinyland-inc/obridge/pkg/event"
	"github.com/tinyland-inc/obridge/pkg/logger"
	"github.com/tinyland-inc/obridge/pkg/platform"
)

const component = "pipeline"

// Emitter delivers outbound events to the active transports. Delivery is
// fire-and-forget from the pipeline's perspective.
type Emitter interface {
	Emit(ev event.Event, groupTemporary bool)
}

// Deps are the external collaborators the pipeline drives.
type Deps struct {
	Users     platform.UserAPI
	Contacts  platform.ContactAPI
	Store     platform.MessageStore
	Formatter platform.MessageFormatter
	Emitter   Emitter
}

// Options tune per-instance behavior.
type Options struct {
	// SelfID is the bridge account's own stable identifier, used to
	// recognize self-sent messages.
	SelfID int64
	// BootTime overrides the captured process start (zero means now).
	BootTime time.Time
	// ReportSelfMessage enables message events for self-sent messages.
	ReportSelfMessage bool
	// Debug attaches raw messages to message events and reports messages
	// whose formatted content is empty.
	Debug bool
}

// Pipeline is the event normalization core. It owns its caches and dedup
// state, so independent instances (one per test, say) never interfere.
type Pipeline struct {
	selfID     int64
	gate       *BootGate
	identities *IdentityCache
	dedup      *DedupStore

	users     platform.UserAPI
	contacts  platform.ContactAPI
	store     platform.MessageStore
	formatter platform.MessageFormatter
	emitter   Emitter

	reportSelf atomic.Bool
	debug      atomic.Bool

	wg sync.WaitGroup
}

var _ platform.Listener = (*Pipeline)(nil)

func New(deps Deps, opts Options) *Pipeline {
	p := &Pipeline{
		selfID:     opts.SelfID,
		gate:       NewBootGate(opts.BootTime),
		identities: NewIdentityCache(deps.Users),
		dedup:      NewDedupStore(),
		users:      deps.Users,
		contacts:   deps.Contacts,
		store:      deps.Store,
		formatter:  deps.Formatter,
		emitter:    deps.Emitter,
	}
	p.reportSelf.Store(opts.ReportSelfMessage)
	p.debug.Store(opts.Debug)
	return p
}

// SetReportSelfMessage flips the self-message report toggle at runtime
// (config hot reload).
func (p *Pipeline) SetReportSelfMessage(on bool) { p.reportSelf.Store(on) }

// SetDebug flips debug mode at runtime.
func (p *Pipeline) SetDebug(on bool) { p.debug.Store(on) }

// Wait blocks until all in-flight element tasks have finished. Used on
// shutdown; new batches arriving during Wait are not accounted for.
func (p *Pipeline) Wait() { p.wg.Wait() }

// spawn runs one element task on its own goroutine with a recover
// boundary, so a misbehaving element is logged and skipped instead of
// taking down its batch siblings.
func (p *Pipeline) spawn(task string, fn func()) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorCF(component, "panic in "+task, map[string]any{"panic": r})
			}
		}()
		fn()
	}()
}

func (p *Pipeline) emit(ev event.Event, groupTemporary bool) {
	if p.emitter == nil {
		return
	}
	p.emitter.Emit(ev, groupTemporary)
}
