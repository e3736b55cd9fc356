package meshcache

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/rsm-inspector/internal/asset"
)

// ErrDecodePanic wraps a panic raised while decoding geometry.
var ErrDecodePanic = errors.New("mesh decode panicked")

// Source is the asset side of an acquisition.
type Source interface {
	Revision() uuid.UUID
	LODCount() int
	DecodeLOD(lod int) ([]asset.Geometry, error)
}

// State is the acquisition state of the cache.
type State int

const (
	Idle State = iota
	Pending
	Ready
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Pending:
		return "Pending"
	case Ready:
		return "Ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Cache holds the decoded mesh buffers of one bound asset.
//
// At most one acquisition runs at a time. RequestData never blocks; only
// WaitForPending and Dispose wait for the in-flight decode.
type Cache struct {
	log      *zap.Logger
	pool     pond.Pool
	ownsPool bool
	onReady  func()

	mu           sync.Mutex
	state        State
	bound        Source
	boundRev     uuid.UUID
	gen          uint64
	perLOD       [][]MeshBuffer
	tasks        []pond.Task // started acquisitions not yet known to be done, stale ones included
	disposed     bool
	acquisitions int
}

// Option configures a Cache.
type Option func(*Cache)

// WithPool runs acquisitions on a shared pool. The cache does not stop it.
func WithPool(pool pond.Pool) Option {
	return func(c *Cache) {
		c.pool = pool
		c.ownsPool = false
	}
}

// WithWorkers sets the size of the cache's own pool.
func WithWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 && c.ownsPool {
			c.pool = pond.NewPool(n)
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithOnReady registers the redraw notification fired after an acquisition
// commits. It runs on a pool worker.
func WithOnReady(fn func()) Option {
	return func(c *Cache) {
		c.onReady = fn
	}
}

// New creates an idle cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		log:      zap.NewNop(),
		ownsPool: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		c.pool = pond.NewPool(runtime.NumCPU())
	}
	return c
}

// RequestData reports whether buffers for src are ready. When the cache is
// idle it starts an acquisition and returns false. While an acquisition is
// pending, further requests return false without starting another one;
// requests for a different asset are ignored until it resolves or the
// cache is invalidated.
func (c *Cache) RequestData(src Source) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed || src == nil {
		return false
	}

	switch c.state {
	case Ready:
		if c.bound == src && c.boundRev == src.Revision() {
			return true
		}
		c.log.Debug("rebinding mesh cache", zap.Stringer("revision", src.Revision()))
		c.dropLocked()
	case Pending:
		if c.bound != src {
			c.log.Debug("ignoring request for another asset while pending")
		}
		return false
	}

	c.startLocked(src)
	return false
}

func (c *Cache) startLocked(src Source) {
	c.gen++
	gen := c.gen
	c.state = Pending
	c.bound = src
	c.boundRev = src.Revision()
	c.acquisitions++

	c.log.Debug("mesh acquisition started",
		zap.Uint64("generation", gen),
		zap.Int("lods", src.LODCount()))

	running := c.tasks[:0]
	for _, t := range c.tasks {
		select {
		case <-t.Done():
		default:
			running = append(running, t)
		}
	}
	c.tasks = append(running, c.pool.SubmitErr(func() error {
		return c.acquire(gen, src)
	}))
}

// acquire runs on a pool worker: decode, then commit unless the generation
// moved on while decoding.
func (c *Cache) acquire(gen uint64, src Source) error {
	buffers, err := decode(src)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.log.Debug("discarding stale mesh acquisition", zap.Uint64("generation", gen))
		return nil
	}
	if err != nil {
		c.state = Idle
		c.bound = nil
		c.mu.Unlock()
		c.log.Warn("mesh acquisition failed", zap.Uint64("generation", gen), zap.Error(err))
		return err
	}
	c.perLOD = buffers
	c.state = Ready
	onReady := c.onReady
	c.mu.Unlock()

	c.log.Debug("mesh acquisition ready", zap.Uint64("generation", gen), zap.Int("lods", len(buffers)))
	if onReady != nil {
		onReady()
	}
	return nil
}

func decode(src Source) (buffers [][]MeshBuffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			buffers = nil
			err = fmt.Errorf("%w: %v", ErrDecodePanic, r)
		}
	}()

	buffers = make([][]MeshBuffer, src.LODCount())
	for lod := range buffers {
		geo, err := src.DecodeLOD(lod)
		if err != nil {
			return nil, fmt.Errorf("decoding LOD %d: %w", lod, err)
		}
		bufs := make([]MeshBuffer, len(geo))
		for i, g := range geo {
			bufs[i] = newMeshBuffer(g)
		}
		buffers[lod] = bufs
	}
	return buffers, nil
}

// Invalidate drops all buffers and returns the cache to Idle. An in-flight
// acquisition keeps running but its result is discarded.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *Cache) dropLocked() {
	c.gen++
	c.perLOD = nil
	c.bound = nil
	c.boundRev = uuid.Nil
	c.state = Idle
}

// WaitForPending blocks until every started acquisition, including its
// completion step, has finished. Acquisitions made stale by Invalidate
// are joined as well.
func (c *Cache) WaitForPending() {
	c.mu.Lock()
	tasks := make([]pond.Task, len(c.tasks))
	copy(tasks, c.tasks)
	c.mu.Unlock()

	for _, t := range tasks {
		_ = t.Wait()
	}
}

// Dispose waits for any in-flight acquisition, drops the buffers and stops
// the cache's own pool. Later requests return false.
func (c *Cache) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.mu.Unlock()

	c.WaitForPending()
	c.Invalidate()
	if c.ownsPool {
		c.pool.StopAndWait()
	}
}

// State returns the acquisition state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LODCount returns the number of cached LODs, 0 unless Ready.
func (c *Cache) LODCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready {
		return 0
	}
	return len(c.perLOD)
}

// Buffers returns the cached buffers of one LOD, in submesh order.
func (c *Cache) Buffers(lod int) ([]MeshBuffer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Ready || lod < 0 || lod >= len(c.perLOD) {
		return nil, false
	}
	return c.perLOD[lod], true
}

// Acquisitions returns how many acquisitions have been started.
func (c *Cache) Acquisitions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acquisitions
}
