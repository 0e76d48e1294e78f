package service

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pharmaledger/pharmaledger/internal/domain/login"
)

// DefaultFlowIdleTTL is how long an unused client's login flow is kept.
const DefaultFlowIdleTTL = 30 * time.Minute

// FlowFactory builds the login flow for a client.
type FlowFactory func(clientID string) *login.Flow

// LoginRegistry holds one login.Flow per client so each client gets its
// own single in-flight attempt. Flows idle for longer than the TTL are
// dropped by the cleanup loop.
type LoginRegistry struct {
	flows   *cache.Cache
	factory FlowFactory
	mu      sync.Mutex

	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
}

// NewLoginRegistry creates a registry that builds flows with factory.
func NewLoginRegistry(factory FlowFactory, idleTTL time.Duration) *LoginRegistry {
	if idleTTL <= 0 {
		idleTTL = DefaultFlowIdleTTL
	}
	return &LoginRegistry{
		flows:           cache.New(idleTTL, 0),
		factory:         factory,
		stopChan:        make(chan struct{}),
		cleanupInterval: idleTTL / 2,
	}
}

// Flow returns the client's flow, creating it on first use. Each call
// extends the flow's idle deadline.
func (r *LoginRegistry) Flow(clientID string) *login.Flow {
	r.mu.Lock()
	defer r.mu.Unlock()

	var f *login.Flow
	if v, ok := r.flows.Get(clientID); ok {
		f = v.(*login.Flow)
	} else {
		f = r.factory(clientID)
	}
	r.flows.SetDefault(clientID, f)
	return f
}

// Len returns the number of tracked flows.
func (r *LoginRegistry) Len() int {
	return r.flows.ItemCount()
}

// StartCleanup starts the background goroutine that drops idle flows.
// It stops when ctx is cancelled or Stop() is called.
func (r *LoginRegistry) StartCleanup(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.flows.DeleteExpired()
			}
		}
	}()
}

// Stop stops the cleanup goroutine and waits for it to exit.
// Safe to call multiple times.
func (r *LoginRegistry) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}
