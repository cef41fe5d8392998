package inventory

import (
	"context"
	"log"
	"time"
)

// Sweeper reclaims expired holds in the background so abandoned checkouts
// release their seats without any request traffic.
type Sweeper struct {
	registry *Registry
	config   *SweeperConfig
	done     chan struct{}
}

// SweeperConfig contains configuration for the expiry sweeper
type SweeperConfig struct {
	Interval time.Duration

	// OnExpired is called once per reclaimed hold, outside any ledger
	// lock, so the checkout that owned it can be cancelled.
	OnExpired func(ctx context.Context, eventID, holdID string)
}

// DefaultSweeperConfig returns default sweeper configuration
func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval: 1 * time.Minute,
	}
}

// NewSweeper creates a new hold expiry sweeper
func NewSweeper(registry *Registry, config *SweeperConfig) *Sweeper {
	if config == nil {
		config = DefaultSweeperConfig()
	}

	return &Sweeper{
		registry: registry,
		config:   config,
		done:     make(chan struct{}),
	}
}

// Start starts the background sweep loop
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	log.Printf("Started hold expiry sweeper with %v interval", s.config.Interval)
}

// Stop stops the sweep loop
func (s *Sweeper) Stop() {
	close(s.done)
	log.Println("Hold expiry sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired := s.registry.SweepExpired(ctx, time.Now())
			if len(expired) == 0 {
				continue
			}
			log.Printf("Reclaimed %d expired holds", len(expired))
			if s.config.OnExpired != nil {
				for _, hold := range expired {
					s.config.OnExpired(ctx, hold.EventID, hold.HoldID)
				}
			}
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
