package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// sweeper is the session store's expiry hook.
type sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// Sweeper periodically drops quiz sessions that have been idle for
// longer than maxIdle. The source of truth for "idle" lives in the
// store; this only drives the clock.
type Sweeper struct {
	cron    *cron.Cron
	store   sweeper
	maxIdle time.Duration
}

func NewSweeper(store sweeper, maxIdle time.Duration) *Sweeper {
	return &Sweeper{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		store:   store,
		maxIdle: maxIdle,
	}
}

func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc("@every 5m", func() {
		if n := s.store.Sweep(s.maxIdle); n > 0 {
			log.Printf("swept %d idle quiz session(s) older than %s", n, s.maxIdle)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("session sweeper started, idle limit %s", s.maxIdle)
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}
