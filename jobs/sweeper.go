package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Expirer is the ledger surface the sweep needs.
type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper cancels lapsed subscriptions on a nightly schedule, shortly after
// the UTC day rolls so expiry lines up with the daily quota reset.
type Sweeper struct {
	cron    *cron.Cron
	expirer Expirer
	log     logrus.FieldLogger

	// Schedule overrides the default "5 0 * * *" when set before Start.
	Schedule string
}

func NewSweeper(expirer Expirer, log logrus.FieldLogger) *Sweeper {
	if log == nil {
		log = logrus.New()
	}
	return &Sweeper{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		expirer: expirer,
		log:     log,
	}
}

// Start registers the schedule and begins running.
func (s *Sweeper) Start() error {
	spec := s.Schedule
	if spec == "" {
		spec = "5 0 * * *"
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Sweeper) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.log.WithError(err).Warn("subscription expiry sweep failed")
	}
}

// Sweep cancels every subscription whose period has ended and returns the
// count. Exposed so operators can trigger it out of schedule.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.expirer.ExpireDue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.WithField("expired", n).Info("subscriptions expired")
	}
	return n, nil
}
