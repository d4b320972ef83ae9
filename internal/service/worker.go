package service

import (
	"context"
	"sync"
	"time"

	"github.com/zestpay/gateway/internal/config"
	"github.com/zestpay/gateway/internal/domain"
	"github.com/zestpay/gateway/internal/logging"
)

// Pool runs webhook delivery: one poller claims due jobs from the
// queue and fans them out to a fixed set of workers. Stop cancels the
// poller first, then waits for in-flight deliveries to finish.
type Pool struct {
	dispatcher *Dispatcher
	cfg        config.DispatcherConfig

	jobs   chan domain.WebhookJob
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(dispatcher *Dispatcher, cfg config.DispatcherConfig) *Pool {
	return &Pool{
		dispatcher: dispatcher,
		cfg:        cfg,
		jobs:       make(chan domain.WebhookJob, cfg.Workers*2),
	}
}

func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.wg.Add(1)
	go p.poll(ctx)

	logging.FromContext(ctx).Info("webhook pool started",
		"workers", p.cfg.Workers,
		"poll_interval", p.cfg.PollInterval,
	)
}

// Stop shuts the pool down and blocks until every claimed job has
// finished its delivery attempt. Unfinished jobs stay pending and are
// reclaimed after their lease expires.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *Pool) poll(ctx context.Context) {
	defer p.wg.Done()
	defer close(p.jobs)
	log := logging.FromContext(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		claimed, err := p.dispatcher.ClaimDue(ctx, p.cfg.Workers*2)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("failed to claim webhook jobs", "error", err)
			continue
		}

		for _, job := range claimed {
			select {
			case p.jobs <- job:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	log := logging.FromContext(ctx).With("worker", id)

	for job := range p.jobs {
		// Delivery of a claimed job runs to completion even during
		// shutdown; the claim lease covers the attempt.
		if err := p.dispatcher.Deliver(context.WithoutCancel(ctx), job); err != nil {
			log.Error("webhook delivery bookkeeping failed", "webhook_id", job.ID, "error", err)
		}
	}
}
