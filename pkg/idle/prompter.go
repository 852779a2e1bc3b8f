package idle

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/ethanbaker/bucket/pkg/factoid"
	"github.com/robfig/cron/v3"
)

const (
	// DefaultThreshold is how long a channel must be silent before it is prompted
	DefaultThreshold = 4 * time.Hour

	// DefaultSpec is the cron spec the tick runs on
	DefaultSpec = "@every 30m"
)

// Source supplies the message used to liven up an idle channel
type Source interface {
	IdleMessage(ctx context.Context) (*factoid.Message, error)
}

// Sender delivers a message to a channel
type Sender interface {
	Send(channel string, msg *factoid.Message) error
}

// Options configures a Prompter
type Options struct {
	Channels  *Channels
	Source    Source
	Sender    Sender
	Lock      sync.Locker // Serializes channel evaluation with line handling
	Threshold time.Duration
	Spec      string

	// Jitter bounds
	StartJitter   [2]time.Duration // Before the whole tick
	ChannelJitter [2]time.Duration // Before each channel is evaluated
	EmitJitter    [2]time.Duration // After each emission

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration)
	Rand  *rand.Rand
}

// Prompter periodically says something in channels that have gone quiet for too long
type Prompter struct {
	opts Options
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

// NewPrompter creates a prompter. Channels, Source and Sender are required
func NewPrompter(opts Options) (*Prompter, error) {
	if opts.Channels == nil {
		return nil, fmt.Errorf("a channel registry must be provided")
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("a message source must be provided")
	}
	if opts.Sender == nil {
		return nil, fmt.Errorf("a sender must be provided")
	}

	if opts.Lock == nil {
		opts.Lock = &sync.Mutex{}
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Spec == "" {
		opts.Spec = DefaultSpec
	}
	if opts.StartJitter == [2]time.Duration{} {
		opts.StartJitter = [2]time.Duration{25 * time.Second, 123 * time.Second}
	}
	if opts.ChannelJitter == [2]time.Duration{} {
		opts.ChannelJitter = [2]time.Duration{0, 2 * time.Second}
	}
	if opts.EmitJitter == [2]time.Duration{} {
		opts.EmitJitter = [2]time.Duration{2 * time.Second, 11 * time.Second}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Prompter{
		opts:   opts,
		cron:   cron.New(),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start schedules the tick and begins running it
func (p *Prompter) Start() error {
	if _, err := p.cron.AddFunc(p.opts.Spec, func() { p.Tick(p.ctx) }); err != nil {
		return fmt.Errorf("failed to schedule idle tick: %w", err)
	}

	p.cron.Start()
	log.Printf("[IDLE]: Prompting channels idle for %v (%s)", p.opts.Threshold, p.opts.Spec)
	return nil
}

// Stop halts the schedule and aborts any tick in progress
func (p *Prompter) Stop() {
	p.cancel()
	<-p.cron.Stop().Done()
}

// Tick evaluates every channel once and prompts the ones that are idle. It returns the channels
// that were prompted
func (p *Prompter) Tick(ctx context.Context) []string {
	p.opts.Sleep(ctx, p.jitter(p.opts.StartJitter))

	var prompted []string
	for _, channel := range p.opts.Channels.Names() {
		if ctx.Err() != nil {
			break
		}

		p.opts.Sleep(ctx, p.jitter(p.opts.ChannelJitter))
		sent, err := p.evaluate(ctx, channel)
		if err != nil {
			log.Printf("[IDLE]: Failed to prompt '%s': %v", channel, err)
			continue
		}
		if sent {
			prompted = append(prompted, channel)
			p.opts.Sleep(ctx, p.jitter(p.opts.EmitJitter))
		}
	}

	return prompted
}

// evaluate prompts a single channel if it is idle and not quiet
func (p *Prompter) evaluate(ctx context.Context, channel string) (bool, error) {
	p.opts.Lock.Lock()
	defer p.opts.Lock.Unlock()

	activity, exists := p.opts.Channels.Get(channel)
	if !exists || activity.Quiet {
		return false, nil
	}
	if !p.opts.Now().After(activity.LastSaid.Add(p.opts.Threshold)) {
		return false, nil
	}

	// Skip a third of idle channels each tick
	if p.opts.Rand.Intn(3) == 1 {
		return false, nil
	}

	msg, err := p.opts.Source.IdleMessage(ctx)
	if err != nil {
		return false, err
	}
	if msg == nil {
		return false, nil
	}

	if err := p.opts.Sender.Send(channel, msg); err != nil {
		return false, fmt.Errorf("failed to send idle message: %w", err)
	}

	p.opts.Channels.Said(channel, p.opts.Now())
	return true, nil
}

// jitter returns a random duration within bounds
func (p *Prompter) jitter(bounds [2]time.Duration) time.Duration {
	lo, hi := bounds[0], bounds[1]
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.opts.Rand.Int63n(int64(hi-lo)))
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
