package telegram

import (
	"context"
	"sync"
	"time"
)

const (
	maxConsecutivePollingErrors = 5
	maxErrorPause               = 5 * time.Minute
)

// Poller long-polls the Bot API for commands and button presses. Transient
// failures back off exponentially, capped at five minutes, so an outage
// never turns into a busy loop.
type Poller struct {
	sink     *Sink
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a poller bound to a sink.
func NewPoller(sink *Sink) *Poller {
	return &Poller{
		sink:   sink,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the polling loop in a goroutine.
func (p *Poller) Start() {
	go p.loop()
}

// Stop signals the polling loop to stop and waits for it to finish.
// It is safe to call Stop multiple times.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stopCh) })
	<-p.done
}

func (p *Poller) loop() {
	defer close(p.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-p.stopCh
		cancel()
	}()

	var offset int
	var consecutiveErrors int
	pause := time.Second

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		updates, err := p.sink.client.GetUpdates(ctx, GetUpdatesRequest{
			Offset:         offset,
			Timeout:        p.sink.config.PollingTimeout,
			AllowedUpdates: []string{"message", "callback_query"},
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			consecutiveErrors++
			p.sink.logger.Error("polling getUpdates failed",
				"error", err,
				"consecutive_errors", consecutiveErrors,
			)
			if consecutiveErrors >= maxConsecutivePollingErrors {
				p.sink.logger.Warn("polling paused after consecutive errors", "pause", pause)
				select {
				case <-p.stopCh:
					return
				case <-time.After(pause):
				}
				pause *= 2
				if pause > maxErrorPause {
					pause = maxErrorPause
				}
				consecutiveErrors = 0
			}
			continue
		}

		consecutiveErrors = 0
		pause = time.Second

		for _, update := range updates {
			offset = update.UpdateID + 1
			p.sink.handleUpdate(ctx, &update)
		}
	}
}
