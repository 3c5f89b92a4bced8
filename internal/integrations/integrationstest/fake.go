// Package integrationstest provides an in-process integration for tests.
package integrationstest

import (
	"codereview-backend/internal/integrations"
	integration_models "codereview-backend/internal/models/integrations"
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrInitialize is returned by instances of a Recorder with FailInitialize set.
var ErrInitialize = errors.New("fake integration refused to start")

// Fake is an integration that records its lifecycle calls.
type Fake struct {
	Settings *integrations.Settings

	rec *Recorder

	mu            sync.Mutex
	running       bool
	initCalls     int
	shutdownCalls int
	events        []integration_models.ReviewEvent
}

var (
	_ integrations.Integration      = (*Fake)(nil)
	_ integrations.Notifier         = (*Fake)(nil)
	_ integrations.ConnectionTester = (*Fake)(nil)
)

func (f *Fake) Initialize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.initCalls++
	if f.rec.failInitialize() {
		return ErrInitialize
	}
	f.running = true
	return nil
}

func (f *Fake) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdownCalls++
	f.running = false
	return nil
}

func (f *Fake) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *Fake) Notify(ctx context.Context, event integration_models.ReviewEvent) error {
	if err := f.rec.notifyFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *Fake) TestConnection(ctx context.Context) (*integration_models.TestConnectionResult, error) {
	return &integration_models.TestConnectionResult{Success: true, Message: "fake connection ok"}, nil
}

// Calls returns how often Initialize and Shutdown ran.
func (f *Fake) Calls() (initialize, shutdown int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initCalls, f.shutdownCalls
}

// Events returns the delivered review events.
func (f *Fake) Events() []integration_models.ReviewEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]integration_models.ReviewEvent(nil), f.events...)
}

// Recorder keeps every instance its descriptor's factory built.
type Recorder struct {
	mu        sync.Mutex
	instances []*Fake

	FailInitialize bool
	NotifyErr      error
	NotifyPanic    bool
}

func (r *Recorder) failInitialize() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.FailInitialize
}

func (r *Recorder) notifyFailure() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.NotifyPanic {
		panic("fake integration panicked")
	}
	return r.NotifyErr
}

// SetFailInitialize toggles Initialize failures for all instances.
func (r *Recorder) SetFailInitialize(fail bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailInitialize = fail
}

// Instances returns every instance built so far, oldest first.
func (r *Recorder) Instances() []*Fake {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Fake(nil), r.instances...)
}

// Last returns the most recently built instance, or nil.
func (r *Recorder) Last() *Fake {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.instances) == 0 {
		return nil
	}
	return r.instances[len(r.instances)-1]
}

// NewDescriptor returns a descriptor for id backed by Fake instances.
func NewDescriptor(id string) (*integrations.Descriptor, *Recorder) {
	rec := &Recorder{}
	d := &integrations.Descriptor{
		ID:                 id,
		Name:               "Fake " + id,
		Description:        "In-process integration used by tests.",
		IconPath:           "images/integrations/fake.png",
		AllowsLocalScoping: true,
		DefaultConfiguration: map[string]any{
			"greeting": "hello",
		},
		SecretKeys: []string{"token"},
		ValidateConfig: func(configuration map[string]any) error {
			if v, ok := configuration["token"]; ok {
				if s, isString := v.(string); !isString || s == "" {
					return errors.New("'token' must be a non-empty string")
				}
			}
			return nil
		},
		New: func(settings *integrations.Settings, logger *zap.Logger) integrations.Integration {
			f := &Fake{Settings: settings, rec: rec}
			rec.mu.Lock()
			rec.instances = append(rec.instances, f)
			rec.mu.Unlock()
			return f
		},
	}
	return d, rec
}
