package application_test

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"event-panel/internal/application"
	"event-panel/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type controlCall struct {
	target string
	state  domain.RelayState
}

type fakeBackend struct {
	mu sync.Mutex

	controlCalls []controlCall
	controlErrs  map[string]error
	controlMsg   string

	relayStatus    map[string]domain.RelayState
	relayStatusErr error

	status      domain.ConnectionStatus
	statusErr   error
	statusCalls int

	image        string
	previewErr   error
	previewCalls int

	scenes    []string
	scenesErr error
	switched  []string
	switchErr error

	songs     []domain.Song
	searchErr error
	searches  []string
}

func (f *fakeBackend) ControlRelay(_ context.Context, target string, state domain.RelayState) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controlCalls = append(f.controlCalls, controlCall{target, state})
	if err, ok := f.controlErrs[target]; ok {
		return "", err
	}
	return f.controlMsg, nil
}

func (f *fakeBackend) RelayStatus(_ context.Context) (map[string]domain.RelayState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.relayStatusErr != nil {
		return nil, f.relayStatusErr
	}
	return f.relayStatus, nil
}

func (f *fakeBackend) Status(_ context.Context) (domain.ConnectionStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	return f.status, f.statusErr
}

func (f *fakeBackend) Preview(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.previewCalls++
	if f.previewErr != nil {
		return "", f.previewErr
	}
	return f.image, nil
}

func (f *fakeBackend) Scenes(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scenes, f.scenesErr
}

func (f *fakeBackend) SwitchScene(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.switched = append(f.switched, name)
	if f.switchErr != nil {
		return "", f.switchErr
	}
	return "ok", nil
}

func (f *fakeBackend) SearchSongs(_ context.Context, term string) ([]domain.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, term)
	return f.songs, f.searchErr
}

func (f *fakeBackend) calls() []controlCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]controlCall(nil), f.controlCalls...)
}

func (f *fakeBackend) previews() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.previewCalls
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

type recordingNotifier struct {
	mu     sync.Mutex
	toasts []domain.Toast
}

func (r *recordingNotifier) Notify(_ context.Context, toast domain.Toast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
	return nil
}

func (r *recordingNotifier) all() []domain.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Toast(nil), r.toasts...)
}

func (r *recordingNotifier) last() (domain.Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return domain.Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) count(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func defaultGroups() []domain.RelayGroup {
	return []domain.RelayGroup{
		{ID: "frente", Label: "FRENTE", Members: []string{"1", "2"}},
		{ID: "meio", Label: "MEIO", Members: []string{"3", "4"}},
		{ID: "fundo", Label: "FUNDO", Members: []string{"5", "6"}},
	}
}

func newRelaySync(backend *fakeBackend, notifier application.Notifier, publisher application.Publisher) *application.RelaySync {
	return application.NewRelaySync(
		[]string{"1", "2", "3", "4", "5", "6"},
		defaultGroups(),
		backend,
		notifier,
		publisher,
		discardLogger(),
	)
}
