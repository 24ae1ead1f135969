// Package app runs the live sign recognition loop: camera frames in, stable
// signs out to subscribers and plugins.
package app

import (
	"log"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/landmark"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// SubscriberBuffer is the number of events queued per subscriber before new
// events are dropped for it.
const SubscriberBuffer = 16

// Config holds configuration options for the application.
type Config struct {
	Camera   capture.Config
	Detector detector.Config
	// Model is shared read-only with other sessions; App does not close it.
	Model           *gesture.Model
	Store           *store.Store
	PluginDir       string
	PluginTimeoutMs int
}

// Event is published for every processed frame.
type Event struct {
	// Hand is false when no hand was detected; Result is then nil.
	Hand      bool            `json:"hand"`
	Result    *gesture.Result `json:"result,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// App is the main application that orchestrates sign recognition and action execution.
type App struct {
	config     Config
	camera     capture.Camera
	detector   detector.Detector
	recognizer *gesture.Recognizer
	pluginMgr  *plugin.Manager
	dispatcher *plugin.Dispatcher
	enabled    bool
	mu         sync.RWMutex
	stopCh     chan struct{}
	doneCh     chan struct{}

	subMu       sync.Mutex
	subscribers map[chan Event]struct{}

	frameMu    sync.RWMutex
	lastFrame  []byte
	lastStable string
	fired      string
	lastEvent  Event

	stableMu  sync.Mutex
	callbacks []func(gesture.Result)
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	a := &App{
		config:      config,
		camera:      capture.NewCamera(config.Camera),
		pluginMgr:   plugin.NewManager(config.PluginDir),
		enabled:     true,
		subscribers: make(map[chan Event]struct{}),
	}

	if config.Model != nil {
		a.recognizer = gesture.NewRecognizer(config.Model)
	}

	if config.Store != nil {
		a.dispatcher = plugin.NewDispatcher(config.Store.Bindings(), a.pluginMgr, plugin.NewExecutor(config.PluginTimeoutMs))
	}

	// Try MediaPipe first, fall back to mock detector
	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		a.detector = detector.NewMockDetector()
	}

	return a
}

// SetEnabled enables or disables recognition. Frames are still read and
// streamed while disabled.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the hand detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// SetCamera replaces the capture source. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.pluginMgr.Discover()
}

// OnStable registers fn to be called from the pipeline goroutine whenever a
// new stable sign is recognized.
func (a *App) OnStable(fn func(gesture.Result)) {
	a.stableMu.Lock()
	defer a.stableMu.Unlock()
	a.callbacks = append(a.callbacks, fn)
}

// Start opens the camera and begins the recognition loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return err
	}
	a.camera.SetFPS(a.fps())

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	log.Println("Recognition pipeline started")
	return nil
}

// Stop halts the recognition loop and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	if err := a.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}

	a.mu.RLock()
	d := a.detector
	a.mu.RUnlock()
	if d != nil {
		if err := d.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}

	log.Println("Recognition pipeline stopped")
}

// Subscribe returns a channel receiving every frame's Event and a function
// that cancels the subscription. Slow subscribers miss events rather than
// stalling the pipeline.
func (a *App) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, SubscriberBuffer)

	a.subMu.Lock()
	a.subscribers[ch] = struct{}{}
	a.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			a.subMu.Lock()
			delete(a.subscribers, ch)
			a.subMu.Unlock()
			close(ch)
		})
	}
}

func (a *App) publish(ev Event) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	for ch := range a.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// LatestFrame returns the most recent frame as JPEG, or nil before the first
// frame is processed.
func (a *App) LatestFrame() []byte {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.lastFrame
}

// LastStable returns the label of the last stable sign, or "" if none yet.
func (a *App) LastStable() string {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.lastStable
}

// LastEvent returns the most recently published event.
func (a *App) LastEvent() Event {
	a.frameMu.RLock()
	defer a.frameMu.RUnlock()
	return a.lastEvent
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.pluginMgr
}

// Detector returns the hand detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

func (a *App) fps() int {
	if a.config.Camera.FPS > 0 {
		return a.config.Camera.FPS
	}
	return capture.DefaultFPS
}

func now() int64 {
	return time.Now().UnixMilli()
}
