package app

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/gesture"
)

// runPipeline is the recognition loop. One frame is processed per tick:
//
//  1. Read a frame (mirrored by the camera when configured)
//  2. Encode it as JPEG for the stream endpoint
//  3. Detect the hand; no hand resets the stabilizer
//  4. Recognize the first hand and publish the Event
//  5. When the stable label changes, notify callbacks and dispatch plugins
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(time.Second / time.Duration(a.fps()))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			frame, err := a.Camera().ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}
			a.processFrame(frame)
			frame.Close()
		}
	}
}

// processFrame runs one frame through detection and recognition. It does not
// close frame.
func (a *App) processFrame(frame *gocv.Mat) {
	if buf, err := capture.EncodeJPEG(frame); err == nil {
		a.frameMu.Lock()
		a.lastFrame = buf
		a.frameMu.Unlock()
	}

	if !a.IsEnabled() {
		return
	}

	d := a.Detector()
	if d == nil {
		return
	}

	hands, err := d.Detect(frame)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}

	ev := Event{Timestamp: now()}
	if len(hands) == 0 || a.recognizer == nil {
		// A sign is only stable across consecutive sightings of the hand.
		if a.recognizer != nil {
			a.recognizer.Reset()
		}
		a.frameMu.Lock()
		a.fired = ""
		a.frameMu.Unlock()
		ev.Hand = len(hands) > 0
		a.emit(ev)
		return
	}

	result, err := a.recognizer.Recognize(&hands[0])
	if err != nil {
		log.Printf("Error recognizing sign: %v", err)
		return
	}

	ev.Hand = true
	ev.Result = &result
	a.emit(ev)

	if result.Stable {
		a.handleStable(result)
	}
}

func (a *App) emit(ev Event) {
	a.frameMu.Lock()
	a.lastEvent = ev
	a.frameMu.Unlock()
	a.publish(ev)
}

// handleStable fires callbacks and plugins once per change of stable label.
// Holding a sign does not repeat it; lowering the hand and signing again does.
func (a *App) handleStable(result gesture.Result) {
	a.frameMu.Lock()
	changed := result.Label != a.fired
	a.fired = result.Label
	a.lastStable = result.Label
	a.frameMu.Unlock()

	if !changed {
		return
	}

	log.Printf("Stable sign: %s (confidence %.2f)", result.Label, result.Confidence)

	a.stableMu.Lock()
	callbacks := append([]func(gesture.Result)(nil), a.callbacks...)
	a.stableMu.Unlock()
	for _, fn := range callbacks {
		fn(result)
	}

	if a.dispatcher != nil {
		a.dispatcher.Dispatch(result.Label, result.Confidence)
	}
}
