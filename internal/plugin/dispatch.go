package plugin

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/ayusman/mudra/internal/store"
)

// BindingSource resolves the enabled binding of a sign label, returning
// nil, nil when the sign is unbound.
type BindingSource interface {
	GetBySignLabel(label string) (*store.Binding, error)
}

// Dispatcher runs the plugin bound to a sign. Runs happen on their own
// goroutines so a slow plugin never holds up frame processing.
type Dispatcher struct {
	bindings BindingSource
	plugins  *Manager
	exec     *Executor
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(bindings BindingSource, plugins *Manager, exec *Executor) *Dispatcher {
	return &Dispatcher{
		bindings: bindings,
		plugins:  plugins,
		exec:     exec,
	}
}

// Fire runs the plugin bound to sign and waits for its response. It returns
// nil, nil when the sign has no enabled binding.
func (d *Dispatcher) Fire(ctx context.Context, sign string, confidence float64) (*Response, error) {
	b, err := d.bindings.GetBySignLabel(sign)
	if err != nil {
		return nil, fmt.Errorf("lookup binding for %s: %w", sign, err)
	}
	if b == nil {
		return nil, nil
	}

	p, err := d.plugins.Get(b.PluginName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.PluginName, err)
	}
	if !p.Manifest.Supports(b.ActionName) {
		return nil, fmt.Errorf("plugin %s does not support action %q", b.PluginName, b.ActionName)
	}

	return d.exec.ExecuteContext(ctx, p, &Request{
		Action:     b.ActionName,
		Sign:       sign,
		Confidence: confidence,
		Config:     b.Config,
	})
}

// Dispatch fires sign in the background and logs the outcome.
func (d *Dispatcher) Dispatch(sign string, confidence float64) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		resp, err := d.Fire(context.Background(), sign, confidence)
		switch {
		case err != nil:
			log.Printf("Plugin for sign %s failed: %v", sign, err)
		case resp == nil:
		case !resp.Success:
			log.Printf("Plugin for sign %s reported error: %s", sign, resp.Error)
		default:
			log.Printf("Plugin action ran for sign %s", sign)
		}
	}()
}

// Wait blocks until every dispatched run has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
