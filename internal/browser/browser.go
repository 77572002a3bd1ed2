// Package browser keeps a fixed set of headless Chromium instances for pages
// whose recipe markup only exists after JavaScript runs.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrPoolClosed is returned by Get after Cleanup.
var ErrPoolClosed = errors.New("browser pool closed")

// Pool manages a pool of browser instances.
type Pool struct {
	launcher *launcher.Launcher
	browsers chan *rod.Browser
	mu       sync.Mutex
	closed   bool
}

// NewPool launches one Chromium process and connects size browsers to it.
func NewPool(size int) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("browser pool size must be positive, got %d", size)
	}

	launcherInstance := NewLauncher()
	launcherURL, err := launcherInstance.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	pool := &Pool{
		launcher: launcherInstance,
		browsers: make(chan *rod.Browser, size),
	}

	for i := 0; i < size; i++ {
		b := rod.New().ControlURL(launcherURL)
		if err := b.Connect(); err != nil {
			pool.Cleanup()
			return nil, fmt.Errorf("connect browser %d: %w", i, err)
		}
		pool.browsers <- b
	}

	log.Printf("Browser pool initialized with %d instances.", size)
	return pool, nil
}

// Get waits for a free browser or for ctx to end.
func (p *Pool) Get(ctx context.Context) (*rod.Browser, error) {
	select {
	case b, ok := <-p.browsers:
		if !ok {
			return nil, ErrPoolClosed
		}
		return b, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Return gives a browser back to the pool.
func (p *Pool) Return(b *rod.Browser) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		_ = b.Close()
		return
	}
	p.browsers <- b
}

// RenderHTML loads pageURL in a pooled browser, waits for the load event and
// returns the resulting document.
func (p *Pool) RenderHTML(ctx context.Context, pageURL string) (string, error) {
	b, err := p.Get(ctx)
	if err != nil {
		return "", err
	}
	defer p.Return(b)

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: pageURL})
	if err != nil {
		return "", fmt.Errorf("open page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Printf("Browser: error closing page for %s: %v", pageURL, err)
		}
	}()

	if err := page.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait load: %w", err)
	}
	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// Cleanup closes all browsers in the pool.
func (p *Pool) Cleanup() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true

	close(p.browsers)
	for b := range p.browsers {
		if err := b.Close(); err != nil {
			log.Printf("Browser: close failed: %v", err)
		}
	}
	p.launcher.Cleanup()
	log.Println("Browser pool cleaned up.")
}

// NewLauncher creates and configures a new Rod launcher with standardized settings.
func NewLauncher() *launcher.Launcher {
	return launcher.New().
		Headless(true).
		Set("--disable-blink-features", "AutomationControlled").
		Set("--no-sandbox").
		Set("--disable-setuid-sandbox").
		Set("--disable-gpu").
		Set("--disable-dev-shm-usage").
		Set("--disable-extensions").
		Set("--disable-plugins").
		Set("--disable-images").
		Set("--disable-background-networking")
}
