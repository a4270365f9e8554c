package style

import (
	"sync"

	"github.com/GriffinCanCode/homescreen/internal/shared/types"
)

// Renderer projects the clock/weather styling to the page
type Renderer interface {
	RenderStyle(p types.StyleProfile)
}

// Panel holds the live style controls. Writes go through one lock and render
// once, so the page never sees a half-applied profile.
type Panel struct {
	mu       sync.Mutex
	profile  types.StyleProfile
	renderer Renderer
}

// NewPanel creates a panel showing initial
func NewPanel(initial types.StyleProfile, renderer Renderer) *Panel {
	return &Panel{profile: initial, renderer: renderer}
}

// Profile returns a copy of the live controls
func (p *Panel) Profile() types.StyleProfile {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile
}

// Replace writes every field and renders once
func (p *Panel) Replace(profile types.StyleProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile = profile
	p.render()
}

// Update writes a single control and renders
func (p *Panel) Update(key string, value interface{}) (types.StyleProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	next := p.profile
	if err := SetField(&next, key, value); err != nil {
		return p.profile, err
	}
	p.profile = next
	p.render()
	return next, nil
}

func (p *Panel) render() {
	if p.renderer != nil {
		p.renderer.RenderStyle(p.profile)
	}
}
