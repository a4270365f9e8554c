package wallpaper

import (
	"go.uber.org/zap"
)

// syncSlideshowLocked keeps exactly one slideshow timer running while a
// slideshow entry is current. The timer is replaced when the current entry
// changes and stopped when it is not a slideshow.
func (m *Manager) syncSlideshowLocked() {
	cur := m.currentLocked()
	if cur == nil || !cur.IsSlideshow || len(cur.Slides) < 2 {
		if m.slideshow.Active() {
			m.logger.Debug("slideshow stopped")
		}
		m.slideshow.Stop()
		m.slideKey = ""
		m.slide = 0
		return
	}
	if cur.Key == m.slideKey && m.slideshow.Active() {
		return
	}

	m.slideKey = cur.Key
	m.slide = 0
	key := cur.Key
	m.slideshow.Every(m.interval, func(gen uint64) {
		m.advanceSlide(key, gen)
	})
	m.logger.Debug("slideshow started", zap.String("entry", key), zap.Duration("interval", m.interval))
}

func (m *Manager) advanceSlide(key string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.currentLocked()
	if !m.slideshow.Current(gen) || cur == nil || cur.Key != key || len(cur.Slides) == 0 {
		return
	}
	m.slide = (m.slide + 1) % len(cur.Slides)
	m.renderer.RenderSlide(m.viewLocked())
}

// Slide returns the index of the slide currently shown
func (m *Manager) Slide() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slide
}
