package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/domain/settings"
	"github.com/GriffinCanCode/homescreen/internal/shared/failure"
	"github.com/GriffinCanCode/homescreen/internal/shared/types"
	"go.uber.org/zap"
)

// DockSize is the number of recently opened apps shown in the dock
const DockSize = 4

// StateStore persists usage counters
type StateStore interface {
	GetJSON(key string, out interface{}) (bool, error)
	SetJSONs(ctx context.Context, values map[string]interface{}) error
}

// Catalog is the set of launchable mini-apps with their usage counters
type Catalog struct {
	mu         sync.RWMutex
	apps       []types.App      // registration order
	byName     map[string]int   // name -> index into apps
	usage      map[string]int   // launches per app name
	lastOpened map[string]int64 // unix ms per app name
	state      StateStore
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a catalog holding the built-in apps and restores usage
// counters from state. Corrupt counters are treated as empty.
func New(state StateStore, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Catalog{
		byName:     make(map[string]int),
		usage:      make(map[string]int),
		lastOpened: make(map[string]int64),
		state:      state,
		logger:     logger,
		now:        time.Now,
	}
	for _, a := range Builtin() {
		c.Register(a)
	}
	c.restore()
	return c
}

func (c *Catalog) restore() {
	if c.state == nil {
		return
	}
	usage := make(map[string]int)
	if found, err := c.state.GetJSON(settings.KeyAppUsage, &usage); err != nil {
		c.logger.Warn("Discarding app usage", zap.Error(err))
	} else if found {
		c.usage = usage
	}
	opened := make(map[string]int64)
	if found, err := c.state.GetJSON(settings.KeyAppLastOpened, &opened); err != nil {
		c.logger.Warn("Discarding app last-opened times", zap.Error(err))
	} else if found {
		c.lastOpened = opened
	}
}

// Register adds an app, replacing any app with the same name
func (c *Catalog) Register(a types.App) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i, ok := c.byName[a.Name]; ok {
		c.apps[i] = a
		return
	}
	c.byName[a.Name] = len(c.apps)
	c.apps = append(c.apps, a)
}

// Len returns the number of apps
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.apps)
}

// Lookup finds an app by name
func (c *Catalog) Lookup(name string) (types.App, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[name]
	if !ok {
		return types.App{}, false
	}
	return c.withCounters(c.apps[i]), true
}

// Resolve maps an app URL to its name, which frames carry as their app id
func (c *Catalog) Resolve(url string) (string, bool) {
	url = strings.TrimSpace(url)
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.apps {
		if a.URL == url {
			return a.Name, true
		}
	}
	return "", false
}

// Grid returns every app, most launched first
func (c *Catalog) Grid() []types.App {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.snapshot()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Usage > out[j].Usage })
	return out
}

// Dock returns the most recently opened apps
func (c *Catalog) Dock() []types.App {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := c.snapshot()
	sort.SliceStable(out, func(i, j int) bool { return out[i].LastOpened.After(out[j].LastOpened) })
	if len(out) > DockSize {
		out = out[:DockSize]
	}
	return out
}

// RecordLaunch bumps the usage counter and last-opened time of name
func (c *Catalog) RecordLaunch(ctx context.Context, name string) (types.App, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byName[name]
	if !ok {
		return types.App{}, failure.Newf(failure.KindNotFound, "catalog.launch", "unknown app %q", name)
	}
	c.usage[name]++
	c.lastOpened[name] = c.now().UnixMilli()

	if c.state != nil {
		err := c.state.SetJSONs(ctx, map[string]interface{}{
			settings.KeyAppUsage:      c.usage,
			settings.KeyAppLastOpened: c.lastOpened,
		})
		if err != nil {
			return types.App{}, fmt.Errorf("save app usage: %w", err)
		}
	}
	return c.withCounters(c.apps[i]), nil
}

// snapshot must hold lock
func (c *Catalog) snapshot() []types.App {
	out := make([]types.App, len(c.apps))
	for i, a := range c.apps {
		out[i] = c.withCounters(a)
	}
	return out
}

func (c *Catalog) withCounters(a types.App) types.App {
	a.Usage = c.usage[a.Name]
	if ms, ok := c.lastOpened[a.Name]; ok && ms > 0 {
		a.LastOpened = time.UnixMilli(ms)
	}
	return a
}
