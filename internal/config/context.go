package config

import "sync"

// Context holds the settings loaded once at startup. It is created by the
// command layer and passed to every component that reads settings.
// Reads return a copy; Save persists before replacing the cached value.
type Context struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

// NewContext wraps already-loaded settings.
func NewContext(path string, s Settings) *Context {
	s.normalize()
	return &Context{path: path, settings: s}
}

// Open loads the settings file at path into a new Context.
func Open(path string) (*Context, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}
	return NewContext(path, s), nil
}

// Path returns the settings file backing the context.
func (c *Context) Path() string {
	return c.path
}

// Get returns a copy of the current settings.
func (c *Context) Get() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Save writes s to the settings file and, once durable, makes it the
// cached value.
func (c *Context) Save(s Settings) error {
	s.normalize()

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := write(c.path, s); err != nil {
		return err
	}
	c.settings = s
	return nil
}

// Update applies fn to a copy of the current settings and saves the result.
func (c *Context) Update(fn func(*Settings) error) (Settings, error) {
	s := c.Get()
	if err := fn(&s); err != nil {
		return s, err
	}
	if err := c.Save(s); err != nil {
		return s, err
	}
	return c.Get(), nil
}
