// Package config holds the process-wide options that the rest of astrocore
// reads before doing real work: EOP backend selection and missing-data
// policy, JPL kernel locations, and the default CCSDS wire format. It is
// modeled on beyond's config.Config (a dotted-key singleton map), adapted
// to a concurrency-safe Go type instead of a bare dict subclass.
package config

import "sync"

// Known keys (§6). Callers are not restricted to these, but the rest of
// astrocore only reads these.
const (
	KeyEopMissingPolicy  = "eop.missing_policy"
	KeyEopDBName         = "eop.dbname"
	KeyEopFolder         = "eop.folder"
	KeyEopType           = "eop.type"
	KeyJPLFiles          = "env.jpl.files"
	KeyJPLDynamicFrames  = "env.jpl.dynamic_frames"
	KeyCcsdsDefaultFormat = "io.ccsds_default_format"
)

// Config is a dotted-key, concurrency-safe option store. A single process
// normally uses the package-level Default instance.
type Config struct {
	mu     sync.RWMutex
	values map[string]any
}

// New returns an empty Config.
func New() *Config {
	return &Config{values: make(map[string]any)}
}

// Default is the process-wide configuration instance that the rest of
// astrocore reads implicitly (EOP store, JPL loader, CCSDS collaborators).
var Default = New()

// Get returns the value stored at key, or fallback if absent.
func (c *Config) Get(key string, fallback any) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.values[key]; ok {
		return v
	}
	return fallback
}

// GetString is a typed convenience wrapper around Get.
func (c *Config) GetString(key, fallback string) string {
	v := c.Get(key, fallback)
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	return s
}

// GetBool is a typed convenience wrapper around Get.
func (c *Config) GetBool(key string, fallback bool) bool {
	v := c.Get(key, fallback)
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// GetStringSlice is a typed convenience wrapper around Get.
func (c *Config) GetStringSlice(key string, fallback []string) []string {
	v := c.Get(key, fallback)
	s, ok := v.([]string)
	if !ok {
		return fallback
	}
	return s
}

// Set stores value at key.
func (c *Config) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Update merges every entry of values into the config.
func (c *Config) Update(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
	}
}
