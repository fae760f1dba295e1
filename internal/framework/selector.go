package framework

import (
	"strings"

	"review-framework-api/internal/common/config"
	"review-framework-api/internal/common/logger"
)

// Loader is the part of Store the selector needs.
type Loader interface {
	LoadAll() map[string]interface{}
}

// NormalizeName appends ext to name unless it already ends with it.
func NormalizeName(name, ext string) string {
	if ext == "" {
		ext = config.DefaultExtension
	}
	if strings.HasSuffix(name, ext) {
		return name
	}
	return name + ext
}

// Selector maps requested component names onto loaded framework files.
// Unknown names are skipped, never reported as errors.
type Selector struct {
	loader    Loader
	defaults  []string
	extension string
	logger    logger.Logger
}

func NewSelector(loader Loader, cfg config.FrameworkConfig, log logger.Logger) *Selector {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	defaults := cfg.DefaultComponents
	if len(defaults) == 0 {
		defaults = config.DefaultComponents
	}
	ext := cfg.Extension
	if ext == "" {
		ext = config.DefaultExtension
	}
	return &Selector{
		loader:    loader,
		defaults:  append([]string(nil), defaults...),
		extension: ext,
		logger:    log.With(map[string]interface{}{"component": "component-selector"}),
	}
}

// Defaults returns a copy of the default component list.
func (s *Selector) Defaults() []string {
	return append([]string(nil), s.defaults...)
}

// Resolve loads the store and returns the requested components. An empty
// request selects the defaults that exist.
func (s *Selector) Resolve(requested []string) map[string]interface{} {
	return s.Select(s.loader.LoadAll(), requested)
}

// Select is Resolve over an already loaded file map.
func (s *Selector) Select(files map[string]interface{}, requested []string) map[string]interface{} {
	components := make(map[string]interface{})

	if len(requested) == 0 {
		for _, name := range s.defaults {
			if doc, ok := files[name]; ok {
				components[name] = doc
				s.logger.Debug("Including default component", map[string]interface{}{"file": name})
			}
		}
		return components
	}

	for _, raw := range requested {
		name := NormalizeName(raw, s.extension)
		doc, ok := files[name]
		if !ok {
			s.logger.Debug("Requested component not found, skipping", map[string]interface{}{"file": name})
			continue
		}
		components[name] = doc
		s.logger.Debug("Including requested component", map[string]interface{}{"file": name})
	}
	return components
}

// ComponentsUsed is the list reported back to the caller: the defaults for an
// empty request, otherwise every requested name normalized, found or not.
func (s *Selector) ComponentsUsed(requested []string) []string {
	if len(requested) == 0 {
		return s.Defaults()
	}
	used := make([]string, 0, len(requested))
	for _, raw := range requested {
		used = append(used, NormalizeName(raw, s.extension))
	}
	return used
}
