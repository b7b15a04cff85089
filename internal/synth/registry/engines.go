package registry

import "github.com/kevsila/narrator/internal/synth/engine"

// Engines is the global synthesis engine registry.
var Engines = New[engine.Engine]()
