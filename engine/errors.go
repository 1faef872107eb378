package engine

import "errors"

// ErrNoScenes is returned by Start/RunInit when no scene has been
// registered via AddScene.
var ErrNoScenes = errors.New("engine: no scenes registered")

// ErrSanitizeReject names the condition of sanitize dropping an event. The
// engine neither returns nor records this value: drops are only counted,
// and the count is read with Engine.SanitizeRejects.
var ErrSanitizeReject = errors.New("engine: event rejected by sanitize")
