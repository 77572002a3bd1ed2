package extractor

import "errors"

// ErrNoVideoID is returned when a URL does not resolve to a YouTube video ID.
var ErrNoVideoID = errors.New("could not extract video ID from URL")

// ErrVideoUnavailable is returned when the metadata lookup finds no video.
var ErrVideoUnavailable = errors.New("video not found or unavailable")

// ErrNoTranscript is returned when no transcript source produced text.
var ErrNoTranscript = errors.New("no transcript available")

// ErrNoRecipeMarkup is returned when a fetched page has no schema.org/Recipe.
var ErrNoRecipeMarkup = errors.New("no schema.org/Recipe found")
