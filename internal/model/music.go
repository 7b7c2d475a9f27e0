package model

// DefaultDuration is the clip length in seconds used when a request omits it.
const DefaultDuration = 30

// GenerationStatusCompleted is the only status the generation path reports.
const GenerationStatusCompleted = "completed"

// MusicGenerateRequest represents the request body for music generation.
// Lyrics and genre must be present but may be empty; duration is unbounded.
type MusicGenerateRequest struct {
	Lyrics   *string `json:"lyrics" validate:"required"`
	Genre    *string `json:"genre" validate:"required"`
	Duration *int    `json:"duration"`
}

// LyricsText returns the lyrics or an empty string.
func (r *MusicGenerateRequest) LyricsText() string {
	if r.Lyrics == nil {
		return ""
	}
	return *r.Lyrics
}

// GenreName returns the genre or an empty string.
func (r *MusicGenerateRequest) GenreName() string {
	if r.Genre == nil {
		return ""
	}
	return *r.Genre
}

// DurationSeconds returns the requested duration, defaulting to DefaultDuration.
func (r *MusicGenerateRequest) DurationSeconds() int {
	if r.Duration == nil {
		return DefaultDuration
	}
	return *r.Duration
}

// MusicGenerateResponse represents the response for music generation
type MusicGenerateResponse struct {
	ID     string  `json:"id"`
	URL    string  `json:"url"`
	Status string  `json:"status"`
	Error  *string `json:"error"`
}
