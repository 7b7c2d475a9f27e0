package model

// Lyrics sources
const (
	LyricsSourceAI   = "ai"
	LyricsSourceDemo = "demo"
)

// LyricsGenerateRequest represents the request body for lyrics generation.
// UseCase describes what the song is for, e.g. "bedtime song about a sleepy owl".
type LyricsGenerateRequest struct {
	UseCase string `json:"useCase" validate:"required,min=1,max=1000"`
	Genre   string `json:"genre" validate:"required,min=1,max=100"`
}

// LyricsStructure is a complete song text split into its sections
type LyricsStructure struct {
	Title  string `json:"title"`
	Style  string `json:"style"`
	Verse1 string `json:"verse1"`
	Chorus string `json:"chorus"`
	Verse2 string `json:"verse2"`
	Bridge string `json:"bridge"`
	Outro  string `json:"outro"`
	Source string `json:"source"`
	IsDemo bool   `json:"isDemo,omitempty"`
}

// MissingSection returns the JSON name of the first empty section, or "".
func (l *LyricsStructure) MissingSection() string {
	sections := []struct {
		name  string
		value string
	}{
		{"title", l.Title},
		{"style", l.Style},
		{"verse1", l.Verse1},
		{"chorus", l.Chorus},
		{"verse2", l.Verse2},
		{"bridge", l.Bridge},
		{"outro", l.Outro},
	}
	for _, s := range sections {
		if s.value == "" {
			return s.name
		}
	}
	return ""
}
