package model

import "io"

// ConversionStatusCompleted is reported by the placeholder converter.
const ConversionStatusCompleted = "completed"

// VocalConvertRequest carries the uploaded vocal take and the requested voice.
// File is streamed to disk, it is never held in memory as a whole.
type VocalConvertRequest struct {
	Filename    string
	File        io.Reader
	TargetVoice string
}

// VocalConvertResponse represents the response for vocal conversion
type VocalConvertResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	ConvertedURL string `json:"converted_url"`
	Status       string `json:"status"`
}
