package model

// Transcription is one result produced by a speech-to-text stream.
// Interim results have Final set to false and may be revised by later ones.
type Transcription struct {
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence,omitempty"`
	Final       bool    `json:"is_final"`
	Speaker     string  `json:"speaker,omitempty"`
	Language    string  `json:"language,omitempty"`
	Translation string  `json:"translation,omitempty"`
}

// AudioIterator yields audio chunks from a blocking producer.
// Next returns iterator.Done once the stream is exhausted.
type AudioIterator interface {
	Next() ([]byte, error)
	Close() error
}

// TranscriptIterator yields transcription results from a blocking producer.
// Next returns iterator.Done once the stream is exhausted.
type TranscriptIterator interface {
	Next() (Transcription, error)
	Close() error
}
