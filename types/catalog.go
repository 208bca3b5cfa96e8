package types

// CatalogEntry represents one playable audio file discovered at startup.
// The wire shape matches the LIST response and the metadata.json snapshot.
type CatalogEntry struct {
	Filename    string         `json:"filename"`
	DurationSec float64        `json:"duration_sec"`
	Format      string         `json:"format"` // "wav", "mp3", "ogg", "flac"
	Metadata    *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata represents embedded tag metadata for an audio file
type AudioMetadata struct {
	Title       string `json:"title,omitempty"`
	Artist      string `json:"artist,omitempty"`
	Album       string `json:"album,omitempty"`
	TrackNumber int    `json:"trackNumber,omitempty"`
}

// ValidatedRange is an excerpt request that passed every validation check.
// Invariant: 0 <= StartMS < EndMS <= file duration in milliseconds.
type ValidatedRange struct {
	Filename string
	Path     string // absolute path inside the audio directory
	Format   string
	StartMS  uint64
	EndMS    uint64
}
