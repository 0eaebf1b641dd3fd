package model

// Kind is the classification of a resolved piece of media.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindImage Kind = "image"
	KindFile  Kind = "file"
)

// DefaultKind is the classification used before any image evidence is considered.
func DefaultKind(audioOnly bool) Kind {
	if audioOnly {
		return KindAudio
	}
	return KindVideo
}
