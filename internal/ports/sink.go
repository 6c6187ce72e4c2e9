package ports

import "github.com/edemonpore/caller/internal/domain"

// FrameSink consumes ordered batches of acquired frames. The session is the
// exclusive owner of the sink for the lifetime of the streaming phase.
type FrameSink interface {
	WriteFrames(frames []domain.Frame) error
	Close() error
	Name() string
}
