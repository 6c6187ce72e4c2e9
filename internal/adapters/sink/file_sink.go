package sink

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/edemonpore/caller/internal/domain"
	"github.com/edemonpore/caller/internal/ports"
)

// FileSink appends frames to a flat binary file: little-endian 4-byte floats,
// channelCount values per frame, no header, no delimiters. The file is
// truncated on open; one run, one file.
//
// The sink is exclusively owned by the session and is not safe for
// concurrent writers.
type FileSink struct {
	path   string
	file   *os.File
	writer *bufio.Writer
	closed bool
}

func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open sink %s: %w", path, err)
	}
	return &FileSink{
		path:   path,
		file:   f,
		writer: bufio.NewWriterSize(f, 1<<16),
	}, nil
}

func (s *FileSink) Name() string { return "file:" + s.path }

func (s *FileSink) WriteFrames(frames []domain.Frame) error {
	if s.closed {
		return fmt.Errorf("sink %s already closed", s.path)
	}
	if len(frames) == 0 {
		return nil
	}

	var scratch [4]byte
	for _, frame := range frames {
		for _, v := range frame {
			binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(v))
			if _, err := s.writer.Write(scratch[:]); err != nil {
				return fmt.Errorf("write sink %s: %w", s.path, err)
			}
		}
	}
	return nil
}

// Close flushes and closes the file. A second Close is a no-op so the
// not-connected abort path and the normal teardown path can both call it.
func (s *FileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("flush sink %s: %w", s.path, err)
	}
	return s.file.Close()
}

var _ ports.FrameSink = (*FileSink)(nil)
