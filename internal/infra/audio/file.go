package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileSource is a development stand-in for the microphone: it polls a
// directory for dropped .wav files and streams their PCM payload as frames,
// followed by a tail of silence so the recognizer endpoints the utterance.
// Consumed files are renamed with a .processed suffix.
type FileSource struct {
	dir       string
	frameSize int

	mu      sync.Mutex
	pending [][]byte
	paused  bool
}

func NewFileSource(dir string, framesPerBuffer int) *FileSource {
	return &FileSource{
		dir:       dir,
		frameSize: framesPerBuffer * 2, // int16 samples
	}
}

func (f *FileSource) Name() string {
	return "file"
}

func (f *FileSource) Start(_ context.Context) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("creating audio dir: %w", err)
	}
	return nil
}

func (f *FileSource) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
	return nil
}

func (f *FileSource) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
	return nil
}

func (f *FileSource) Close() error {
	return nil
}

// ReadFrame returns the next buffered frame, loading a new file when the
// buffer runs dry. Returns empty frames while paused or when no file has
// arrived yet.
func (f *FileSource) ReadFrame(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	if f.paused {
		f.mu.Unlock()
		return nil, nil
	}
	if len(f.pending) > 0 {
		frame := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return frame, nil
	}
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(200 * time.Millisecond):
	}

	if err := f.loadNextFile(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *FileSource) loadNextFile() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("reading dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".wav" {
			continue
		}

		path := filepath.Join(f.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading file %s: %w", path, err)
		}
		os.Rename(path, path+".processed")

		pcm := wavPayload(data)
		for off := 0; off < len(pcm); off += f.frameSize {
			end := off + f.frameSize
			if end > len(pcm) {
				end = len(pcm)
			}
			f.pending = append(f.pending, pcm[off:end])
		}
		// Tail of silence so the recognizer sees an endpoint.
		silence := make([]byte, f.frameSize)
		for i := 0; i < 4; i++ {
			f.pending = append(f.pending, silence)
		}
		return nil
	}

	return nil
}

// wavPayload strips the RIFF framing and returns the raw sample bytes. Data
// that does not look like a WAV file is passed through unchanged.
func wavPayload(data []byte) []byte {
	if len(data) < 12 || !bytes.HasPrefix(data, []byte("RIFF")) {
		return data
	}
	idx := bytes.Index(data, []byte("data"))
	if idx < 0 || idx+8 > len(data) {
		return data
	}
	return data[idx+8:]
}
