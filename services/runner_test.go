package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
)

// fakeRunner stands in for ffmpeg/ffprobe. Durations and probe failures are
// keyed by file base name; Run records every invocation and touches the
// output path (the last argument) so the pipeline sees a produced file.
type fakeRunner struct {
	mu           sync.Mutex
	durations    map[string]float64
	durationErrs map[string]error
	runErr       error
	failWhen     func(args []string) error
	commands     [][]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		durations:    make(map[string]float64),
		durationErrs: make(map[string]error),
	}
}

func (f *fakeRunner) Run(_ context.Context, args []string) error {
	f.mu.Lock()
	f.commands = append(f.commands, args)
	f.mu.Unlock()

	if f.runErr != nil {
		return f.runErr
	}
	if f.failWhen != nil {
		if err := f.failWhen(args); err != nil {
			return err
		}
	}

	output := args[len(args)-1]
	return os.WriteFile(output, []byte("media"), 0644)
}

func (f *fakeRunner) Duration(_ context.Context, path string) (float64, error) {
	base := filepath.Base(path)
	if err, ok := f.durationErrs[base]; ok {
		return 0, err
	}
	return f.durations[base], nil
}

func (f *fakeRunner) commandList() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.commands...)
}
