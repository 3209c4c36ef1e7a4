package steps

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/v0xg/stepscript/internal/action"
)

// NavigateType is the recorded type that moves the current page instead of
// adding a step
const NavigateType = "navigate"

// fileFormat is the on-disk layout of the steps file
type fileFormat struct {
	URL   string          `json:"url"`
	Steps []action.Action `json:"steps"`
}

// Store keeps recorded actions and the current page URL, persisted to a JSON
// file after every change.
type Store struct {
	fs     afero.Fs
	path   string
	logger logrus.FieldLogger

	mu    sync.Mutex
	url   string
	steps []action.Action
}

// Open loads the steps file. A missing file starts an empty store; an
// unreadable one is logged and also starts empty.
func Open(fs afero.Fs, path string, logger logrus.FieldLogger) *Store {
	s := &Store{fs: fs, path: path, logger: logger, steps: []action.Action{}}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.WithField("file", path).Debug("steps file does not exist, starting empty")
		} else {
			logger.WithError(err).WithField("file", path).Warn("failed to read steps file")
		}
		return s
	}

	if err := s.decode(data); err != nil {
		logger.WithError(err).WithField("file", path).Warn("failed to parse steps file")
		return s
	}
	logger.WithFields(logrus.Fields{"file": path, "steps": len(s.steps)}).Info("loaded recorded steps")
	return s
}

// decode accepts both the object layout and a bare action array
func (s *Store) decode(data []byte) error {
	var f fileFormat
	if err := json.Unmarshal(data, &f); err == nil {
		s.url = f.URL
		if f.Steps != nil {
			s.steps = f.Steps
		}
		return nil
	}

	var list []action.Action
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	if list != nil {
		s.steps = list
	}
	return nil
}

// Add records an action. A navigate action updates the current URL.
func (s *Store) Add(a action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.Type == NavigateType {
		s.url = a.Value
	} else {
		s.steps = append(s.steps, a)
	}
	s.logger.WithFields(logrus.Fields{"type": a.Type, "selector": a.Selector}).Debug("recorded step")
	return s.save()
}

// SetURL records the page the steps start from
func (s *Store) SetURL(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.url = url
	return s.save()
}

// URL returns the current page URL
func (s *Store) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Steps returns a copy of the recorded actions
func (s *Store) Steps() []action.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]action.Action, len(s.steps))
	copy(out, s.steps)
	return out
}

// Request builds a compilation request from one consistent snapshot of the
// recorded state
func (s *Store) Request() *action.Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := make([]action.Action, len(s.steps))
	copy(steps, s.steps)
	return &action.Request{URL: s.url, Actions: steps}
}

// Clear drops every recorded step and the URL
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.url = ""
	s.steps = []action.Action{}
	s.logger.WithField("file", s.path).Info("cleared recorded steps")
	return s.save()
}

func (s *Store) save() error {
	data, err := json.MarshalIndent(fileFormat{URL: s.url, Steps: s.steps}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create steps dir: %w", err)
		}
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		return fmt.Errorf("write steps file: %w", err)
	}
	return nil
}
