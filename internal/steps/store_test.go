package steps_test

import (
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/v0xg/stepscript/internal/action"
	"github.com/v0xg/stepscript/internal/logger"
	"github.com/v0xg/stepscript/internal/steps"
)

func TestStoreRecordsAndPersists(t *testing.T) {
	fs := afero.NewMemMapFs()
	log := logger.Discard()

	s := steps.Open(fs, "data/testSteps.json", log)
	require.NoError(t, s.Add(action.Action{Type: "navigate", Value: "https://www.baidu.com"}))
	require.NoError(t, s.Add(action.Action{Type: "fill", Selector: "e38", Value: "ai"}))
	require.NoError(t, s.Add(action.Action{Type: "click", Selector: "e76"}))

	reopened := steps.Open(fs, "data/testSteps.json", log)
	req := reopened.Request()
	assert.Equal(t, "https://www.baidu.com", req.URL)
	assert.Equal(t, []action.Action{
		{Type: "fill", Selector: "e38", Value: "ai"},
		{Type: "click", Selector: "e76"},
	}, req.Actions)
}

func TestStoreClear(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := steps.Open(fs, "testSteps.json", logger.Discard())
	require.NoError(t, s.SetURL("https://example.com"))
	require.NoError(t, s.Add(action.Action{Type: "snapshot"}))

	require.NoError(t, s.Clear())

	assert.Empty(t, s.Steps())
	assert.Empty(t, s.URL())
	assert.Empty(t, steps.Open(fs, "testSteps.json", logger.Discard()).Steps())
}

func TestStoreReadsBareArray(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "testSteps.txt", []byte(`[{"type":"click","selector":"#a"}]`), 0o644))

	s := steps.Open(fs, "testSteps.txt", logger.Discard())
	assert.Equal(t, []action.Action{{Type: "click", Selector: "#a"}}, s.Steps())
}

func TestStoreIgnoresCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "testSteps.json", []byte("{not json"), 0o644))

	s := steps.Open(fs, "testSteps.json", logger.Discard())
	assert.Empty(t, s.Steps())
}

func TestStoreStepsIsACopy(t *testing.T) {
	s := steps.Open(afero.NewMemMapFs(), "testSteps.json", logger.Discard())
	require.NoError(t, s.Add(action.Action{Type: "click", Selector: "#a"}))

	got := s.Steps()
	got[0].Selector = "#changed"
	assert.Equal(t, "#a", s.Steps()[0].Selector)
}

func TestStoreSaveFailure(t *testing.T) {
	s := steps.Open(afero.NewReadOnlyFs(afero.NewMemMapFs()), "testSteps.json", logger.Discard())
	assert.Error(t, s.Add(action.Action{Type: "click", Selector: "#a"}))
}

func TestStoreRequestIsConsistentSnapshot(t *testing.T) {
	s := steps.Open(afero.NewMemMapFs(), "testSteps.json", logger.Discard())

	// The writer only ever passes through ("", []), ("a", []) and ("a", [click])
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = s.Clear()
			_ = s.Add(action.Action{Type: "navigate", Value: "a"})
			_ = s.Add(action.Action{Type: "click", Selector: "#go"})
		}
	}()

	for i := 0; i < 2000; i++ {
		req := s.Request()
		if len(req.Actions) > 0 {
			require.Equal(t, "a", req.URL, "steps seen without their URL")
		}
	}
	wg.Wait()
}
