// pkg/suite/suite_test.go
package suite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uitest-io/uitest/pkg/page"
)

func noopRun(context.Context, *page.Page) error { return nil }

func TestRegisterAndAll(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	require.NoError(t, Register(Suite{
		Name:  "login",
		Tests: []Test{{Name: "valid credentials", Run: noopRun}},
	}))
	require.NoError(t, Register(Suite{
		Name:  "downloads",
		Tests: []Test{{Name: "export report", Run: noopRun}},
	}))

	all := All()
	require.Len(t, all, 2)
	assert.Equal(t, "login", all[0].Name)
	assert.Equal(t, "downloads", all[1].Name)
}

func TestRegisterValidation(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	t.Run("empty suite name", func(t *testing.T) {
		require.Error(t, Register(Suite{}))
	})

	t.Run("empty test name", func(t *testing.T) {
		err := Register(Suite{Name: "s1", Tests: []Test{{Run: noopRun}}})
		require.Error(t, err)
	})

	t.Run("nil run func", func(t *testing.T) {
		err := Register(Suite{Name: "s2", Tests: []Test{{Name: "t"}}})
		require.Error(t, err)
	})

	t.Run("duplicate test name within suite", func(t *testing.T) {
		err := Register(Suite{Name: "s3", Tests: []Test{
			{Name: "t", Run: noopRun},
			{Name: "t", Run: noopRun},
		}})
		require.Error(t, err)
	})

	t.Run("duplicate suite name", func(t *testing.T) {
		require.NoError(t, Register(Suite{Name: "s4", Tests: []Test{{Name: "t", Run: noopRun}}}))
		require.Error(t, Register(Suite{Name: "s4", Tests: []Test{{Name: "t", Run: noopRun}}}))
	})
}

func TestMustRegisterPanics(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	assert.Panics(t, func() { MustRegister(Suite{}) })
	assert.NotPanics(t, func() {
		MustRegister(Suite{Name: "ok", Tests: []Test{{Name: "t", Run: noopRun}}})
	})
}
