package simconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FormingWorlds/sweepgridgo/internal/testutil"
)

func loadBase(t *testing.T) *Document {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, map[string]string{"base.toml": testutil.BaseConfigTOML})
	doc, err := Load(filepath.Join(dir, "base.toml"))
	require.NoError(t, err)
	return doc
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "failed to load config")
}

func TestSet(t *testing.T) {
	t.Parallel()

	t.Run("overrides an existing leaf", func(t *testing.T) {
		doc := loadBase(t)
		require.NoError(t, doc.Set("outgas.fO2_shift_IW", 2.5))
		require.NoError(t, doc.Set("params.out.path", "sweep/000001/"))
		require.NoError(t, doc.Set("escape.module", "dummy"))
	})

	t.Run("unknown leaf key", func(t *testing.T) {
		doc := loadBase(t)
		err := doc.Set("outgas.no_such_param", 1.0)
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "no_such_param", pathErr.Key)
		assert.Equal(t, "no such key", pathErr.Reason)
	})

	t.Run("unknown intermediate table", func(t *testing.T) {
		doc := loadBase(t)
		err := doc.Set("atmosphere.surface_temp", 1500.0)
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "atmosphere", pathErr.Key)
	})

	t.Run("intermediate key that is not a table", func(t *testing.T) {
		doc := loadBase(t)
		err := doc.Set("version.major", 2)
		var pathErr *PathError
		require.ErrorAs(t, err, &pathErr)
		assert.Equal(t, "not a table", pathErr.Reason)
	})

	t.Run("whole float overriding an integer field stays integral", func(t *testing.T) {
		doc := loadBase(t)
		require.NoError(t, doc.Set("params.stop_iters", 2000.0))

		raw, err := doc.Encode()
		require.NoError(t, err)
		assert.Contains(t, string(raw), "stop_iters = 2000\n")
	})
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	doc := loadBase(t)
	clone := doc.Clone()
	require.NoError(t, clone.Set("struct.mass_tot", 3.0))

	original, err := doc.Encode()
	require.NoError(t, err)
	mutated, err := clone.Encode()
	require.NoError(t, err)

	assert.Contains(t, string(original), "mass_tot = 1.0")
	assert.Contains(t, string(mutated), "mass_tot = 3.0")
}

func TestWriteFile_IsDeterministic(t *testing.T) {
	t.Parallel()

	doc := loadBase(t)
	require.NoError(t, doc.Set("outgas.fO2_shift_IW", -2.0))

	dir := t.TempDir()
	first := filepath.Join(dir, "a.toml")
	second := filepath.Join(dir, "b.toml")
	require.NoError(t, doc.WriteFile(first))
	require.NoError(t, doc.WriteFile(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "two serializations of the same document must be byte-identical")
}

func TestWriteFile_RoundTrips(t *testing.T) {
	t.Parallel()

	doc := loadBase(t)
	require.NoError(t, doc.Set("struct.corefrac", 0.8))

	path := filepath.Join(t.TempDir(), "case.toml")
	require.NoError(t, doc.WriteFile(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	raw, err := reloaded.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "corefrac = 0.8")
}
