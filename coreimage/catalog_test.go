package coreimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	assert.NoError(t, ValidateCatalog(catalog))

	table := catalog.TableFor("x86_64")
	assert.Len(t, table, 4)
	assert.Equal(t, []string{"core", "core16"}, table["ubuntu-core-16-amd64.img.xz"].Aliases)
	assert.Empty(t, catalog.TableFor("riscv64"))
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()
	valid := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(valid, []byte(`
arm64:
  img-a.xz:
    url_prefix: http://x/
    aliases: [a]
    os: Ubuntu
    release: r-a
    release_title: A
`), 0644))

	t.Run("valid file", func(t *testing.T) {
		catalog, err := LoadCatalog(valid)
		require.NoError(t, err)

		spec := catalog.TableFor("arm64")["img-a.xz"]
		assert.Equal(t, "http://x/", spec.URLPrefix)
		assert.Equal(t, []string{"a"}, spec.Aliases)
		assert.Equal(t, "A", spec.ReleaseTitle)
	})

	t.Run("entry without aliases", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
arm64:
  img-a.xz:
    url_prefix: http://x/
    os: Ubuntu
    release: r-a
`), 0644))

		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "arm64/img-a.xz")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		require.NoError(t, os.WriteFile(path, []byte("arm64: [unclosed"), 0644))

		_, err := LoadCatalog(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("LoadTable", func(t *testing.T) {
		table, err := LoadTable("arm64", valid)
		require.NoError(t, err)
		assert.Equal(t, []string{"img-a.xz"}, table.FileNames())

		table, err = LoadTable("x86_64", "")
		require.NoError(t, err)
		assert.Len(t, table, 4)
	})
}

func TestTableFileNames(t *testing.T) {
	table := Table{"b.img": {}, "a.img": {}, "c.img": {}}
	assert.Equal(t, []string{"a.img", "b.img", "c.img"}, table.FileNames())
	assert.Empty(t, Table{}.FileNames())
}
