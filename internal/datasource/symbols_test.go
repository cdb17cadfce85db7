package datasource

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/futuresagent/pkg/models"
)

func TestLookup(t *testing.T) {
	sym, err := Lookup("  RB ")
	require.NoError(t, err)
	assert.Equal(t, "rb", sym.Code)
	assert.Equal(t, "螺纹钢", sym.Name)
	assert.Equal(t, models.SHFE, sym.Exchange)
	assert.Equal(t, "RB0", SinaCode(sym))

	sym, err = Lookup("IF")
	require.NoError(t, err)
	assert.Equal(t, models.CFFEX, sym.Exchange)
	assert.True(t, sym.Financial())
}

func TestLookupUnsupported(t *testing.T) {
	_, err := Lookup("xyz")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedSymbol))
	assert.Contains(t, err.Error(), "unsupported symbol")
}

func TestSymbolsSortedAndComplete(t *testing.T) {
	syms := Symbols()
	require.NotEmpty(t, syms)
	for i := 1; i < len(syms); i++ {
		assert.Less(t, syms[i-1].Code, syms[i].Code)
	}
	total := 0
	for _, ex := range models.Exchanges() {
		n := len(SymbolsByExchange(ex))
		assert.Positive(t, n, "exchange %s has no symbols", ex)
		total += n
	}
	assert.Equal(t, len(syms), total)
	assert.Len(t, SymbolsByExchange(models.GFEX), 3)
}

func TestLoadCatalogFile(t *testing.T) {
	t.Cleanup(resetCatalog)

	path := filepath.Join(t.TempDir(), "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`symbols:
  - code: EC
    name: 集运指数(欧线)
    exchange: ine
  - code: rb
    name: 螺纹
    exchange: SHFE
`), 0o644))

	n, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ec, err := Lookup("ec")
	require.NoError(t, err)
	assert.Equal(t, models.INE, ec.Exchange)

	rb, err := Lookup("rb")
	require.NoError(t, err)
	assert.Equal(t, "螺纹", rb.Name)
}

func TestLoadCatalogFileRejectsUnknownExchange(t *testing.T) {
	t.Cleanup(resetCatalog)

	path := filepath.Join(t.TempDir(), "symbols.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols:\n  - code: zz\n    name: 测试\n    exchange: LME\n"), 0o644))

	_, err := LoadCatalogFile(path)
	require.Error(t, err)
	_, err = Lookup("zz")
	assert.ErrorIs(t, err, ErrUnsupportedSymbol)
}
