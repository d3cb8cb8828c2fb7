package resolver_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/parser"
	"github.com/Niels862/flexul/lang/resolver"
	"github.com/Niels862/flexul/lang/symbol"
)

func resolveSrc(t *testing.T, src string) (*ast.File, *resolver.Result) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	res, err := resolver.Resolve(f)
	require.NoError(t, err)
	return f, res
}

func TestResolveParameterOffsets(t *testing.T) {
	f, res := resolveSrc(t, `fn f(a, b, c) { return a; } fn main() { __exit__(0); }`)
	fn := f.Decls[0].(*ast.FunctionStmt)

	// Parameter offsets are negative, in [-3-n_params, -4].
	want := []int64{-6, -5, -4}
	for i, id := range fn.ParamIDs {
		entry := res.Table.Get(symbol.ID(id))
		assert.Equal(t, symbol.Relative, entry.StorageType)
		assert.Equal(t, want[i], entry.Value)
	}
}

func TestResolveLocalsStartAtZeroAndGrowBySize(t *testing.T) {
	f, res := resolveSrc(t, `fn main() { var a; var b[3]; var c; __exit__(0); }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)

	a := body.Stmts[0].(*ast.VarDeclStmt)
	b := body.Stmts[1].(*ast.VarDeclStmt)
	c := body.Stmts[2].(*ast.VarDeclStmt)

	aEntry := res.Table.Get(symbol.ID(a.SymbolID()))
	bEntry := res.Table.Get(symbol.ID(b.SymbolID()))
	cEntry := res.Table.Get(symbol.ID(c.SymbolID()))

	assert.Equal(t, int64(0), aEntry.Value)
	assert.Equal(t, int64(1), bEntry.Value)
	assert.Equal(t, uint32(3), bEntry.Size)
	assert.Equal(t, int64(4), cEntry.Value)
	assert.Equal(t, uint32(5), fn.FrameSize)
}

func TestResolveOverloadSelectionByArity(t *testing.T) {
	_, res := resolveSrc(t, `
		fn f(a) { return a; }
		fn f(a, b) { return a; }
		fn main() { __exit__(f(1, 2)); }
	`)
	assert.NotZero(t, res.MainID)
}

func TestResolveUndeclaredSymbolIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(`fn main() { __exit__(missing); }`), 0o644))
	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	_, err = resolver.Resolve(f)
	require.Error(t, err)
}

func TestResolveAliasChases(t *testing.T) {
	f, res := resolveSrc(t, `
		fn main() {
			var x = 1;
			alias y for x;
			__exit__(y);
		}
	`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	aliasStmt := body.Stmts[1].(*ast.AliasStmt)

	target, err := res.Table.Resolve(symbol.ID(aliasStmt.SymbolID()))
	require.NoError(t, err)
	xDecl := body.Stmts[0].(*ast.VarDeclStmt)
	assert.Equal(t, symbol.ID(xDecl.SymbolID()), target)
}

func TestResolveMissingMainIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(`fn notmain() { }`), 0o644))
	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	_, err = resolver.Resolve(f)
	require.Error(t, err)
}

func TestResolveTypedefDeclaresTypeName(t *testing.T) {
	f, _ := resolveSrc(t, `
		typedef myint like int;
		fn main() { var x : myint = 1; __exit__(x); }
	`)
	fn := f.Decls[1].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	decl := body.Stmts[0].(*ast.VarDeclStmt)
	assert.Equal(t, "myint", decl.Type.String())
}

func TestResolveUnknownTypeAnnotationIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(`fn main() { var x : nosuch = 1; __exit__(x); }`), 0o644))
	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	_, err = resolver.Resolve(f)
	require.Error(t, err)
}

func TestResolveRedeclaredGlobalIsFatal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(`
		var x;
		var x;
		fn main() { __exit__(0); }
	`), 0o644))
	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	_, err = resolver.Resolve(f)
	require.Error(t, err)
}
