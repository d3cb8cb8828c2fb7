package parser_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/lang/ast"
	"github.com/Niels862/flexul/lang/parser"
)

func parseSrc(t *testing.T, src string) *ast.File {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	return f
}

func TestParseEmptyFunction(t *testing.T) {
	f := parseSrc(t, `fn main() { }`)
	require.Len(t, f.Decls, 1)
	fn, ok := f.Decls[0].(*ast.FunctionStmt)
	require.True(t, ok)
	assert.Equal(t, "main", fn.Name)
	assert.Empty(t, fn.Params)
}

func TestParseParamsAndReturn(t *testing.T) {
	f := parseSrc(t, `fn add(a, b) int { return a + b; }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "b", fn.Params[1].Name)
	require.NotNil(t, fn.Return)
	assert.Equal(t, "int", fn.Return.String())

	body := fn.Body.(*ast.Block)
	require.Len(t, body.Stmts, 1)
	ret := body.Stmts[0].(*ast.ReturnStmt)
	bin := ret.Operand.(*ast.BinaryExpr)
	assert.Equal(t, ast.BinAdd, bin.Op)
}

func TestParseExpressionPrecedence(t *testing.T) {
	f := parseSrc(t, `fn main() { var x = 1 + 2 * 3; }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	decl := body.Stmts[0].(*ast.VarDeclStmt)

	add := decl.Init.(*ast.BinaryExpr)
	assert.Equal(t, ast.BinAdd, add.Op)
	_, ok := add.Left.(*ast.LiteralExpr)
	assert.True(t, ok)
	mul, ok := add.Right.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.BinMul, mul.Op)
}

func TestParseGreaterThanLoweredToLessThan(t *testing.T) {
	f := parseSrc(t, `fn main() { if (a > b) { } }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	ifs := body.Stmts[0].(*ast.IfStmt)
	bin := ifs.Cond.(*ast.BinaryExpr)
	assert.Equal(t, ast.BinLt, bin.Op)
	assert.Equal(t, "b", bin.Left.(*ast.VariableExpr).Name)
	assert.Equal(t, "a", bin.Right.(*ast.VariableExpr).Name)
}

func TestParseWhileDesugarsToFor(t *testing.T) {
	f := parseSrc(t, `fn main() { while (1) { } }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	loop := body.Stmts[0].(*ast.ForStmt)
	assert.Nil(t, loop.Init)
	assert.Nil(t, loop.Post)
	assert.NotNil(t, loop.Cond)
}

func TestParseInlineWritebackParam(t *testing.T) {
	f := parseSrc(t, `inline swap(writeback a, writeback b) { }`)
	in := f.Decls[0].(*ast.InlineStmt)
	require.Len(t, in.Params, 2)
	assert.True(t, in.Params[0].Writeback)
	assert.True(t, in.Params[1].Writeback)
}

func TestParseWritebackOnFunctionIsError(t *testing.T) {
	_, err := func() (*ast.File, error) {
		dir := t.TempDir()
		path := filepath.Join(dir, "main.fx")
		require.NoError(t, os.WriteFile(path, []byte(`fn f(writeback a) { }`), 0o644))
		return parser.ParseFile(path)
	}()
	require.Error(t, err)
}

func TestParseAliasAndTypedef(t *testing.T) {
	f := parseSrc(t, `
		typedef myint like int;
		alias x for y;
		fn main() { }
	`)
	require.Len(t, f.Decls, 3)
	td := f.Decls[0].(*ast.TypeDeclStmt)
	assert.Equal(t, "myint", td.Name)
	al := f.Decls[1].(*ast.AliasStmt)
	assert.Equal(t, "x", al.Name)
	assert.Equal(t, "y", al.Target)
}

func TestParseMultiVarDecl(t *testing.T) {
	f := parseSrc(t, `fn main() { var a = 1, b = 2; }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	blk := body.Stmts[0].(*ast.Block)
	assert.False(t, blk.Scoped)
	require.Len(t, blk.Stmts, 2)
	assert.Equal(t, "a", blk.Stmts[0].(*ast.VarDeclStmt).Name)
	assert.Equal(t, "b", blk.Stmts[1].(*ast.VarDeclStmt).Name)
}

func TestParseArrayDeclAndSubscript(t *testing.T) {
	f := parseSrc(t, `fn main() { var a[10]; a[0] = 1; }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	decl := body.Stmts[0].(*ast.VarDeclStmt)
	require.NotNil(t, decl.Size)

	assign := body.Stmts[1].(*ast.ExprStmt).Expr.(*ast.AssignExpr)
	sub := assign.Left.(*ast.SubscriptExpr)
	assert.Equal(t, "a", sub.Prefix.(*ast.VariableExpr).Name)
}

func TestParseCallAndAttribute(t *testing.T) {
	f := parseSrc(t, `fn main() { f(1, 2).x; }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	attr := body.Stmts[0].(*ast.ExprStmt).Expr.(*ast.AttributeExpr)
	assert.Equal(t, "x", attr.Name)
	call := attr.Left.(*ast.CallExpr)
	assert.Len(t, call.Args, 2)
}

func TestParseLambda(t *testing.T) {
	f := parseSrc(t, `fn main() { var f = lambda(x) { return x; }; }`)
	fn := f.Decls[0].(*ast.FunctionStmt)
	body := fn.Body.(*ast.Block)
	decl := body.Stmts[0].(*ast.VarDeclStmt)
	lam := decl.Init.(*ast.LambdaExpr)
	assert.Equal(t, []string{"x"}, lam.Params)
}

// An include directive splices the referenced file's declarations into
// the stream, and the declaration following the directive in the
// including file still parses (the scan stack pops back to it at the
// included file's EOF).
func TestParseIncludeSplicesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.fx"),
		[]byte(`fn helper(a) { return a; }`), 0o644))
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path,
		[]byte("include lib;\nfn main() { }"), 0o644))

	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, f.Decls, 2)
	assert.Equal(t, "helper", f.Decls[0].(*ast.FunctionStmt).Name)
	assert.Equal(t, "main", f.Decls[1].(*ast.FunctionStmt).Name)
}

// Including the same file twice (directly or transitively) splices it
// only once.
func TestParseIncludeOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.fx"),
		[]byte(`fn helper(a) { return a; }`), 0o644))
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path,
		[]byte("include lib;\ninclude lib;\nfn main() { }"), 0o644))

	f, err := parser.ParseFile(path)
	require.NoError(t, err)
	require.Len(t, f.Decls, 2)
}

func TestParseIncludeMissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte("include nope;\nfn main() { }"), 0o644))
	_, err := parser.ParseFile(path)
	require.Error(t, err)
}

func TestParseFatalErrorIncludesPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.fx")
	require.NoError(t, os.WriteFile(path, []byte("fn main( { }"), 0o644))
	_, err := parser.ParseFile(path)
	require.Error(t, err)

	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
}
