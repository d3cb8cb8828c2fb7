package ast_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Niels862/flexul/lang/ast"
)

func named(name string) *ast.NamedTypeNode { return &ast.NamedTypeNode{Name: name} }

func TestAnyTypeMatchesEverything(t *testing.T) {
	any := &ast.AnyTypeNode{}
	assert.Equal(t, ast.AnyMatch, any.Matching(named("int")))
	assert.Equal(t, ast.AnyMatch, any.Matching(&ast.AnyTypeNode{}))
	assert.Equal(t, ast.AnyMatch, any.Matching(&ast.TypeListNode{}))
}

func TestNamedTypeMatching(t *testing.T) {
	assert.Equal(t, ast.ExactMatch, named("int").Matching(named("int")))
	assert.Equal(t, ast.AnyMatch, named("int").Matching(&ast.AnyTypeNode{}))
	assert.Equal(t, ast.NoMatch, named("int").Matching(named("word")))
}

// A type list matches element-wise: its result is the weakest element
// match, and a length mismatch is no match at all.
func TestTypeListMatching(t *testing.T) {
	exact := &ast.TypeListNode{Items: []ast.TypeNode{named("int"), named("int")}}
	mixed := &ast.TypeListNode{Items: []ast.TypeNode{named("int"), &ast.AnyTypeNode{}}}
	short := &ast.TypeListNode{Items: []ast.TypeNode{named("int")}}
	wrong := &ast.TypeListNode{Items: []ast.TypeNode{named("int"), named("word")}}

	assert.Equal(t, ast.ExactMatch, exact.Matching(exact))
	assert.Equal(t, ast.AnyMatch, mixed.Matching(exact))
	assert.Equal(t, ast.NoMatch, exact.Matching(short))
	assert.Equal(t, ast.NoMatch, exact.Matching(wrong))
}

func TestCallableTypeMatching(t *testing.T) {
	intInt := &ast.CallableTypeNode{
		Params: &ast.TypeListNode{Items: []ast.TypeNode{named("int")}},
		Return: named("int"),
	}
	intAny := &ast.CallableTypeNode{
		Params: &ast.TypeListNode{Items: []ast.TypeNode{named("int")}},
		Return: &ast.AnyTypeNode{},
	}

	assert.Equal(t, ast.ExactMatch, intInt.Matching(intInt))
	assert.Equal(t, ast.AnyMatch, intAny.Matching(intInt))
	assert.Equal(t, ast.NoMatch, intInt.Matching(named("int")))
}
