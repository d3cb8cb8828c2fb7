package scanner_test

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niels862/flexul/internal/filetest"
	"github.com/Niels862/flexul/lang/scanner"
	"github.com/Niels862/flexul/lang/token"
)

var testUpdateScannerTests = flag.Bool("test.update-scanner-tests", false, "If set, replace expected scanner test results with actual results.")

func TestScanGoldens(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".fx") {
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(srcDir, fi.Name()))
			require.NoError(t, err)

			var s scanner.Scanner
			s.Init(fi.Name(), src)

			var buf bytes.Buffer
			for {
				v, err := s.Scan()
				require.NoError(t, err)
				if v.Kind == token.EOF {
					break
				}
				fmt.Fprintf(&buf, "%s %s\n", token.FormatPosition(token.PosShort, v), v)
			}
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateScannerTests)
		})
	}
}

func scanAll(t *testing.T, src string) []token.Value {
	t.Helper()
	var s scanner.Scanner
	s.Init("test.fx", []byte(src))
	var toks []token.Value
	for {
		v, err := s.Scan()
		require.NoError(t, err)
		toks = append(toks, v)
		if v.Kind == token.EOF {
			break
		}
	}
	return toks
}

func TestScanKeywordsAndIdents(t *testing.T) {
	toks := scanAll(t, "fn main var x")
	require.Len(t, toks, 5)
	assert.Equal(t, token.FN, toks[0].Kind)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "main", toks[1].Raw)
	assert.Equal(t, token.VAR, toks[2].Kind)
	assert.Equal(t, token.IDENT, toks[3].Kind)
}

func TestScanIntLiteral(t *testing.T) {
	toks := scanAll(t, "42")
	require.Len(t, toks, 2)
	assert.Equal(t, token.INT, toks[0].Kind)
	assert.EqualValues(t, 42, toks[0].Data)
}

func TestScanCharLiteralEscapes(t *testing.T) {
	toks := scanAll(t, `'a' '\n' '\0' '\x41'`)
	require.Len(t, toks, 5)
	assert.EqualValues(t, 'a', toks[0].Data)
	assert.EqualValues(t, '\n', toks[1].Data)
	assert.EqualValues(t, 0, toks[2].Data)
	assert.EqualValues(t, 0x41, toks[3].Data)
}

func TestScanOperatorsGreedy(t *testing.T) {
	toks := scanAll(t, "<= == != && || + - * / %")
	kinds := []token.Kind{
		token.LE, token.EQEQ, token.BANGEQ, token.ANDAND, token.OROR,
		token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
		token.EOF,
	}
	require.Len(t, toks, len(kinds))
	for i, k := range kinds {
		assert.Equal(t, k, toks[i].Kind, "token %d", i)
	}
}

func TestScanCommentsSkipped(t *testing.T) {
	toks := scanAll(t, "x # this is a comment\ny")
	require.Len(t, toks, 3)
	assert.Equal(t, "x", toks[0].Raw)
	assert.Equal(t, "y", toks[1].Raw)
}

func TestScanUnrecognizedCharacter(t *testing.T) {
	var s scanner.Scanner
	s.Init("test.fx", []byte("$"))
	_, err := s.Scan()
	require.Error(t, err)
	assert.ErrorIs(t, err.(*scanner.Error).Unwrap(), scanner.ErrUnrecognizedChar)
}

func TestScanUnterminatedCharLiteral(t *testing.T) {
	var s scanner.Scanner
	s.Init("test.fx", []byte("'ab"))
	_, err := s.Scan()
	require.Error(t, err)
}
