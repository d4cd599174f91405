package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Comcast/sweep/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIncomplete(t *testing.T) {
	for src, want := range map[string]bool{
		`(+ 1 2)`:            false,
		`(+ 1`:               true,
		`(message "hi`:       true,
		`'`:                  true,
		`)`:                  false,
		`(a) (b`:             true,
		`"done" ; comment (`: false,
	} {
		if got := incomplete(src); got != want {
			t.Fatalf("incomplete(%q) = %v", src, got)
		}
	}
}

func TestAnalyze(t *testing.T) {
	cfg = config.Default()
	logger = zap.NewNop()

	dir := t.TempDir()
	filename := filepath.Join(dir, "prog.pl")
	err := os.WriteFile(filename, []byte("a :- b, c.\nb.\n"), 0644)
	require.NoError(t, err)

	a, err := analyze([]string{filename})
	require.NoError(t, err)

	var preds []string
	for _, info := range a.Predicates {
		preds = append(preds, info.Indicator)
	}
	require.Equal(t, []string{"a/0", "b/0"}, preds)
	require.Equal(t, []string{"c/0"}, a.Undefined)
}

func TestOutputFile(t *testing.T) {
	outFile = filepath.Join(t.TempDir(), "out.txt")
	defer func() { outFile = "" }()

	err := output(func(w io.Writer) error {
		_, err := w.Write([]byte("graph LR\n"))
		return err
	})
	require.NoError(t, err)

	bs, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t, "graph LR\n", string(bs))
}
