package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalDeterministic(t *testing.T) {
	e := Export{
		Header: []string{"Const", "Title", "Genres"},
		Rows: [][]string{
			{"tt0111161", "The Shawshank Redemption", "Drama"},
			{"tt0068646", "The Godfather", "Crime, Drama"},
		},
	}

	first, err := Marshal(e)
	require.NoError(t, err)
	second, err := Marshal(e)
	require.NoError(t, err)
	require.Equal(t, first, second)

	expected := "Const,Title,Genres\n" +
		"tt0111161,The Shawshank Redemption,Drama\n" +
		"tt0068646,The Godfather,\"Crime, Drama\"\n"
	require.Equal(t, expected, string(first))
}

func TestMarshalRejectsRaggedRows(t *testing.T) {
	e := Export{
		Header: []string{"Const", "Title"},
		Rows:   [][]string{{"tt0111161"}},
	}
	_, err := Marshal(e)
	require.Error(t, err)

	_, err = Marshal(Export{})
	require.ErrorIs(t, err, ErrEmptyHeader)
}

func TestDigest(t *testing.T) {
	a := Export{
		Header: []string{"Const", "Your Rating"},
		Rows:   [][]string{{"tt0133093", "9"}},
	}
	b := Export{
		Header: []string{"Const", "Your Rating"},
		Rows:   [][]string{{"tt0133093", "10"}},
	}

	digestA, err := Digest(a)
	require.NoError(t, err)
	digestA2, err := Digest(a)
	require.NoError(t, err)
	digestB, err := Digest(b)
	require.NoError(t, err)

	require.Equal(t, digestA, digestA2)
	require.NotEqual(t, digestA, digestB)
	require.Len(t, digestA, 64)
}

func TestSnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")

	previous, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.Nil(t, previous)

	e := Export{
		Header: []string{"Const", "Title"},
		Rows: [][]string{
			{"tt0111161", "The Shawshank Redemption"},
			{"tt0068646", "The Godfather"},
		},
	}
	err = WriteSnapshot(path, e)
	require.NoError(t, err)

	loaded, err := ReadSnapshot(path)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.False(t, Outdated(loaded, e))

	// rewriting the same export leaves the file byte-identical
	before, err := os.ReadFile(path)
	require.NoError(t, err)
	err = WriteSnapshot(path, *loaded)
	require.NoError(t, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestReadSnapshotCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings.csv")
	err := os.WriteFile(path, []byte("a,b\n1,2,3\n"), 0644)
	require.NoError(t, err)

	_, err = ReadSnapshot(path)
	require.Error(t, err)
}
