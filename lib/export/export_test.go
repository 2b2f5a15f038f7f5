package export

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const ratingsCSV = `Const,Your Rating,Date Rated,Title,URL,Title Type,IMDb Rating,Runtime (mins),Year,Genres,Num Votes,Release Date,Directors
tt0111161,10,2024-01-02,The Shawshank Redemption,https://www.imdb.com/title/tt0111161/,Movie,9.3,142,1994,Drama,2900000,1994-09-23,Frank Darabont
tt0068646,9,2024-02-14,The Godfather,https://www.imdb.com/title/tt0068646/,Movie,9.2,175,1972,"Crime, Drama",2000000,1972-03-14,Francis Ford Coppola
`

func TestParseCSV(t *testing.T) {
	e, err := ParseCSV(strings.NewReader(ratingsCSV))
	require.NoError(t, err)
	require.Equal(t, 13, len(e.Header))
	require.Equal(t, "Const", e.Header[0])
	require.Equal(t, 2, len(e.Rows))
	require.Equal(t, "Crime, Drama", e.Rows[1][9])
}

func TestParseCSVEmptyHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.ErrorIs(t, err, ErrEmptyHeader)
}

func TestParseCSVRaggedRow(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b,c\n1,2\n"))
	require.Error(t, err)
}

func TestProject(t *testing.T) {
	e, err := ParseCSV(strings.NewReader(ratingsCSV))
	require.NoError(t, err)

	projected, err := e.Project([]string{"Num Votes", "IMDb Rating", "Release Date"})
	require.NoError(t, err)

	expected := []string{
		"Const", "Your Rating", "Date Rated", "Title", "URL",
		"Title Type", "Runtime (mins)", "Year", "Genres", "Directors",
	}
	diff := cmp.Diff(expected, projected.Header)
	if diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, 2, len(projected.Rows))
	for _, row := range projected.Rows {
		require.Equal(t, len(projected.Header), len(row))
	}
	require.Equal(t, "tt0111161", projected.Rows[0][0])
	require.Equal(t, "Frank Darabont", projected.Rows[0][9])

	// the source export is untouched
	require.Equal(t, 13, len(e.Header))
}

func TestProjectNothing(t *testing.T) {
	e, err := ParseCSV(strings.NewReader(ratingsCSV))
	require.NoError(t, err)

	projected, err := e.Project(nil)
	require.NoError(t, err)
	diff := cmp.Diff(e, projected)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestProjectUnknownColumn(t *testing.T) {
	e, err := ParseCSV(strings.NewReader(ratingsCSV))
	require.NoError(t, err)

	_, err = e.Project([]string{"Num Votes", "No Such Column"})
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
	require.Equal(t, "No Such Column", colErr.Column)
}

func TestColumnValues(t *testing.T) {
	e, err := ParseCSV(strings.NewReader(ratingsCSV))
	require.NoError(t, err)

	ids, err := e.ColumnValues("Const")
	require.NoError(t, err)
	require.Equal(t, []string{"tt0111161", "tt0068646"}, ids)

	_, err = e.ColumnValues("Nope")
	var colErr *ColumnError
	require.True(t, errors.As(err, &colErr))
}

func TestOutdated(t *testing.T) {
	base := Export{
		Header: []string{"Const", "Your Rating", "Title"},
		Rows: [][]string{
			{"tt0111161", "9", "The Shawshank Redemption"},
			{"tt0068646", "9", "The Godfather"},
		},
	}

	testCases := []struct {
		name      string
		previous  *Export
		candidate Export
		outdated  bool
	}{
		{
			name:      "no previous snapshot",
			previous:  nil,
			candidate: base,
			outdated:  true,
		},
		{
			name:      "identical",
			previous:  &base,
			candidate: base,
			outdated:  false,
		},
		{
			name:     "single cell changed",
			previous: &base,
			candidate: Export{
				Header: base.Header,
				Rows: [][]string{
					{"tt0111161", "10", "The Shawshank Redemption"},
					{"tt0068646", "9", "The Godfather"},
				},
			},
			outdated: true,
		},
		{
			name:     "row added",
			previous: &base,
			candidate: Export{
				Header: base.Header,
				Rows: append(append([][]string{}, base.Rows...),
					[]string{"tt0468569", "9", "The Dark Knight"}),
			},
			outdated: true,
		},
		{
			name:     "rows reordered",
			previous: &base,
			candidate: Export{
				Header: base.Header,
				Rows:   [][]string{base.Rows[1], base.Rows[0]},
			},
			outdated: true,
		},
		{
			name:     "header renamed",
			previous: &base,
			candidate: Export{
				Header: []string{"Const", "Rating", "Title"},
				Rows:   base.Rows,
			},
			outdated: true,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			require.Equal(t, test.outdated, Outdated(test.previous, test.candidate))
		})
	}
}

// A rating bumped from 9 to 10 must flip the comparator even though the
// row count and title set are unchanged.
func TestOutdatedRatingBump(t *testing.T) {
	previous := Export{
		Header: []string{"Const", "Your Rating"},
		Rows:   [][]string{{"tt0133093", "9"}},
	}
	candidate := Export{
		Header: []string{"Const", "Your Rating"},
		Rows:   [][]string{{"tt0133093", "10"}},
	}
	require.True(t, Outdated(&previous, candidate))
	require.False(t, Outdated(&previous, previous))
}
