package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/tile"
)

func TestSynthGrid(t *testing.T) {
	flat := synthGrid("flat", 1200, 5000)
	for _, v := range flat {
		require.Equal(t, uint16(1200), v)
	}

	cone := synthGrid("cone", 1000, 3000)
	require.Equal(t, uint16(1000), cone[0], "corner is outside the cone")
	require.InDelta(t, 3000, float64(cone[128*formats.GridSize+128]), 20)

	elv := formats.ElevationFromGrid(cone)
	require.Equal(t, uint16(1000), elv.Min())
	require.InDelta(t, 3000, float64(elv.Max()), 20)
}

func TestWriteAndSummarize(t *testing.T) {
	dir := t.TempDir()
	grid := synthGrid("cone", 500, 2500)

	for _, zipped := range []bool{false, true} {
		name := "2880W1056N"
		if zipped {
			name = "2879W1056N"
		}

		path, err := writeSynthTile(dir, name, grid, zipped)
		require.NoError(t, err)
		require.FileExists(t, path)

		summary, err := summarize(path)
		require.NoError(t, err)
		require.Equal(t, name, summary.Name)
		require.Equal(t, uint16(500), summary.Min)
		require.Equal(t, formats.ElevationFromGrid(grid).Max(), summary.Max)
		require.InDelta(t, tile.Size, summary.Right-summary.Left, 1e-12)
		require.InDelta(t, 44.0, summary.Top, 1e-9)
	}
}

func TestSummarizeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := summarize(filepath.Join(dir, "1E1N.elv"))
	require.ErrorIs(t, err, tile.ErrTileNotFound)

	bad := filepath.Join(dir, "2E1N.elv")
	require.NoError(t, os.WriteFile(bad, []byte{0xff}, 0644))
	_, err = summarize(bad)
	require.ErrorIs(t, err, formats.ErrTruncatedElevationData)
}
