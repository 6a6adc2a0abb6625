// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"bytes"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/serg-kovalev/go-dbscan-filter/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = `latitude,longitude
40.7128,-74.0060
40.7130,-74.0062
40.7132,-74.0064
40.7500,-73.9900
40.7502,-73.9902
40.7504,-73.9904
40.8000,-73.9500
41.0000,-74.0000
`

func writeInput(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test_points.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func testOptions(input string) *Options {
	opts := DefaultOptions()
	opts.Input = input

	return opts
}

func TestRun(t *testing.T) {
	opts := testOptions(writeInput(t, testCSV))

	var stdout bytes.Buffer

	res, err := Run(opts, &stdout)
	require.NoError(t, err)

	assert.Len(t, res.Points, 8)
	require.Len(t, res.Clusters, 2)
	assert.Equal(t, []int{6, 7}, res.Noise)
	assert.Equal(t, []int{0, 0, 0, 1, 1, 1, -1, -1}, res.Labels)
	assert.Equal(t, []int{0, 3, 6, 7}, res.Filtered)
	assert.Len(t, res.Summaries, 2)
	assert.Zero(t, res.RunID)

	// Every outlier and the first point of every cluster are kept.
	for _, i := range res.Noise {
		assert.Contains(t, res.Filtered, i)
	}

	for _, c := range res.Clusters {
		assert.Contains(t, res.Filtered, c.Points[0])
	}

	assert.Equal(t, "40.7128,-74.0060\n40.7500,-73.9900\n40.8000,-73.9500\n41.0000,-74.0000\n", stdout.String())
}

func TestRunOutputFile(t *testing.T) {
	opts := testOptions(writeInput(t, testCSV))
	opts.Output = filepath.Join(t.TempDir(), "filtered.csv")
	opts.Debug = true

	var stdout bytes.Buffer

	_, err := Run(opts, &stdout)
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	out, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, "latitude,longitude\n40.7128,-74.0060\n40.7500,-73.9900\n40.8000,-73.9500\n41.0000,-74.0000\n", string(out))
}

func TestRunKeepsRowsAfterSkippedOnes(t *testing.T) {
	input := "lat,lon,name\n10,20,a\nbroken,row,b\n50,60,c\n"
	opts := testOptions(writeInput(t, input))
	opts.Output = filepath.Join(t.TempDir(), "filtered.csv")
	opts.MinPoints = 2

	res, err := Run(opts, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, res.Filtered)

	out, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Equal(t, "lat,lon,name\n10,20,a\n50,60,c\n", string(out))
}

func TestRunNoPoints(t *testing.T) {
	opts := testOptions(writeInput(t, "latitude,longitude\nfoo,bar\n"))

	_, err := Run(opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestRunMissingInput(t *testing.T) {
	opts := testOptions(filepath.Join(t.TempDir(), "missing.csv"))

	_, err := Run(opts, &bytes.Buffer{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	opts.Input = ""
	_, err = Run(opts, &bytes.Buffer{})
	assert.True(t, IsValidationError(err))
}

func TestRunInvalidOptions(t *testing.T) {
	opts := testOptions(writeInput(t, testCSV))
	opts.Eps = 0

	_, err := Run(opts, &bytes.Buffer{})
	assert.True(t, IsValidationError(err))
}

func TestRunStoresRun(t *testing.T) {
	opts := testOptions(writeInput(t, testCSV))
	opts.DbPath = filepath.Join(t.TempDir(), "db", "runs.duckdb")
	opts.Source = "nyc"

	res, err := Run(opts, &bytes.Buffer{})
	require.NoError(t, err)
	require.Positive(t, res.RunID)

	db, err := store.Open(opts.DbPath)
	require.NoError(t, err)
	defer db.Close()

	repo := store.NewRunRepository(db)

	run, err := repo.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "nyc", run.Source)
	assert.Equal(t, 8, run.NumPoints)
	assert.Equal(t, 2, run.NumClusters)
	assert.Equal(t, 2, run.NumNoise)

	summaries, err := repo.Clusters(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, res.Summaries, summaries)
}

func TestProcess(t *testing.T) {
	points := spatial.PointList{{30.244759, 59.955982}, {30.24472, 59.955975}, {30.244358, 59.96698}}
	opts := DefaultOptions()
	opts.Eps = 0.8
	opts.MinPoints = 2

	var visited []int

	res, err := Process(points, opts, func(n int) { visited = append(visited, n) })
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, visited)
	assert.Equal(t, []int{0, 0, -1}, res.Labels)
	assert.Equal(t, []int{0, 2}, res.Filtered)
	assert.True(t, slices.Equal(res.Noise, []int{2}))
}

func TestProcessErrors(t *testing.T) {
	opts := DefaultOptions()

	_, err := Process(nil, opts, nil)
	assert.ErrorIs(t, err, ErrNoPoints)

	_, err = Process(spatial.PointList{{0, 0}, {200, 0}}, opts, nil)
	assert.True(t, IsValidationError(err))

	opts.MinPoints = 0
	_, err = Process(spatial.PointList{{0, 0}}, opts, nil)
	assert.True(t, IsValidationError(err))
}

func TestSave(t *testing.T) {
	db, err := store.Open("")
	require.NoError(t, err)
	defer db.Close()

	repo := store.NewRunRepository(db)
	require.NoError(t, repo.CreateSchema())

	opts := testOptions("input.csv")

	res, err := Process(spatial.PointList{{0, 0}, {0, 0}, {0, 0}, {1, 1}}, opts, nil)
	require.NoError(t, err)
	require.NoError(t, Save(repo, opts, res))

	run, err := repo.GetRun(res.RunID)
	require.NoError(t, err)
	assert.Equal(t, "input.csv", run.Source)

	assignments, err := repo.Assignments(res.RunID)
	require.NoError(t, err)
	require.Len(t, assignments, 4)
	assert.Equal(t, Outlier, assignments[3].Label)
	assert.True(t, assignments[3].IsNoise)
}
