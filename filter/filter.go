// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

// Package filter thins out a set of geographic points with DBSCAN: every
// outlier is kept, while each dense group is reduced to its first point.
package filter

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/serg-kovalev/go-dbscan-filter/cluster"
	"github.com/serg-kovalev/go-dbscan-filter/dataset"
	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/serg-kovalev/go-dbscan-filter/store"
)

// Result holds the outcome of clustering a point list.
type Result struct {
	Points    spatial.PointList
	Clusters  []cluster.Cluster
	Noise     []int
	Labels    []int
	Filtered  []int
	Summaries []cluster.Summary
	// RunID is the id of the stored run, 0 when the run was not stored.
	RunID int64
}

// Process clusters points with the parameters in opts and derives the labels,
// the filtered indices and the cluster summaries. progress may be nil.
func Process(points spatial.PointList, opts *Options, progress func(visited int)) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if len(points) == 0 {
		return nil, ErrNoPoints
	}

	for i, pt := range points {
		if err := pt.Validate(); err != nil {
			return nil, &ValidationError{Field: fmt.Sprintf("point %d", i), Message: "out of range", Err: err}
		}
	}

	clusters, noise := cluster.DBScanWithProgress(points, opts.Eps, opts.MinPoints, progress)
	labels := BuildLabels(clusters, len(points))

	summaries, err := cluster.SummarizeAll(clusters, points, opts.H3Resolution)
	if err != nil {
		return nil, err
	}

	return &Result{
		Points:    points,
		Clusters:  clusters,
		Noise:     noise,
		Labels:    labels,
		Filtered:  FilterPoints(labels),
		Summaries: summaries,
	}, nil
}

// Save records res in repo and sets res.RunID.
func Save(repo store.RunRepository, opts *Options, res *Result) error {
	source := opts.Source
	if source == "" {
		source = opts.Input
	}

	run := &store.Run{
		Source:    source,
		EpsKm:     opts.Eps,
		MinPoints: opts.MinPoints,
		H3Res:     opts.H3Resolution,
	}

	if err := repo.SaveRun(run, res.Points, res.Labels, res.Noise, res.Summaries); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	res.RunID = run.ID

	return nil
}

// Run reads opts.Input, clusters its points and writes the filtered ones:
// full CSV records to opts.Output, or "lat,lon" lines to stdout when no
// output file is set. The run is recorded when opts.DbPath is set.
func Run(opts *Options, stdout io.Writer) (*Result, error) {
	if opts.Input == "" {
		return nil, &ValidationError{Field: "input", Message: "is required"}
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ds, err := dataset.ReadFile(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("reading points: %w", err)
	}

	if len(ds.Points) == 0 {
		return nil, fmt.Errorf("%s: %w", opts.Input, ErrNoPoints)
	}

	if opts.Debug {
		log.Printf("Read %d points from %s (%d rows skipped)", len(ds.Points), opts.Input, ds.Skipped)
		log.Printf("Running DBSCAN with eps=%.4f km, minPoints=%d", opts.Eps, opts.MinPoints)
	}

	progress, done := newProgress(len(ds.Points))

	res, err := Process(ds.Points, opts, progress)

	done()

	if err != nil {
		return nil, err
	}

	if opts.Debug {
		log.Printf("Found %d clusters", len(res.Clusters))
		log.Printf("Found %d noise points", len(res.Noise))
		log.Printf("Filtered to %d points", len(res.Filtered))
	}

	if opts.Output == "" {
		if err := dataset.WriteLatLon(stdout, ds, res.Filtered); err != nil {
			return nil, fmt.Errorf("writing to stdout: %w", err)
		}
	} else {
		if err := writeCSVFile(opts.Output, ds, res.Filtered); err != nil {
			return nil, fmt.Errorf("writing %s: %w", opts.Output, err)
		}

		if opts.Debug {
			log.Printf("Filtered points written to %s", opts.Output)
		}
	}

	if opts.DbPath != "" {
		if err := saveToPath(opts, res); err != nil {
			return nil, err
		}

		log.Printf("Stored run %d in %s", res.RunID, opts.DbPath)
	}

	return res, nil
}

func writeCSVFile(path string, ds *dataset.Dataset, indices []int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, f.Close())
	}()

	return dataset.WriteCSV(f, ds, indices)
}

func saveToPath(opts *Options, res *Result) error {
	db, err := store.Open(opts.DbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := store.NewRunRepository(db)
	if err := repo.CreateSchema(); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	return Save(repo, opts, res)
}

// newProgress returns a progress callback drawing a bar on stderr, and the
// function that clears it. Outside a terminal the callback is nil.
func newProgress(n int) (func(int), func()) {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Clustering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	progress := func(visited int) { _ = bar.Set(visited) }
	done := func() { _ = bar.Finish() }

	return progress, done
}
