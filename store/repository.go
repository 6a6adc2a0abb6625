// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/serg-kovalev/go-dbscan-filter/cluster"
	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/uber/h3-go/v4"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

// Run describes a stored clustering run.
type Run struct {
	ID          int64     `json:"id"`
	Source      string    `json:"source"`
	EpsKm       float64   `json:"eps_km"`
	MinPoints   int       `json:"min_points"`
	NumPoints   int       `json:"num_points"`
	NumClusters int       `json:"num_clusters"`
	NumNoise    int       `json:"num_noise"`
	H3Res       int       `json:"h3_res"`
	CreatedAt   time.Time `json:"created_at"`
}

// Assignment is the outcome of a run for a single point.
type Assignment struct {
	PointID int           `json:"point_id"`
	Point   spatial.Point `json:"point"`
	// Label is the cluster id, or -1 for outliers.
	Label int `json:"label"`
	// IsNoise is set when the point was below the density threshold when
	// first visited, even if it was later absorbed into a cluster.
	IsNoise bool  `json:"is_noise"`
	H3Cell  int64 `json:"h3_cell"`
}

// RunRepository handles persistence of clustering runs.
type RunRepository interface {
	// CreateSchema creates the runs, run_points and run_clusters tables
	CreateSchema() error

	// SaveRun stores a run with its points, their labels, the noise log and
	// the cluster summaries. It fills run.ID, run.CreatedAt and the counters.
	SaveRun(run *Run, points spatial.PointList, labels, noise []int, summaries []cluster.Summary) error

	// GetRun returns a run by id, or ErrRunNotFound
	GetRun(id int64) (*Run, error)

	// ListRuns returns runs, newest first
	ListRuns(limit, offset int) ([]*Run, error)

	// Assignments returns the points of a run in input order
	Assignments(runID int64) ([]Assignment, error)

	// Clusters returns the cluster summaries of a run ordered by cluster id
	Clusters(runID int64) ([]cluster.Summary, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlRunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB) RunRepository {
	return &sqlRunRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlRunRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRunRepository) CreateSchema() error {
	_, err := r.db.Exec(`
		CREATE SEQUENCE IF NOT EXISTS runs_seq START 1;

		CREATE TABLE IF NOT EXISTS runs (
			id BIGINT PRIMARY KEY DEFAULT nextval('runs_seq'),
			source VARCHAR NOT NULL,
			eps_km DOUBLE NOT NULL,
			min_points INTEGER NOT NULL,
			num_points INTEGER NOT NULL,
			num_clusters INTEGER NOT NULL,
			num_noise INTEGER NOT NULL,
			h3_res INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS run_points (
			run_id BIGINT NOT NULL,
			point_id INTEGER NOT NULL,
			lng DOUBLE NOT NULL,
			lat DOUBLE NOT NULL,
			label INTEGER NOT NULL,
			is_noise BOOLEAN NOT NULL,
			h3_cell BIGINT NOT NULL,
			PRIMARY KEY (run_id, point_id)
		);

		CREATE TABLE IF NOT EXISTS run_clusters (
			run_id BIGINT NOT NULL,
			cluster_id INTEGER NOT NULL,
			size INTEGER NOT NULL,
			center_lng DOUBLE NOT NULL,
			center_lat DOUBLE NOT NULL,
			min_lng DOUBLE NOT NULL,
			min_lat DOUBLE NOT NULL,
			max_lng DOUBLE NOT NULL,
			max_lat DOUBLE NOT NULL,
			h3_cell BIGINT NOT NULL,
			PRIMARY KEY (run_id, cluster_id)
		);
	`)

	return err
}

func (r *sqlRunRepository) SaveRun(
	run *Run,
	points spatial.PointList,
	labels, noise []int,
	summaries []cluster.Summary,
) error {
	if len(labels) != len(points) {
		return fmt.Errorf("got %d labels for %d points", len(labels), len(points))
	}

	isNoise := make([]bool, len(points))
	for _, i := range noise {
		isNoise[i] = true
	}

	run.NumPoints = len(points)
	run.NumClusters = len(summaries)
	run.NumNoise = len(noise)
	run.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}

	rollback := func(err error) error {
		if rErr := tx.Rollback(); rErr != nil {
			return errors.Join(err, rErr)
		}

		return err
	}

	err = tx.QueryRow(`
		INSERT INTO runs(source, eps_km, min_points, num_points, num_clusters, num_noise, h3_res, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`,
		run.Source,
		run.EpsKm,
		run.MinPoints,
		run.NumPoints,
		run.NumClusters,
		run.NumNoise,
		run.H3Res,
		run.CreatedAt,
	).Scan(&run.ID)
	if err != nil {
		return rollback(fmt.Errorf("inserting run: %w", err))
	}

	if err := insertPoints(tx, run, points, labels, isNoise); err != nil {
		return rollback(err)
	}

	if err := insertClusters(tx, run.ID, summaries); err != nil {
		return rollback(err)
	}

	return tx.Commit()
}

func insertPoints(tx *sql.Tx, run *Run, points spatial.PointList, labels []int, isNoise []bool) error {
	stmt, err := tx.Prepare(`
		INSERT INTO run_points(run_id, point_id, lng, lat, label, is_noise, h3_cell)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, pt := range points {
		cell, err := h3.LatLngToCell(h3.NewLatLng(pt.Lat(), pt.Lng()), run.H3Res)
		if err != nil {
			return fmt.Errorf("error converting point %d to h3 cell at res %d: %w", i, run.H3Res, err)
		}

		if _, err := stmt.Exec(run.ID, i, pt.Lng(), pt.Lat(), labels[i], isNoise[i], int64(cell)); err != nil {
			return fmt.Errorf("inserting point %d: %w", i, err)
		}
	}

	return nil
}

func insertClusters(tx *sql.Tx, runID int64, summaries []cluster.Summary) error {
	stmt, err := tx.Prepare(`
		INSERT INTO run_clusters(
			run_id, cluster_id, size,
			center_lng, center_lat,
			min_lng, min_lat,
			max_lng, max_lat,
			h3_cell
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, err := stmt.Exec(
			runID, s.ID, s.Size,
			s.Center.Lng(), s.Center.Lat(),
			s.Min.Lng(), s.Min.Lat(),
			s.Max.Lng(), s.Max.Lat(),
			s.H3Cell,
		)
		if err != nil {
			return fmt.Errorf("inserting cluster %d: %w", s.ID, err)
		}
	}

	return nil
}

const runColumns = `id, source, eps_km, min_points, num_points, num_clusters, num_noise, h3_res, created_at`

func scanRun(row interface{ Scan(dest ...any) error }) (*Run, error) {
	run := &Run{}

	err := row.Scan(
		&run.ID,
		&run.Source,
		&run.EpsKm,
		&run.MinPoints,
		&run.NumPoints,
		&run.NumClusters,
		&run.NumNoise,
		&run.H3Res,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return run, nil
}

func (r *sqlRunRepository) GetRun(id int64) (*Run, error) {
	run, err := scanRun(r.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}

	return run, err
}

func (r *sqlRunRepository) ListRuns(limit, offset int) ([]*Run, error) {
	rows, err := r.db.Query(`SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*Run

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}

		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (r *sqlRunRepository) Assignments(runID int64) ([]Assignment, error) {
	rows, err := r.db.Query(`
		SELECT point_id, lng, lat, label, is_noise, h3_cell
		FROM run_points
		WHERE run_id = ?
		ORDER BY point_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []Assignment

	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.PointID, &a.Point[0], &a.Point[1], &a.Label, &a.IsNoise, &a.H3Cell); err != nil {
			return nil, err
		}

		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (r *sqlRunRepository) Clusters(runID int64) ([]cluster.Summary, error) {
	rows, err := r.db.Query(`
		SELECT cluster_id, size, center_lng, center_lat, min_lng, min_lat, max_lng, max_lat, h3_cell
		FROM run_clusters
		WHERE run_id = ?
		ORDER BY cluster_id
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []cluster.Summary

	for rows.Next() {
		var s cluster.Summary

		err := rows.Scan(
			&s.ID, &s.Size,
			&s.Center[0], &s.Center[1],
			&s.Min[0], &s.Min[1],
			&s.Max[0], &s.Max[1],
			&s.H3Cell,
		)
		if err != nil {
			return nil, err
		}

		summaries = append(summaries, s)
	}

	return summaries, rows.Err()
}
