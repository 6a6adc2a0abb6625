// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

// Package server exposes the clustering filter and the stored runs over HTTP.
package server

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/serg-kovalev/go-dbscan-filter/cluster"
	"github.com/serg-kovalev/go-dbscan-filter/filter"
	"github.com/serg-kovalev/go-dbscan-filter/spatial"
	"github.com/serg-kovalev/go-dbscan-filter/store"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

var errStorageDisabled = errors.New("storage is not configured")

// Server serves the HTTP API. repo may be nil, in which case the endpoints
// that need storage answer 503.
type Server struct {
	repo store.RunRepository
}

func NewServer(repo store.RunRepository) *Server {
	return &Server{repo: repo}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	r.GET("/api/health", s.health)
	r.POST("/api/cluster", s.clusterPoints)
	r.GET("/api/cluster/stream", s.clusterStream)
	r.GET("/api/runs", s.listRuns)
	r.GET("/api/runs/:id", s.getRun)
	r.GET("/api/runs/:id/points", s.getRunPoints)

	return r
}

func (s *Server) Run(addr string) error {
	log.Printf("Listening on http://%s", addr)

	return s.Router().Run(addr)
}

func (s *Server) health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok", "storage": s.repo != nil})
}

type clusterRequest struct {
	Points    spatial.PointList `json:"points"`
	Eps       float64           `json:"eps"`
	MinPoints int               `json:"min_points"`
	H3Res     *int              `json:"h3_res"`
	Save      bool              `json:"save"`
	Source    string            `json:"source"`
}

type clusterView struct {
	cluster.Summary
	Points []int `json:"points"`
}

type clusterResponse struct {
	RunID    int64         `json:"run_id,omitempty"`
	Clusters []clusterView `json:"clusters"`
	Noise    []int         `json:"noise"`
	Labels   []int         `json:"labels"`
	Filtered []int         `json:"filtered"`
}

func (s *Server) clusterPoints(ctx *gin.Context) {
	var req clusterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	resp, status, err := s.process(&req, nil)
	if err != nil {
		ctx.JSON(status, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, resp)
}

// process clusters the points of req and stores the run when asked to. On
// failure it returns the HTTP status matching the error.
func (s *Server) process(req *clusterRequest, progress func(visited int)) (*clusterResponse, int, error) {
	if req.Save && s.repo == nil {
		return nil, http.StatusServiceUnavailable, errStorageDisabled
	}

	opts := &filter.Options{
		Eps:          req.Eps,
		MinPoints:    req.MinPoints,
		H3Resolution: filter.DefaultH3Resolution,
		Source:       req.Source,
	}
	if req.H3Res != nil {
		opts.H3Resolution = *req.H3Res
	}

	if opts.Source == "" {
		opts.Source = "api"
	}

	res, err := filter.Process(req.Points, opts, progress)
	if err != nil {
		if filter.IsValidationError(err) || errors.Is(err, filter.ErrNoPoints) {
			return nil, http.StatusBadRequest, err
		}

		return nil, http.StatusInternalServerError, err
	}

	if req.Save {
		if err := filter.Save(s.repo, opts, res); err != nil {
			return nil, http.StatusInternalServerError, err
		}
	}

	resp := &clusterResponse{
		RunID:    res.RunID,
		Clusters: make([]clusterView, len(res.Clusters)),
		Noise:    res.Noise,
		Labels:   res.Labels,
		Filtered: res.Filtered,
	}
	if resp.Noise == nil {
		resp.Noise = []int{}
	}

	for i, c := range res.Clusters {
		resp.Clusters[i] = clusterView{Summary: res.Summaries[i], Points: c.Points}
	}

	return resp, http.StatusOK, nil
}

func (s *Server) requireRepo(ctx *gin.Context) bool {
	if s.repo == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": errStorageDisabled.Error()})

		return false
	}

	return true
}

func queryInt(ctx *gin.Context, name string, def int) (int, bool) {
	v := ctx.Query(name)
	if v == "" {
		return def, true
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " parameter"})

		return 0, false
	}

	return n, true
}

func (s *Server) listRuns(ctx *gin.Context) {
	if !s.requireRepo(ctx) {
		return
	}

	limit, ok := queryInt(ctx, "limit", defaultListLimit)
	if !ok {
		return
	}

	offset, ok := queryInt(ctx, "offset", 0)
	if !ok {
		return
	}

	runs, err := s.repo.ListRuns(min(limit, maxListLimit), offset)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if runs == nil {
		runs = []*store.Run{}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"runs":   runs,
		"limit":  limit,
		"offset": offset,
	})
}

// runParam loads the run named by the :id path parameter, answering the
// request itself on failure.
func (s *Server) runParam(ctx *gin.Context) (*store.Run, bool) {
	if !s.requireRepo(ctx) {
		return nil, false
	}

	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})

		return nil, false
	}

	run, err := s.repo.GetRun(id)
	if errors.Is(err, store.ErrRunNotFound) {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return nil, false
	}

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return nil, false
	}

	return run, true
}

func (s *Server) getRun(ctx *gin.Context) {
	run, ok := s.runParam(ctx)
	if !ok {
		return
	}

	clusters, err := s.repo.Clusters(run.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if clusters == nil {
		clusters = []cluster.Summary{}
	}

	ctx.JSON(http.StatusOK, gin.H{"run": run, "clusters": clusters})
}

func (s *Server) getRunPoints(ctx *gin.Context) {
	run, ok := s.runParam(ctx)
	if !ok {
		return
	}

	points, err := s.repo.Assignments(run.ID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if points == nil {
		points = []store.Assignment{}
	}

	ctx.JSON(http.StatusOK, gin.H{"run_id": run.ID, "points": points})
}
