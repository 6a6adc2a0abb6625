// Copyright 2025 The go-dbscan-filter Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const streamWriteWait = 10 * time.Second

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// streamMessage is sent by the stream endpoint. Type is "progress", "result"
// or "error".
type streamMessage struct {
	Type    string           `json:"type"`
	Visited int              `json:"visited,omitempty"`
	Total   int              `json:"total,omitempty"`
	Result  *clusterResponse `json:"result,omitempty"`
	Error   string           `json:"error,omitempty"`
	Status  int              `json:"status,omitempty"`
}

// clusterStream reads one clusterRequest from the websocket, reports the
// clustering progress about every percent of the points and ends with the
// result, or an error, before closing.
func (s *Server) clusterStream(ctx *gin.Context) {
	conn, err := streamUpgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	send := func(msg streamMessage) error {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))

		return conn.WriteJSON(msg)
	}

	var req clusterRequest
	if err := conn.ReadJSON(&req); err != nil {
		_ = send(streamMessage{Type: "error", Error: err.Error(), Status: http.StatusBadRequest})

		return
	}

	total := len(req.Points)
	step := max(1, total/100)

	var writeErr error

	progress := func(visited int) {
		if writeErr != nil || (visited%step != 0 && visited != total) {
			return
		}

		writeErr = send(streamMessage{Type: "progress", Visited: visited, Total: total})
	}

	resp, status, err := s.process(&req, progress)

	switch {
	case writeErr != nil:
		log.Printf("Stream client went away: %v", writeErr)

		return
	case err != nil:
		err = send(streamMessage{Type: "error", Error: err.Error(), Status: status})
	default:
		err = send(streamMessage{Type: "result", Result: resp})
	}

	if err != nil {
		log.Printf("Writing stream result: %v", err)

		return
	}

	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait),
	)
}
