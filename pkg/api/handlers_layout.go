package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/logging"
	"github.com/graphlapse/graphlapse/pkg/placement"
	"github.com/graphlapse/graphlapse/pkg/validation"
)

// handleComputeLayout computes one stateless frame: the caller threads the
// previous frame's state blob through the request body.
func (s *Server) handleComputeLayout(w http.ResponseWriter, r *http.Request) {
	var req validation.FrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := validation.ValidateFrameRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.engine.ComputeFrame(engine.Input{
		NodeIDs:       req.NodeIDs,
		Adjacency:     req.Adjacency,
		PreviousState: req.PreviousState,
		Strategy:      req.Strategy,
		Options:       req.Options,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidStrategy) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("frame computation failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "frame computation failed")
		return
	}

	s.respondJSON(w, http.StatusOK, out)
}

// handleStrategies lists the placement strategies the engine knows.
func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, strategiesResponse{
		Strategies: placement.Names(),
		Default:    placement.DefaultStrategy,
	})
}

// engineProbe computes a tiny fixed frame so health checks can tell whether
// the engine is responsive.
func (s *Server) engineProbe() (time.Duration, error) {
	start := time.Now()
	_, err := s.engine.ComputeFrame(engine.Input{
		NodeIDs:   []string{"probe-a", "probe-b"},
		Adjacency: map[string][]string{"probe-a": {"probe-b"}},
	})
	return time.Since(start), err
}
