package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/graphlapse/graphlapse/pkg/engine"
	"github.com/graphlapse/graphlapse/pkg/logging"
	"github.com/graphlapse/graphlapse/pkg/statestore"
	"github.com/graphlapse/graphlapse/pkg/stream"
	"github.com/graphlapse/graphlapse/pkg/validation"
)

// handleCreateSession registers a session. The caller may pick its own ID;
// otherwise one is generated. Creating a session that already exists is a
// conflict.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	if err := validation.ValidateSessionID(sessionID); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.store.Load(r.Context(), sessionID); err == nil {
		s.respondError(w, http.StatusConflict, "session already exists")
		return
	} else if !errors.Is(err, statestore.ErrNotFound) {
		s.logger.Error("session lookup failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	// An empty state blob registers the session; the first frame is a cold
	// start either way.
	if err := s.store.Save(r.Context(), sessionID, nil); err != nil {
		s.logger.Error("session create failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	s.logger.Info("session created", logging.String("session_id", sessionID))
	s.respondJSON(w, http.StatusCreated, createSessionResponse{SessionID: sessionID})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("session list failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	sessions := make([]sessionInfo, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, sessionInfo{SessionID: id, Frames: s.frameSeq(id)})
	}
	s.respondJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.store.Load(r.Context(), sessionID); err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("session lookup failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	s.respondJSON(w, http.StatusOK, sessionInfo{SessionID: sessionID, Frames: s.frameSeq(sessionID)})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Backend deletes are idempotent, so absence is checked up front to
	// give callers a 404.
	if _, err := s.store.Load(r.Context(), sessionID); err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("session lookup failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	if err := s.store.Delete(r.Context(), sessionID); err != nil {
		s.logger.Error("session delete failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	s.mu.Lock()
	delete(s.frameSeqs, sessionID)
	s.mu.Unlock()
	s.sessionLocks.Delete(sessionID)

	s.logger.Info("session deleted", logging.String("session_id", sessionID))
	s.respondJSON(w, http.StatusNoContent, nil)
}

// handleSessionFrame computes one frame inside a session. The previous
// frame's state is loaded from the store, so clients only send the graph;
// the resulting state is saved back and the frame is broadcast to watchers.
func (s *Server) handleSessionFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if err := validation.ValidateSessionID(sessionID); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req validation.FrameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	// State is server-side in session mode; any client-supplied blob is
	// ignored.
	req.PreviousState = nil
	if err := validation.ValidateFrameRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Frames within a session are strictly ordered: the whole
	// load-compute-save span holds the session lock.
	unlock := s.lockSession(sessionID)
	defer unlock()

	prevState, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, statestore.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Error("state load failed", logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	out, err := s.engine.ComputeFrame(engine.Input{
		NodeIDs:       req.NodeIDs,
		Adjacency:     req.Adjacency,
		PreviousState: prevState,
		Strategy:      req.Strategy,
		Options:       req.Options,
	})
	if err != nil {
		if errors.Is(err, engine.ErrInvalidStrategy) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("frame computation failed",
			logging.String("session_id", sessionID), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "frame computation failed")
		return
	}

	if err := s.store.Save(r.Context(), sessionID, out.Metadata.State); err != nil {
		s.logger.Error("state save failed",
			logging.String("session_id", sessionID), logging.Error(err))
		s.respondError(w, http.StatusInternalServerError, "state store unavailable")
		return
	}

	frame := s.nextFrameSeq(sessionID)
	s.broadcast(&stream.FrameEvent{SessionID: sessionID, Frame: frame, Output: out})

	s.logger.Info("frame computed",
		logging.String("session_id", sessionID),
		logging.Frame(frame),
		logging.Strategy(out.Metadata.Strategy),
		logging.Count(out.Metadata.NodeCount),
		logging.Latency(out.Metadata.Duration))

	s.respondJSON(w, http.StatusOK, out)
}

func (s *Server) broadcast(event *stream.FrameEvent) {
	if s.broker != nil {
		s.broker.Publish(event)
	}
	if s.publisher != nil {
		err := s.publisher.Publish(event)
		if err != nil {
			s.logger.Warn("frame publish failed",
				logging.String("session_id", event.SessionID), logging.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordPublish(err)
		}
	}
}

// lockSession acquires the per-session mutex and returns its unlock func.
func (s *Server) lockSession(sessionID string) func() {
	v, _ := s.sessionLocks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func (s *Server) frameSeq(sessionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameSeqs[sessionID]
}

func (s *Server) nextFrameSeq(sessionID string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	seq := s.frameSeqs[sessionID]
	s.frameSeqs[sessionID] = seq + 1
	return seq
}
