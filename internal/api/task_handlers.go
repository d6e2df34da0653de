package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/finchley/taskchat/internal/store"
)

type taskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type taskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	filter, err := store.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "status must be one of: all, completed, incomplete")
		return
	}

	tasks, err := s.store.ListTasks(userID, filter)
	if err != nil {
		s.logger.Error("list tasks failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if tasks == nil {
		tasks = []*store.Task{}
	}

	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var req taskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	task, err := s.store.CreateTask(userID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, store.ErrValidation) {
			s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("create task failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	task, err := s.store.GetTask(userID, r.PathValue("task_id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("get task failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	var req taskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}

	task, err := s.store.UpdateTask(userID, r.PathValue("task_id"), store.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			s.errorResponse(w, http.StatusNotFound, "task not found")
		case errors.Is(err, store.ErrValidation):
			s.errorResponse(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("update task failed", "user", userID, "error", err)
			s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireOwner(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteTask(userID, r.PathValue("task_id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("delete task failed", "user", userID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
