package server

import "net/http"

// handleIslands handles GET /api/education/islands.
func (s *Server) handleIslands(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	islands, err := s.app.EducationService.Islands(r.Context())
	if err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteData(w, http.StatusOK, islands)
}

// handleProgress handles GET /api/education/progress.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	progress, err := s.app.EducationService.Progress(r.Context())
	if err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteData(w, http.StatusOK, progress)
}

type completeLessonRequest struct {
	LessonID string `json:"lesson_id"`
}

// handleCompleteLesson handles POST /api/education/complete.
func (s *Server) handleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req completeLessonRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.LessonID == "" {
		WriteError(w, http.StatusBadRequest, "lesson_id is required")
		return
	}

	progress, err := s.app.EducationService.CompleteLesson(r.Context(), req.LessonID)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteData(w, http.StatusOK, progress)
}
