package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"

	"github.com/eslsoft/finquest/internal/adapter/mapping"
	"github.com/eslsoft/finquest/internal/entity"
	"github.com/eslsoft/finquest/internal/repository"
	"github.com/eslsoft/finquest/internal/usecase"
)

const maxBodyBytes = 1 << 20

// errBadRequest marks malformed requests that never reached a usecase.
var errBadRequest = errors.New("bad request")

// Handler serves the JSON API over the content and progression usecases.
type Handler struct {
	content  usecase.ContentUsecase
	progress usecase.ProgressionUsecase
	logger   logrus.FieldLogger
}

// NewHandler constructs the API handler.
func NewHandler(content usecase.ContentUsecase, progress usecase.ProgressionUsecase, logger logrus.FieldLogger) *Handler {
	return &Handler{content: content, progress: progress, logger: logger}
}

type route struct {
	method  string
	pattern string
	handle  runtime.HandlerFunc
}

func (h *Handler) routes() []route {
	return []route{
		{http.MethodGet, "/api/stages", h.listStages},
		{http.MethodGet, "/api/stages/{stage_id}", h.getStage},
		{http.MethodGet, "/api/stages/{stage_id}/lessons/{lesson_id}", h.getLesson},

		{http.MethodGet, "/api/users/{user_id}/progress", h.getProgress},
		{http.MethodDelete, "/api/users/{user_id}/progress", h.resetProgress},
		{http.MethodPost, "/api/users/{user_id}/logins", h.recordLogin},
		{http.MethodPost, "/api/users/{user_id}/completions", h.completeLesson},
		{http.MethodPost, "/api/users/{user_id}/submissions", h.submitLesson},
		{http.MethodPost, "/api/users/{user_id}/xp", h.awardXP},
		{http.MethodGet, "/api/users/{user_id}/stages", h.stageStates},
		{http.MethodGet, "/api/users/{user_id}/stages/{stage_id}/lessons", h.lessonStates},
		{http.MethodGet, "/api/users/{user_id}/level", h.levelInfo},
		{http.MethodGet, "/api/users/{user_id}/badges", h.listBadges},
	}
}

// Register attaches every route to the gateway mux.
func (h *Handler) Register(mux *runtime.ServeMux) error {
	for _, r := range h.routes() {
		if err := mux.HandlePath(r.method, r.pattern, r.handle); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return nil
}

func (h *Handler) listStages(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	stages, err := h.content.ListStages(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stages)
}

func (h *Handler) getStage(w http.ResponseWriter, r *http.Request, params map[string]string) {
	stageID, err := intParam(params, "stage_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	stage, err := h.content.GetStage(r.Context(), stageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stage)
}

func (h *Handler) getLesson(w http.ResponseWriter, r *http.Request, params map[string]string) {
	stageID, err := intParam(params, "stage_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lessonID, err := intParam(params, "lesson_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	lesson, err := h.content.GetLesson(r.Context(), stageID, lessonID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lesson)
}

func (h *Handler) getProgress(w http.ResponseWriter, r *http.Request, params map[string]string) {
	record, err := h.progress.GetProgress(r.Context(), params["user_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) resetProgress(w http.ResponseWriter, r *http.Request, params map[string]string) {
	record, err := h.progress.ResetProgress(r.Context(), params["user_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (h *Handler) recordLogin(w http.ResponseWriter, r *http.Request, params map[string]string) {
	result, err := h.progress.RecordLogin(r.Context(), params["user_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.FromLoginResult(result))
}

func (h *Handler) completeLesson(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req mapping.CompleteLessonRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Score == nil {
		h.writeError(w, r, fmt.Errorf("%w: score is required", entity.ErrInvalidScore))
		return
	}
	result, err := h.progress.CompleteLesson(r.Context(), params["user_id"], req.StageID, req.LessonID, *req.Score)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.FromCompletionResult(result))
}

func (h *Handler) submitLesson(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req mapping.SubmitLessonRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.progress.SubmitLesson(r.Context(), params["user_id"], req.StageID, req.LessonID, req.Answers)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.FromCompletionResult(result))
}

func (h *Handler) awardXP(w http.ResponseWriter, r *http.Request, params map[string]string) {
	var req mapping.AwardXPRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	result, err := h.progress.AwardXP(r.Context(), params["user_id"], req.Amount)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.FromProgressResult(result))
}

func (h *Handler) stageStates(w http.ResponseWriter, r *http.Request, params map[string]string) {
	states, err := h.progress.GetStageStates(r.Context(), params["user_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.NewListResponse(states))
}

func (h *Handler) lessonStates(w http.ResponseWriter, r *http.Request, params map[string]string) {
	stageID, err := intParam(params, "stage_id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	states, err := h.progress.GetLessonStates(r.Context(), params["user_id"], stageID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.NewListResponse(states))
}

func (h *Handler) levelInfo(w http.ResponseWriter, r *http.Request, params map[string]string) {
	info, err := h.progress.GetLevelInfo(r.Context(), params["user_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) listBadges(w http.ResponseWriter, r *http.Request, params map[string]string) {
	q := r.URL.Query()
	query := &repository.ListBadgeQuery{
		FilterOrder: repository.FilterOrder{Filter: q.Get("filter"), OrderBy: q.Get("order_by")},
		UserID:      params["user_id"],
		Status:      repository.BadgeStatus(q.Get("status")),
	}
	badges, err := h.progress.ListBadges(r.Context(), query)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.progress.GetProgress(r.Context(), query.UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping.NewListResponse(mapping.ToBadgeViews(badges, record)))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusBadRequest
	body := mapping.ErrorResponse{
		Code:    int32(codes.InvalidArgument),
		Status:  codes.InvalidArgument.String(),
		Message: err.Error(),
	}
	if !errors.Is(err, errBadRequest) {
		code = mapping.HTTPStatus(err)
		body = mapping.ToErrorResponse(err)
	}
	entry := h.logger.WithError(err).WithFields(logrus.Fields{
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     code,
		"request_id": RequestIDFromContext(r.Context()),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", errBadRequest, err)
	}
	return nil
}

func intParam(params map[string]string, name string) (int, error) {
	v, err := strconv.Atoi(params[name])
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", errBadRequest, name)
	}
	return v, nil
}
