package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/codearena.net/internal/core/ports/primary"
	"gitlab.com/codearena.net/internal/core/services/submission"
	"gitlab.com/codearena.net/internal/domain"
	"gitlab.com/codearena.net/internal/handlers/response"
	"gitlab.com/codearena.net/internal/static/errs"
)

const maxCodeBytes = 256 << 10

// SubmissionHandler exposes run, submit and history endpoints
type SubmissionHandler struct {
	submissionService submission.ISubmissionService
	logger            primary.Logger
	// judgeTimeout bounds run and submit; zero leaves only the client's context
	judgeTimeout time.Duration
}

func NewSubmissionHandler(submissionService submission.ISubmissionService, logger primary.Logger, judgeTimeout time.Duration) *SubmissionHandler {
	return &SubmissionHandler{
		submissionService: submissionService,
		logger:            logger,
		judgeTimeout:      judgeTimeout,
	}
}

func (h *SubmissionHandler) judgeContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.judgeTimeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.judgeTimeout)
}

func (h *SubmissionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/problems/{problemId}/run", h.Run).Methods(http.MethodPost)
	router.HandleFunc("/api/problems/{problemId}/submissions", h.Submit).Methods(http.MethodPost)
	router.HandleFunc("/api/problems/{problemId}/submissions", h.History).Methods(http.MethodGet)
	router.HandleFunc("/api/submissions/{submissionId}", h.Details).Methods(http.MethodGet)
}

func (h *SubmissionHandler) decodeCode(w http.ResponseWriter, r *http.Request) (domain.Language, string, bool) {
	var req CodeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCodeBytes)).Decode(&req); err != nil {
		h.logger.Debug("Failed to decode request", "path", r.URL.Path, "error", err)
		response.WriteError(w, response.ErrorMessage{Message: "invalid request", StatusCode: http.StatusBadRequest})
		return "", "", false
	}

	language, ok := domain.ParseLanguage(req.Language)
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: %s", errs.ErrUnsupportedLanguage, req.Language))
		return "", "", false
	}
	return language, req.Code, true
}

// Run judges code against the visible test cases of a problem
func (h *SubmissionHandler) Run(w http.ResponseWriter, r *http.Request) {
	problemID := mux.Vars(r)["problemId"]
	language, code, ok := h.decodeCode(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.judgeContext(r)
	defer cancel()

	verdict, err := h.submissionService.Run(ctx, problemID, language, code)
	if err != nil {
		h.writeJudgeError(ctx, w, r, err)
		return
	}
	response.WriteSuccess(w, verdict)
}

// Submit stores and judges a submission against all test cases
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	problemID := mux.Vars(r)["problemId"]
	language, code, ok := h.decodeCode(w, r)
	if !ok {
		return
	}

	ctx, cancel := h.judgeContext(r)
	defer cancel()

	result, err := h.submissionService.Submit(ctx, problemID, language, code)
	if err != nil {
		h.writeJudgeError(ctx, w, r, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, result)
}

func (h *SubmissionHandler) History(w http.ResponseWriter, r *http.Request) {
	problemID := mux.Vars(r)["problemId"]

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.WriteError(w, response.ErrorMessage{Message: "invalid limit", StatusCode: http.StatusBadRequest})
			return
		}
		limit = parsed
	}

	items, err := h.submissionService.GetSubmissionHistory(r.Context(), problemID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.SubmissionSummary{}
	}
	response.WriteSuccess(w, HistoryResponse{Submissions: items})
}

func (h *SubmissionHandler) Details(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(mux.Vars(r)["submissionId"])
	if err != nil {
		// a malformed id cannot exist
		h.writeError(w, r, errs.ErrSubmissionNotFound)
		return
	}

	sub, err := h.submissionService.GetSubmissionDetails(r.Context(), submissionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.WriteSuccess(w, sub)
}

// writeJudgeError reports a judging deadline as a timeout instead of a generic failure
func (h *SubmissionHandler) writeJudgeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && r.Context().Err() == nil {
		err = fmt.Errorf("%w: %w", errs.ErrJudgingTimeout, err)
	}
	h.writeError(w, r, err)
}

func (h *SubmissionHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	msg := response.FromError(err)
	if msg.StatusCode >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
	} else if !errors.Is(err, errs.ErrUnauthenticated) {
		h.logger.Debug("Request rejected", "path", r.URL.Path, "error", err)
	}
	response.WriteError(w, msg)
}
