package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/wonny/adpilot/internal/brain"
	"github.com/wonny/adpilot/internal/contracts"
	"github.com/wonny/adpilot/pkg/logger"
)

const maxBodyBytes = 1 << 20

var validate = validator.New()

// errNoResultStore is reported by the stored-result routes without a database
var errNoResultStore = errors.New("result store not configured")

// ResultStore persists and reads back engine output (snapshot.ResultRepository)
type ResultStore interface {
	SaveOptimization(ctx context.Context, result *contracts.OptimizationResult) error
	SaveAssessment(ctx context.Context, qa *contracts.QualityAssessment) error
	LatestOptimization(ctx context.Context, campaignID string) (*contracts.OptimizationResult, error)
}

// EngineHandler exposes the optimization engine over HTTP
// ⭐ SSOT: 엔진 API 핸들러는 이 구조체에서만
type EngineHandler struct {
	orchestrator *brain.Orchestrator
	store        ResultStore // nil = 저장 안 함
	logger       *logger.Logger
}

// NewEngineHandler creates a new engine handler; store may be nil
func NewEngineHandler(orch *brain.Orchestrator, store ResultStore, log *logger.Logger) *EngineHandler {
	return &EngineHandler{
		orchestrator: orch,
		store:        store,
		logger:       log.WithField("component", "api.engine"),
	}
}

// OptimizeRequest is the body of POST /api/optimize
type OptimizeRequest struct {
	Campaign  *contracts.CampaignInput `json:"campaign" validate:"required"`
	Goals     []string                 `json:"goals" validate:"max=16,dive,min=1,max=64"`
	AutoApply *bool                    `json:"auto_apply,omitempty"`
}

// QualityRequest is the body of POST /api/quality
type QualityRequest struct {
	Campaign *contracts.CampaignInput `json:"campaign" validate:"required"`
}

// Optimize runs the engine on a campaign supplied in the body
// POST /api/optimize
func (h *EngineHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result := h.orchestrator.Optimize(r.Context(), brain.Request{
		Campaign:  req.Campaign,
		Goals:     req.Goals,
		AutoApply: req.AutoApply,
	})
	h.saveOptimization(r.Context(), result)

	respondJSON(w, optimizeStatus(result), result)
}

// OptimizeCampaign runs the engine on the stored snapshot of a campaign
// GET /api/campaigns/{id}/optimize?goals=a,b&auto_apply=true
func (h *EngineHandler) OptimizeCampaign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	query := r.URL.Query()
	goals := splitGoals(query.Get("goals"))

	var autoApply *bool
	if raw := query.Get("auto_apply"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "auto_apply must be a boolean")
			return
		}
		autoApply = &v
	}

	result := h.orchestrator.OptimizeCampaign(r.Context(), id, goals, autoApply)
	h.saveOptimization(r.Context(), result)

	respondJSON(w, optimizeStatus(result), result)
}

// AssessQuality scores a campaign supplied in the body
// POST /api/quality
func (h *EngineHandler) AssessQuality(w http.ResponseWriter, r *http.Request) {
	var req QualityRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	qa := h.orchestrator.AssessQuality(r.Context(), req.Campaign)
	h.saveAssessment(r.Context(), qa)

	respondJSON(w, http.StatusOK, qa)
}

// AssessCampaign scores the stored snapshot of a campaign
// GET /api/campaigns/{id}/quality
func (h *EngineHandler) AssessCampaign(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	qa, err := h.orchestrator.AssessCampaign(r.Context(), id)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("campaign_id", id).Error("Failed to assess campaign")
		}
		respondError(w, status, err.Error())
		return
	}
	h.saveAssessment(r.Context(), qa)

	respondJSON(w, http.StatusOK, qa)
}

// LatestOptimization returns the most recent stored run of a campaign
// GET /api/campaigns/{id}/optimizations/latest
func (h *EngineHandler) LatestOptimization(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if h.store == nil {
		respondError(w, errorStatus(errNoResultStore), errNoResultStore.Error())
		return
	}

	result, err := h.store.LatestOptimization(r.Context(), id)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.WithError(err).WithField("campaign_id", id).Error("Failed to load optimization result")
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetStats returns the engine statistics
// GET /api/stats
func (h *EngineHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.orchestrator.Stats().Snapshot())
}

func (h *EngineHandler) saveOptimization(ctx context.Context, result *contracts.OptimizationResult) {
	if h.store == nil || result.Metadata.RunID == "" {
		return
	}
	// 저장 실패는 응답에 영향 없음
	if err := h.store.SaveOptimization(ctx, result); err != nil {
		h.logger.WithError(err).WithField("campaign_id", result.CampaignID).Warn("Failed to save optimization result")
	}
}

func (h *EngineHandler) saveAssessment(ctx context.Context, qa *contracts.QualityAssessment) {
	if h.store == nil || qa.CampaignID == "" {
		return
	}
	if err := h.store.SaveAssessment(ctx, qa); err != nil {
		h.logger.WithError(err).WithField("campaign_id", qa.CampaignID).Warn("Failed to save quality assessment")
	}
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validate.Struct(dest); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("%s failed on '%s'", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err.Error()
}

// optimizeStatus: 실패한 result 도 body 로 돌려줌
func optimizeStatus(result *contracts.OptimizationResult) int {
	if result.Success {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, brain.ErrMissingCampaignID):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrCampaignNotFound), errors.Is(err, contracts.ErrResultNotFound):
		return http.StatusNotFound
	case errors.Is(err, brain.ErrNoSnapshotProvider), errors.Is(err, errNoResultStore):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func splitGoals(raw string) []string {
	if raw == "" {
		return nil
	}
	var goals []string
	for _, g := range strings.Split(raw, ",") {
		if g = strings.TrimSpace(g); g != "" {
			goals = append(goals, g)
		}
	}
	return goals
}
