package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openregistry/filings-api/internal/core/domain"
	"github.com/openregistry/filings-api/internal/core/usecase"
)

type ctxKey string

const (
	timeFormat             = "2006-01-02T15:04:05.999999999Z07:00"
	clientCtxKey    ctxKey = "client"
	apiActorCtxKey  ctxKey = "api_actor"
	maxJSONBodySize        = 1 << 20
)

type Handler struct {
	filingService *usecase.FilingService
	documents     *usecase.CoopDocumentService
	authService   *usecase.AuthService
}

func NewHandler(filingService *usecase.FilingService, documents *usecase.CoopDocumentService, authService *usecase.AuthService) *Handler {
	return &Handler{filingService: filingService, documents: documents, authService: authService}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", h.healthz)
	r.Get("/openapi.json", h.openapi)

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Put("/v1/businesses/{identifier}", h.upsertBusiness)
		pr.Get("/v1/businesses/{identifier}", h.getBusiness)
		pr.Post("/v1/businesses/{identifier}/filings", h.submitFiling)
		pr.Get("/v1/businesses/{identifier}/filings", h.listFilings)
		pr.Get("/v1/filings/{id}", h.getFiling)
		pr.Patch("/v1/filings/{id}/status", h.updateFilingStatus)
		pr.Get("/v1/filings/{id}/documents", h.listFilingDocuments)
	})

	return r
}

type businessRequest struct {
	LegalName    string `json:"legalName"`
	LegalType    string `json:"legalType"`
	Email        string `json:"email"`
	FoundingDate string `json:"foundingDate,omitempty"`
}

type businessResponse struct {
	Identifier   string `json:"identifier"`
	LegalName    string `json:"legalName"`
	LegalType    string `json:"legalType"`
	Email        string `json:"email"`
	FoundingDate string `json:"foundingDate,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type filingResponse struct {
	ID                 int64           `json:"id"`
	BusinessIdentifier string          `json:"businessIdentifier"`
	Name               string          `json:"name"`
	Status             string          `json:"status"`
	Filing             json.RawMessage `json:"filing"`
	EffectiveDate      string          `json:"effectiveDate,omitempty"`
	PaymentDate        string          `json:"paymentDate,omitempty"`
	CompletionDate     string          `json:"completionDate,omitempty"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

type documentResponse struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	FileKey     string `json:"fileKey"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	CreatedAt   string `json:"created_at"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) upsertBusiness(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	var req businessRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	business := domain.Business{
		Identifier: identifier,
		LegalName:  req.LegalName,
		LegalType:  domain.LegalType(req.LegalType),
		Email:      req.Email,
	}
	if req.FoundingDate != "" {
		founded, err := time.Parse(time.RFC3339, req.FoundingDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "foundingDate must be RFC 3339")
			return
		}
		business.FoundingDate = founded
	}

	stored, err := h.filingService.UpsertBusiness(r.Context(), business)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(stored))
}

func (h *Handler) getBusiness(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	business, err := h.filingService.GetBusiness(r.Context(), identifier)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessResponse(business))
}

func (h *Handler) submitFiling(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	decoder := json.NewDecoder(r.Body)
	var data json.RawMessage
	if err := decoder.Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	filing, err := h.filingService.Submit(r.Context(), identifier, data)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFilingResponse(filing))
}

func (h *Handler) listFilings(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	filings, err := h.filingService.List(r.Context(), identifier, limit)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]filingResponse, 0, len(filings))
	for _, filing := range filings {
		result = append(result, toFilingResponse(filing))
	}
	writeJSON(w, http.StatusOK, map[string]any{"filings": result})
}

func (h *Handler) getFiling(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFilingID(w, r)
	if !ok {
		return
	}

	filing, err := h.filingService.Get(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFilingResponse(filing))
}

func (h *Handler) updateFilingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFilingID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	var req statusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	var filing domain.Filing
	var err error
	switch req.Status {
	case domain.FilingStatusPaid:
		filing, err = h.filingService.MarkPaid(r.Context(), id)
	case domain.FilingStatusCompleted:
		filing, err = h.filingService.MarkCompleted(r.Context(), id)
	default:
		writeError(w, http.StatusBadRequest, "status must be PAID or COMPLETED")
		return
	}
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFilingResponse(filing))
}

func (h *Handler) listFilingDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseFilingID(w, r)
	if !ok {
		return
	}

	docs, err := h.documents.ListByFiling(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	result := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		result = append(result, documentResponse{
			ID:          doc.ID,
			Type:        doc.Type,
			FileKey:     doc.FileKey,
			FileName:    doc.FileName,
			ContentType: doc.ContentType,
			CreatedAt:   doc.CreatedAt.UTC().Format(timeFormat),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": result})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) openapi(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, openapiSpec())
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.authService.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, usecase.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), clientCtxKey, apiKey.Client)
		ctx = context.WithValue(ctx, apiActorCtxKey, apiKey.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func toBusinessResponse(business domain.Business) businessResponse {
	resp := businessResponse{
		Identifier: business.Identifier,
		LegalName:  business.LegalName,
		LegalType:  string(business.LegalType),
		Email:      business.Email,
		CreatedAt:  business.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:  business.UpdatedAt.UTC().Format(timeFormat),
	}
	if !business.FoundingDate.IsZero() {
		resp.FoundingDate = business.FoundingDate.UTC().Format(timeFormat)
	}
	return resp
}

func toFilingResponse(filing domain.Filing) filingResponse {
	resp := filingResponse{
		ID:                 filing.ID,
		BusinessIdentifier: filing.BusinessIdentifier,
		Name:               filing.Type,
		Status:             filing.Status,
		Filing:             filing.Data,
		CreatedAt:          filing.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:          filing.UpdatedAt.UTC().Format(timeFormat),
	}
	if filing.EffectiveDate != nil {
		resp.EffectiveDate = filing.EffectiveDate.UTC().Format(timeFormat)
	}
	if filing.PaymentDate != nil {
		resp.PaymentDate = filing.PaymentDate.UTC().Format(timeFormat)
	}
	if filing.CompletionDate != nil {
		resp.CompletionDate = filing.CompletionDate.UTC().Format(timeFormat)
	}
	return resp
}

func parseFilingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "filing id must be a positive integer")
		return 0, false
	}
	return id, true
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be integer")
			return 0, false
		}
		limit = parsed
	}
	return limit, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Printf("encode json response: %v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// handleDomainError maps service errors to HTTP statuses. A filing validation
// failure returns the full aggregate so the caller sees every problem at once.
func handleDomainError(w http.ResponseWriter, err error) {
	var verr *domain.FilingValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, verr)
	case errors.Is(err, domain.ErrInvalidIdentifier), errors.Is(err, domain.ErrInvalidStatusTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func openapiSpec() map[string]any {
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "filings-api",
			"version": "1.0.0",
		},
		"paths": map[string]any{
			"/v1/businesses/{identifier}": map[string]any{
				"put": map[string]any{"summary": "Upsert business"},
				"get": map[string]any{"summary": "Get business"},
			},
			"/v1/businesses/{identifier}/filings": map[string]any{
				"post": map[string]any{"summary": "Submit filing"},
				"get":  map[string]any{"summary": "List filings"},
			},
			"/v1/filings/{id}": map[string]any{
				"get": map[string]any{"summary": "Get filing"},
			},
			"/v1/filings/{id}/status": map[string]any{
				"patch": map[string]any{"summary": "Update filing status"},
			},
			"/v1/filings/{id}/documents": map[string]any{
				"get": map[string]any{"summary": "List filing documents"},
			},
		},
	}
}
