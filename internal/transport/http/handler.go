package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"PortfolioCMS/internal/model"
	"PortfolioCMS/internal/repository"
	"PortfolioCMS/internal/service"
	"PortfolioCMS/pkg/logger"
)

// maxBodySize ограничивает тело запроса
const maxBodySize = 1 << 20

// CollectionService - CRUD одной упорядоченной коллекции
type CollectionService interface {
	Collection() model.Collection
	List(ctx context.Context, f model.ListFilter) (any, error)
	Get(ctx context.Context, id string) (any, error)
	Create(ctx context.Context, body []byte, actor string) (any, error)
	Update(ctx context.Context, id string, patch []byte, contentType, actor string) (any, error)
	Delete(ctx context.Context, id, actor string) error
}

// ReorderService применяет пакет позиций
type ReorderService interface {
	Reorder(ctx context.Context, collection string, items []model.PositionUpdate, actor string) (*service.ReorderResult, error)
}

// SettingsService отдаёт и меняет настройки сайта
type SettingsService interface {
	Get(ctx context.Context) (model.Settings, error)
	Update(ctx context.Context, values map[string]string, actor string) (model.Settings, error)
}

// AuthService открывает, закрывает и проверяет сессии
type AuthService interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, token string) error
	GetSession(ctx context.Context, token string) (*model.Session, error)
}

// ReadinessCheck - проверка зависимости для /readyz
type ReadinessCheck func(ctx context.Context) error

// Deps - зависимости хендлера
type Deps struct {
	Collections []CollectionService
	Reorder     ReorderService
	Settings    SettingsService
	Auth        AuthService
	Log         *slog.Logger
	Ready       map[string]ReadinessCheck
}

// Handler реализует REST API CMS
type Handler struct {
	collections map[string]CollectionService
	reorder     ReorderService
	settings    SettingsService
	auth        AuthService
	log         *slog.Logger
	ready       map[string]ReadinessCheck
}

// NewHandler создаёт новый HTTP Handler
func NewHandler(d Deps) *Handler {
	h := &Handler{
		collections: make(map[string]CollectionService, len(d.Collections)),
		reorder:     d.Reorder,
		settings:    d.Settings,
		auth:        d.Auth,
		log:         d.Log,
		ready:       d.Ready,
	}
	if h.log == nil {
		h.log = logger.Discard()
	}
	for _, c := range d.Collections {
		h.collections[string(c.Collection())] = c
	}
	return h
}

// RegisterRoutes регистрирует маршруты API.
// /reorder и /settings объявлены раньше шаблонов с {id} и {collection}
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodPost)

	api.HandleFunc("/settings", h.GetSettings).Methods(http.MethodGet)
	api.Handle("/settings", h.RequireSession(http.HandlerFunc(h.UpdateSettings))).Methods(http.MethodPut)

	api.Handle("/{collection}/reorder", h.RequireSession(http.HandlerFunc(h.Reorder))).Methods(http.MethodPatch)
	api.HandleFunc("/{collection}", h.List).Methods(http.MethodGet)
	api.Handle("/{collection}", h.RequireSession(http.HandlerFunc(h.Create))).Methods(http.MethodPost)
	api.HandleFunc("/{collection}/{id}", h.Get).Methods(http.MethodGet)
	api.Handle("/{collection}/{id}", h.RequireSession(http.HandlerFunc(h.Update))).Methods(http.MethodPatch)
	api.Handle("/{collection}/{id}", h.RequireSession(http.HandlerFunc(h.Delete))).Methods(http.MethodDelete)
}

// ErrorResponse - тело любой ошибки API
type ErrorResponse struct {
	Message string `json:"message"`
}

// MessageResponse - тело успешного ответа без данных
type MessageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Message: message})
}

// writeServiceError переводит ошибку сервиса в HTTP-статус
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, repository.ErrEmptyTitle),
		errors.Is(err, repository.ErrEmptyInstitution):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// collection находит сервис коллекции из пути; при неизвестной пишет 404
func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (CollectionService, bool) {
	name := mux.Vars(r)["collection"]
	c, ok := h.collections[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Unknown collection "+name)
		return nil, false
	}
	return c, true
}

// List обрабатывает GET /api/{collection}?limit&offset&search
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := model.ListFilter{Search: q.Get("search")}
	var err error
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil || f.Limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if f.Offset, err = strconv.Atoi(v); err != nil || f.Offset < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}
	page, err := c.List(r.Context(), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Get обрабатывает GET /api/{collection}/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	item, err := c.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Create обрабатывает POST /api/{collection}
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := c.Create(r.Context(), body, actor(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// Update обрабатывает PATCH /api/{collection}/{id}: JSON Patch или merge patch
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := c.Update(r.Context(), mux.Vars(r)["id"], body, r.Header.Get("Content-Type"), actor(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Delete обрабатывает DELETE /api/{collection}/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := c.Delete(r.Context(), id, actor(r.Context())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "removed": true})
}

// Reorder обрабатывает PATCH /api/{collection}/reorder.
// Ответ не содержит список: клиент перечитывает его сам
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	collection := string(c.Collection())
	var req model.ReorderRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		if errors.Is(err, model.ErrPositionRequired) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Items == nil {
		writeError(w, http.StatusBadRequest, "items is required")
		return
	}
	_, err := h.reorder.Reorder(r.Context(), collection, req.Items, actor(r.Context()))
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// какие пары применились, клиенту не сообщаем
		h.log.Error("reorder failed", "collection", collection, logger.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to reorder items")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Items reordered successfully"})
}

// GetSettings обрабатывает GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateSettings обрабатывает PUT /api/settings: частичный набор ключей
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&values); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s, err := h.settings.Update(r.Context(), values, actor(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Healthz возвращает статус работы сервиса
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz проверяет зависимости; первая упавшая проверка даёт 503
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	for name, check := range h.ready {
		if err := check(r.Context()); err != nil {
			h.log.Warn("readiness check failed", "dependency", name, logger.Err(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "dependency": name})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	return body, nil
}
