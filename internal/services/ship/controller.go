package ship

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/domain/ship"
	"github.com/novadock/hangar/internal/obs"
	"github.com/novadock/hangar/internal/services/auth"
)

const maxPageSize = 50

type Controller struct {
	svc Service
	log *zap.Logger
}

func NewController(svc Service, log *zap.Logger) *Controller {
	return &Controller{svc: svc, log: log}
}

func (c *Controller) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /ships/{id}", c.requireAuth(c.handleGet))
	mux.HandleFunc("GET /ships", c.requireAuth(c.handleList))
	mux.HandleFunc("POST /ships", c.requireAuth(c.handleCreate))
	mux.HandleFunc("PUT /ships/{id}", c.requireAuth(c.handleUpdate))
	mux.HandleFunc("DELETE /ships/{id}", c.requireAuth(c.handleDelete))
}

// requireAuth enforces that the gate attached a principal. The gate
// forwards anonymous requests on purpose; denial happens here.
func (c *Controller) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.PrincipalFromCtx(r.Context()); !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r)
	}
}

func (c *Controller) handleGet(w http.ResponseWriter, r *http.Request) {
	s, err := c.svc.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *Controller) handleList(w http.ResponseWriter, r *http.Request) {
	page, size, ok := pageParams(w, r)
	if !ok {
		return
	}

	var (
		ships []*ship.Spaceship
		err   error
	)
	if name := r.URL.Query().Get("name"); name != "" {
		ships, err = c.svc.SearchByName(r.Context(), name, page, size)
	} else {
		ships, err = c.svc.List(r.Context(), page, size)
	}
	if err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	if ships == nil {
		ships = []*ship.Spaceship{}
	}
	writeJSON(w, http.StatusOK, ships)
}

func (c *Controller) handleCreate(w http.ResponseWriter, r *http.Request) {
	var s ship.Spaceship
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if err := c.svc.Create(r.Context(), &s); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (c *Controller) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var s ship.Spaceship
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.ID = r.PathValue("id")
	if err := c.svc.Update(r.Context(), &s); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (c *Controller) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := c.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		c.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ship.ErrNotFound):
		writeError(w, http.StatusNotFound, "spaceship not found")
	case errors.Is(err, ship.ErrExists):
		writeError(w, http.StatusConflict, "spaceship already exists")
	case errors.Is(err, ErrInvalidValue):
		writeError(w, http.StatusBadRequest, "missing or invalid value")
	default:
		obs.WithTrace(r.Context(), c.log).Error("ship handler", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pageParams(w http.ResponseWriter, r *http.Request) (page, size int, ok bool) {
	page, size = 0, 20
	var err error
	if v := r.URL.Query().Get("page"); v != "" {
		if page, err = strconv.Atoi(v); err != nil || page < 0 {
			writeError(w, http.StatusBadRequest, "invalid page")
			return 0, 0, false
		}
	}
	if v := r.URL.Query().Get("size"); v != "" {
		if size, err = strconv.Atoi(v); err != nil || size <= 0 || size > maxPageSize {
			writeError(w, http.StatusBadRequest, "invalid size")
			return 0, 0, false
		}
	}
	return page, size, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
