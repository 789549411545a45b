package httpapi

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clientDirectory/internal/auth"
	"clientDirectory/internal/events"
	"clientDirectory/internal/validation"
	"clientDirectory/repository"
)

// Handler serves the REST API.
type Handler struct {
	users     repository.UserRepositoryI
	companies repository.CompanyRepositoryI
	clients   repository.ClientRepositoryI
	links     repository.ClientUserRepositoryI
	pinger    Pinger
	validate  *validation.Validator
	events    *events.Emitter
	logger    *zap.Logger
	secret    string
	tokenTTL  time.Duration
}

// bind decodes the JSON body into dst and validates it. On failure the response is
// already written.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var fields validation.Errors
		if errors.As(err, &fields) {
			validationFailed(c, fields)
			return false
		}
		badRequest(c, err.Error())
		return false
	}
	return true
}

// pathID parses a positive int64 path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional integer query parameter. Present but malformed values
// are rejected.
func queryInt(c *gin.Context, name string, min, max int64) (int64, bool, bool) {
	raw, present := c.GetQuery(name)
	if !present || raw == "" {
		return 0, false, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < min || v > max {
		badRequest(c, "invalid query parameter "+name)
		return 0, true, false
	}
	return v, true, true
}

// page reads limit and offset.
func page(c *gin.Context) (repository.Page, bool) {
	limit, _, ok := queryInt(c, "limit", 1, 100)
	if !ok {
		return repository.Page{}, false
	}
	offset, _, ok := queryInt(c, "offset", 0, math.MaxInt32)
	if !ok {
		return repository.Page{}, false
	}
	return repository.Page{Limit: int(limit), Offset: int(offset)}, true
}

func (h *Handler) principal(c *gin.Context) *auth.Principal {
	p, _ := auth.PrincipalFrom(c)
	return p
}

func (h *Handler) actorID(c *gin.Context) int64 {
	if p := h.principal(c); p != nil {
		return p.UserID
	}
	return 0
}

func (h *Handler) emit(c *gin.Context, t events.Type, payload any) {
	h.events.Emit(c.Request.Context(), t, h.actorID(c), payload)
}
