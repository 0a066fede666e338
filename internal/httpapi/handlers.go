package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shpitdev/leadfinder/internal/app"
	"github.com/shpitdev/leadfinder/internal/lead"
	"github.com/shpitdev/leadfinder/internal/search"
	"github.com/shpitdev/leadfinder/internal/session"
	"github.com/shpitdev/leadfinder/internal/util"
)

const (
	msgInvalidRequest  = "invalid request body"
	msgSearchFailed    = "failed to fetch leads, please try again"
	msgEnrichFailed    = "failed to enrich selected leads, please try again"
	msgNothingParsed   = "could not parse any leads from the search results; try refining your keywords or location"
	msgNothingEnriched = "could not parse any enrichment results; the selection was cleared"
	msgEmptySelection  = "select at least one lead to enrich"
	msgSessionNotFound = "session not found"
	msgUnknownLead     = "lead not found in session"
	msgSearchInFlight  = "a search is already running for this session"
	msgEnrichInFlight  = "an enrichment is already running for this session"
	msgConflict        = "session was modified concurrently, please retry"
	msgInternal        = "internal error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Details string         `json:"details,omitempty"`
	RawText string         `json:"rawText,omitempty"`
	Session *StateResponse `json:"session,omitempty"`
}

// StateResponse is the wire form of a session.
type StateResponse struct {
	ID       string      `json:"id"`
	Version  int64       `json:"version"`
	Leads    []lead.Lead `json:"leads"`
	Selected []string    `json:"selected"`
	RawText  string      `json:"rawText,omitempty"`
}

func newStateResponse(st session.State, raw string) *StateResponse {
	selected := make([]string, 0, len(st.Selected))
	for _, l := range st.SelectedLeads() {
		selected = append(selected, l.ID)
	}
	leads := st.Leads
	if leads == nil {
		leads = []lead.Lead{}
	}
	return &StateResponse{ID: st.ID, Version: st.Version, Leads: leads, Selected: selected, RawText: raw}
}

type toggleRequest struct {
	ID string `json:"id" binding:"required"`
}

type selectAllRequest struct {
	Selected *bool `json:"selected" binding:"required"`
}

type handler struct {
	svc *app.Service
	log *zap.Logger
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) createSession(c *gin.Context) {
	st, err := h.svc.CreateSession(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, newStateResponse(st, ""))
}

func (h *handler) getSession(c *gin.Context) {
	st, err := h.svc.Session(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(st, ""))
}

func (h *handler) search(c *gin.Context) {
	var params lead.SearchParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest})
		return
	}
	st, raw, err := h.svc.Search(c.Request.Context(), c.Param("id"), params)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newStateResponse(st, raw))
	case errors.Is(err, search.ErrNothingParsed):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: msgNothingParsed, RawText: raw, Session: newStateResponse(st, "")})
	case errors.Is(err, search.ErrRequestFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: msgSearchFailed})
	case errors.Is(err, session.ErrInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{Error: msgSearchInFlight})
	default:
		h.fail(c, err)
	}
}

func (h *handler) enrich(c *gin.Context) {
	st, raw, err := h.svc.Enrich(c.Request.Context(), c.Param("id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newStateResponse(st, raw))
	case errors.Is(err, search.ErrNothingParsed):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: msgNothingEnriched, RawText: raw, Session: newStateResponse(st, "")})
	case errors.Is(err, search.ErrRequestFailed):
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: msgEnrichFailed})
	case errors.Is(err, session.ErrInFlight):
		c.JSON(http.StatusConflict, ErrorResponse{Error: msgEnrichInFlight})
	default:
		h.fail(c, err)
	}
}

func (h *handler) toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest})
		return
	}
	st, err := h.svc.Toggle(c.Request.Context(), c.Param("id"), req.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(st, ""))
}

func (h *handler) selectAll(c *gin.Context) {
	var req selectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgInvalidRequest})
		return
	}
	st, err := h.svc.SelectAll(c.Request.Context(), c.Param("id"), *req.Selected)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(st, ""))
}

func (h *handler) clear(c *gin.Context) {
	st, err := h.svc.Clear(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(st, ""))
}

func (h *handler) export(c *gin.Context) {
	name, body, err := h.svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}

// fail maps errors shared by every route.
func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidParams):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   search.ErrInvalidParams.Error(),
			Details: strings.TrimPrefix(err.Error(), search.ErrInvalidParams.Error()+": "),
		})
	case errors.Is(err, search.ErrEmptySelection):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgEmptySelection})
	case errors.Is(err, session.ErrUnknownLead):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: msgUnknownLead})
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: msgSessionNotFound})
	case errors.Is(err, session.ErrVersionConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: msgConflict})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.String("error", util.RedactSecrets(err.Error())))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	}
}
