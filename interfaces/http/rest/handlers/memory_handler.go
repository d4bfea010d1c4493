package handlers

import (
	"net/http"
	"strings"

	"keepwise/application/commands"
	"keepwise/application/commands/bus"
	"keepwise/application/queries"
	querybus "keepwise/application/queries/bus"
	"keepwise/domain/core/entities"
	"keepwise/domain/core/valueobjects"
	"keepwise/pkg/auth"
	"keepwise/pkg/common"
	pkgerrors "keepwise/pkg/errors"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultMaxBodyBytes caps JSON request bodies
const DefaultMaxBodyBytes int64 = 1 << 20

// MemoryHandler handles link, idea and memory listing requests
type MemoryHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
	logger     *zap.Logger
	maxBody    int64
}

// NewMemoryHandler creates a new memory handler
func NewMemoryHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errs *pkgerrors.ErrorHandler,
	logger *zap.Logger,
	maxBody int64,
) *MemoryHandler {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &MemoryHandler{
		commandBus: commandBus,
		queryBus:   queryBus,
		errors:     errs,
		logger:     logger,
		maxBody:    maxBody,
	}
}

// LinkRequest is the body of POST and PUT /links
type LinkRequest struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Tags          string `json:"tags"`
	Author        string `json:"author"`
	Source        string `json:"source"`
	PersonalNotes string `json:"personalNotes"`
	Priority      string `json:"priority"`
}

// IdeaRequest is the body of POST and PUT /ideas. Omitting attachments on
// update keeps the stored files.
type IdeaRequest struct {
	Title       string                     `json:"title"`
	Content     string                     `json:"content"`
	Category    string                     `json:"category"`
	Tags        string                     `json:"tags"`
	Priority    string                     `json:"priority"`
	Attachments []commands.AttachmentInput `json:"attachments"`
}

// CreateLink handles POST /links
func (h *MemoryHandler) CreateLink(w http.ResponseWriter, r *http.Request) {
	h.saveLink(w, r, "")
}

// UpdateLink handles PUT /links/{id}
func (h *MemoryHandler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mutationID(w, r)
	if !ok {
		return
	}
	h.saveLink(w, r, id)
}

func (h *MemoryHandler) saveLink(w http.ResponseWriter, r *http.Request, memoryID string) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req LinkRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBody); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	cmd := commands.SaveLinkCommand{
		MemoryID:      memoryID,
		OwnerID:       user.UserID,
		Title:         req.Title,
		URL:           strings.TrimSpace(req.URL),
		Description:   req.Description,
		Category:      req.Category,
		Tags:          req.Tags,
		Author:        req.Author,
		Source:        req.Source,
		PersonalNotes: req.PersonalNotes,
		Priority:      normalizePriority(req.Priority),
	}
	h.sendSave(w, r, cmd, memoryID == "")
}

// CreateIdea handles POST /ideas
func (h *MemoryHandler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	h.saveIdea(w, r, "")
}

// UpdateIdea handles PUT /ideas/{id}
func (h *MemoryHandler) UpdateIdea(w http.ResponseWriter, r *http.Request) {
	id, ok := h.mutationID(w, r)
	if !ok {
		return
	}
	h.saveIdea(w, r, id)
}

func (h *MemoryHandler) saveIdea(w http.ResponseWriter, r *http.Request, memoryID string) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	var req IdeaRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBody); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	cmd := commands.SaveIdeaCommand{
		MemoryID:    memoryID,
		OwnerID:     user.UserID,
		Title:       req.Title,
		Content:     req.Content,
		Category:    req.Category,
		Tags:        req.Tags,
		Priority:    normalizePriority(req.Priority),
		Attachments: req.Attachments,
	}
	h.sendSave(w, r, cmd, memoryID == "")
}

func (h *MemoryHandler) sendSave(w http.ResponseWriter, r *http.Request, cmd bus.Command, created bool) {
	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	memory, ok := result.(*entities.Memory)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected command result"))
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	common.RespondJSON(w, status, queries.NewMemoryView(memory))
}

// DeleteLink handles DELETE /links/{id}
func (h *MemoryHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, valueobjects.KindLink)
}

// DeleteIdea handles DELETE /ideas/{id}
func (h *MemoryHandler) DeleteIdea(w http.ResponseWriter, r *http.Request) {
	h.delete(w, r, valueobjects.KindIdea)
}

func (h *MemoryHandler) delete(w http.ResponseWriter, r *http.Request, kind valueobjects.MemoryKind) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}
	id, ok := h.mutationID(w, r)
	if !ok {
		return
	}

	cmd := commands.DeleteMemoryCommand{
		MemoryID: id,
		OwnerID:  user.UserID,
		Kind:     kind.String(),
	}
	if _, err := h.commandBus.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, nil)
}

// RecentMemories handles GET /memories/recent. The body is a bare array and
// must never be cached.
func (h *MemoryHandler) RecentMemories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	query := queries.RecentMemoriesQuery{
		OwnerID: user.UserID,
		Limit:   common.ParseLimit(r.URL.Query().Get("limit"), queries.DefaultRecentLimit),
	}
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	views, _ := result.([]queries.MemoryView)
	if views == nil {
		views = []queries.MemoryView{}
	}

	setNoStore(w)
	common.RespondRaw(w, http.StatusOK, views)
}

// ListMemories handles GET /memories
func (h *MemoryHandler) ListMemories(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	page := common.ExtractPageParams(r, queries.DefaultListLimit, queries.MaxListLimit)
	q := r.URL.Query()
	query := queries.ListMemoriesQuery{
		OwnerID:  user.UserID,
		Query:    q.Get("q"),
		Type:     q.Get("type"),
		Category: q.Get("category"),
		Tag:      q.Get("tag"),
		Priority: q.Get("priority"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	list, ok := result.(*queries.ListMemoriesResult)
	if !ok {
		h.errors.Handle(w, r, pkgerrors.NewInternalError("unexpected query result"))
		return
	}

	common.RespondWithMeta(w, http.StatusOK, list, &common.MetaInfo{
		RequestID:  chimiddleware.GetReqID(r.Context()),
		Pagination: common.BuildPaginationInfo(page, list.Total),
	})
}

// GetMemory handles GET /memories/{id}
func (h *MemoryHandler) GetMemory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	query := queries.GetMemoryQuery{
		OwnerID:  user.UserID,
		MemoryID: chi.URLParam(r, "id"),
	}
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

func (h *MemoryHandler) user(w http.ResponseWriter, r *http.Request) (*auth.UserContext, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return nil, false
	}
	return user, true
}

// mutationID reads the path id. A malformed id cannot name a memory the
// caller owns, so it is reported like any other missing memory.
func (h *MemoryHandler) mutationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewNotFoundError("memory"))
		return "", false
	}
	return id, true
}

func normalizePriority(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func setNoStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("Surrogate-Control", "no-store")
}
