package handlers

import (
	"net/http"

	"keepwise/application/queries"
	querybus "keepwise/application/queries/bus"
	"keepwise/pkg/auth"
	"keepwise/pkg/common"
	pkgerrors "keepwise/pkg/errors"

	"go.uber.org/zap"
)

// CatalogHandler serves the caller's categories and tags
type CatalogHandler struct {
	queryBus *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{queryBus: queryBus, errors: errs, logger: logger}
}

// ListCategories handles GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListCategoriesQuery{OwnerID: user.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ListTags handles GET /tags
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListTagsQuery{OwnerID: user.UserID})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
