package handlers

import (
	"net/http"

	"keepwise/application/ports"
	"keepwise/pkg/auth"
	"keepwise/pkg/common"
	pkgerrors "keepwise/pkg/errors"
	"keepwise/pkg/utils"

	"go.uber.org/zap"
)

// MetadataHandler serves link previews
type MetadataHandler struct {
	extractor ports.MetadataExtractor
	errors    *pkgerrors.ErrorHandler
	logger    *zap.Logger
}

// NewMetadataHandler creates a new metadata handler
func NewMetadataHandler(extractor ports.MetadataExtractor, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *MetadataHandler {
	return &MetadataHandler{extractor: extractor, errors: errs, logger: logger}
}

// ExtractMetadataRequest is the body of POST /extract-metadata
type ExtractMetadataRequest struct {
	URL string `json:"url" validate:"required,http_url"`
}

// ExtractMetadata handles POST /extract-metadata. Upstream failures are part
// of the 200 body, not an error status.
func (h *MetadataHandler) ExtractMetadata(w http.ResponseWriter, r *http.Request) {
	if _, err := auth.GetUserFromContext(r.Context()); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewUnauthorizedError("Unauthorized"))
		return
	}

	var req ExtractMetadataRequest
	if err := common.ParseJSONBody(w, r, &req, DefaultMaxBodyBytes); err != nil {
		h.errors.Handle(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondRaw(w, http.StatusOK, h.extractor.Extract(r.Context(), req.URL))
}
