package controllers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockroom-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

// actorID extracts the authenticated user from the request context. Every
// mutating operation requires it; services receive it explicitly.
func actorID(ctx context.Context) (uuid.UUID, error) {
	id, ok := middleware.ActorIDFromContext(ctx)
	if !ok || id == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return id, nil
}

// uploadedFile pulls the spreadsheet out of a multipart form, bounded by the
// configured upload limit.
func uploadedFile(r *http.Request, maxUploadMB int) (multipart.File, error) {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	limit := int64(maxUploadMB) << 20

	r.Body = http.MaxBytesReader(nil, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not parse upload")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "file field is required")
	}
	return file, nil
}
