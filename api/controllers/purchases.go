package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/imports"
	"github.com/angelmondragon/stockroom-backend/internal/purchases"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"

	"github.com/google/uuid"
)

// PurchaseCreate records a purchase order in pending state.
func PurchaseCreate(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload purchases.CreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Create(ctx, actor, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, purchase)
	}
}

// PurchaseGet returns one purchase with its lines.
func PurchaseGet(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Get(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseList returns a paginated purchase listing with optional status and
// search filters.
func PurchaseList(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := purchases.ListQuery{
			Search:     r.URL.Query().Get("search"),
			Pagination: params,
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status, err := enums.ParsePurchaseStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			query.Status = &status
		}

		page, err := svc.List(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// PurchaseUpdate amends a pending purchase.
func PurchaseUpdate(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var payload purchases.UpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Update(ctx, actor, id, payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseApprove approves a pending purchase and adds its lines to stock.
func PurchaseApprove(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		purchase, err := svc.Approve(ctx, actor, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, purchase)
	}
}

// PurchaseDelete removes a purchase and its lines.
func PurchaseDelete(svc purchases.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		id, err := validators.ParsePathUUID(r, "id")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, actor, id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// importSupplierID reads the supplier the uploaded batch belongs to.
func importSupplierID(r *http.Request) (uuid.UUID, error) {
	raw := r.FormValue("supplier_id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier_id form field must be a valid uuid")
	}
	return id, nil
}

// PurchaseImportPreview validates an uploaded purchase spreadsheet without
// persisting.
func PurchaseImportPreview(importer *imports.PurchaseImporter, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := actorID(ctx); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		file, err := uploadedFile(r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer file.Close()

		supplierID, err := importSupplierID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := importer.Preview(ctx, supplierID, file)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}

// PurchaseImportConfirm re-validates and commits an uploaded purchase
// spreadsheet in a single batch.
func PurchaseImportConfirm(importer *imports.PurchaseImporter, maxUploadMB int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		actor, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		file, err := uploadedFile(r, maxUploadMB)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		defer file.Close()

		supplierID, err := importSupplierID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		report, err := importer.Confirm(ctx, actor, supplierID, file)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, report)
	}
}
