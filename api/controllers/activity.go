package controllers

import (
	"net/http"

	"github.com/angelmondragon/stockroom-backend/api/responses"
	"github.com/angelmondragon/stockroom-backend/api/validators"
	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

// ActivityList returns the activity log, newest first. Optional filters:
// user_id, subject_type and subject_id.
func ActivityList(writer audit.Writer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		query := audit.ListQuery{Pagination: params}
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			userID, err := validators.ParseQueryUUID(r, "user_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			query.UserID = &userID
		}
		if raw := r.URL.Query().Get("subject_type"); raw != "" {
			subject, err := enums.ParseActivitySubject(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w,
					pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subject_type filter"))
				return
			}
			query.SubjectType = &subject
		}
		if raw := r.URL.Query().Get("subject_id"); raw != "" {
			subjectID, err := validators.ParseQueryUUID(r, "subject_id")
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			query.SubjectID = &subjectID
		}

		page, err := writer.List(ctx, query)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
