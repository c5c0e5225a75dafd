package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

// CreateRequest carries a new user account.
type CreateRequest struct {
	Name     string         `json:"name" validate:"required,max=255"`
	Email    string         `json:"email" validate:"required,email,max=255"`
	Password string         `json:"password" validate:"required,min=8,max=128"`
	Role     enums.UserRole `json:"role" validate:"required,oneof=admin staff"`
}

// UpdateRequest carries a partial user update. Nil fields are untouched.
type UpdateRequest struct {
	Name     *string         `json:"name" validate:"omitempty,max=255"`
	Password *string         `json:"password" validate:"omitempty,min=8,max=128"`
	Role     *enums.UserRole `json:"role" validate:"omitempty,oneof=admin staff"`
	IsActive *bool           `json:"is_active"`
}

// Service owns user account management. All operations here are admin-only;
// the route layer enforces that.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.User], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateRequest) (*models.User, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type service struct {
	tx       repo.TxRunner
	users    Repository
	password config.PasswordConfig
	audit    audit.Writer
	logg     *logger.Logger
}

// NewService wires the user management service.
func NewService(tx repo.TxRunner, users Repository, password config.PasswordConfig, auditWriter audit.Writer, logg *logger.Logger) Service {
	return &service{
		tx:       tx,
		users:    users,
		password: password,
		audit:    auditWriter,
		logg:     logg,
	}
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	if !req.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var created *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)

		existing, err := users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered").
				WithDetails(map[string]any{"email": email})
		}

		role, err := users.FindRoleByName(ctx, req.Role.String())
		if err != nil {
			return err
		}
		if role == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "role does not exist")
		}

		hash, err := security.HashPassword(req.Password, s.password)
		if err != nil {
			return err
		}

		user := &models.User{
			Name:         req.Name,
			Email:        email,
			PasswordHash: hash,
			RoleID:       role.ID,
			IsActive:     true,
		}
		if err := users.Create(ctx, user); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectUser,
			SubjectID:   user.ID,
			Details:     map[string]any{"email": user.Email, "role": req.Role},
		}); err != nil {
			return err
		}

		user.Role = role
		created = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*pagination.Page[models.User], error) {
	return s.users.List(ctx, query)
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateRequest) (*models.User, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		user, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		changes := map[string]any{}
		if req.Name != nil && *req.Name != user.Name {
			changes["name"] = audit.FieldChange{Old: user.Name, New: *req.Name}
			user.Name = *req.Name
		}
		if req.Password != nil {
			hash, err := security.HashPassword(*req.Password, s.password)
			if err != nil {
				return err
			}
			user.PasswordHash = hash
			changes["password"] = "rotated"
		}
		if req.Role != nil {
			if !req.Role.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
			}
			role, err := users.FindRoleByName(ctx, req.Role.String())
			if err != nil {
				return err
			}
			if role == nil {
				return pkgerrors.New(pkgerrors.CodeValidation, "role does not exist")
			}
			if role.ID != user.RoleID {
				changes["role"] = req.Role.String()
				user.RoleID = role.ID
				user.Role = role
			}
		}
		if req.IsActive != nil && *req.IsActive != user.IsActive {
			changes["is_active"] = audit.FieldChange{Old: user.IsActive, New: *req.IsActive}
			user.IsActive = *req.IsActive
		}

		if err := users.Save(ctx, user); err != nil {
			return err
		}

		details := map[string]any{"email": user.Email}
		if len(changes) > 0 {
			details["changes"] = changes
		}
		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectUser,
			SubjectID:   user.ID,
			Details:     details,
		}); err != nil {
			return err
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	if actorID == id {
		return pkgerrors.New(pkgerrors.CodeConflict, "cannot delete your own account")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		user, err := users.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}

		if err := users.Delete(ctx, id); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectUser,
			SubjectID:   id,
			Details:     map[string]any{"email": user.Email},
		})
	})
}
