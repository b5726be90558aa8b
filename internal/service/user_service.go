package service

import (
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
)

type UserService interface {
	CreateUser(req *CreateUserRequest, actor Actor) (*model.User, error)
	UpdateUser(userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error)
	DeleteUser(userID uuid.UUID, actor Actor) error
	GetAllUsers() ([]model.UserResponse, error)
	GetUserByID(id uuid.UUID) (*model.UserResponse, error)
}

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FullName    string `json:"full_name" validate:"required,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=20"`
	RoleID      uint   `json:"role_id" validate:"required"`
}

type UpdateUserRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    *string `json:"password,omitempty" validate:"omitempty,min=6"` // Optional
	FullName    string  `json:"full_name" validate:"required,max=255"`
	PhoneNumber string  `json:"phone_number" validate:"omitempty,max=20"`
	RoleID      uint    `json:"role_id" validate:"required"`
	IsActive    *bool   `json:"is_active"`
}

type userService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	audit    AuditService
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, audit AuditService, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		audit:    audit,
		log:      log.Named("users"),
	}
}

func (s *userService) CreateUser(req *CreateUserRequest, actor Actor) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	// 1. Email must be unique
	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailExists
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	// 2. Role must exist
	if _, err := s.roleRepo.FindByID(req.RoleID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	user := &model.User{
		Email:       email,
		FullName:    strings.TrimSpace(req.FullName),
		PhoneNumber: req.PhoneNumber,
		RoleID:      &req.RoleID,
		IsActive:    true,
	}
	user.CreatedBy = actor.by()
	user.UpdatedBy = actor.by()
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}

	if err := s.userRepo.Create(user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditCreate, "user", user.ID.String(), map[string]interface{}{
		"email":   user.Email,
		"role_id": req.RoleID,
	})
	return s.userRepo.FindByID(user.ID)
}

func (s *userService) UpdateUser(userID uuid.UUID, req *UpdateUserRequest, actor Actor) (*model.User, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if _, err := s.userRepo.FindByEmail(email); err == nil {
			return nil, ErrEmailExists
		} else if !repository.IsNotFound(err) {
			return nil, err
		}
	}

	if _, err := s.roleRepo.FindByID(req.RoleID); err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrRoleNotFound
		}
		return nil, err
	}

	user.Email = email
	user.FullName = strings.TrimSpace(req.FullName)
	user.PhoneNumber = req.PhoneNumber
	user.RoleID = &req.RoleID
	if req.IsActive != nil {
		if !*req.IsActive && userID == actor.ID {
			return nil, newError(ErrForbidden, "No puede desactivar su propio usuario")
		}
		user.IsActive = *req.IsActive
	}
	user.UpdatedBy = actor.by()

	if req.Password != nil && *req.Password != "" {
		if err := user.SetPassword(*req.Password); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditUpdate, "user", user.ID.String(), map[string]interface{}{
		"email":     user.Email,
		"role_id":   req.RoleID,
		"is_active": user.IsActive,
	})
	return s.userRepo.FindByID(userID)
}

func (s *userService) DeleteUser(userID uuid.UUID, actor Actor) error {
	if userID == actor.ID {
		return ErrCannotDeleteSelf
	}
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if err := s.userRepo.Delete(userID, actor.by()); err != nil {
		return err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditDelete, "user", userID.String(), nil)
	return nil
}

func (s *userService) GetAllUsers() ([]model.UserResponse, error) {
	users, err := s.userRepo.FindAll()
	if err != nil {
		return nil, err
	}

	responses := make([]model.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, nil
}

func (s *userService) GetUserByID(id uuid.UUID) (*model.UserResponse, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	response := user.ToResponse()
	return &response, nil
}
