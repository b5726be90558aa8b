package service

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-pos-rd/internal/model"
	"go-pos-rd/internal/repository"
	"go-pos-rd/internal/ws"
	"go-pos-rd/pkg/jwt"
)

type AuthService interface {
	Login(email, password, ip string) (*LoginResponse, error)
	Logout(actor Actor) error
	ChangePassword(userID uuid.UUID, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*TokenValidationResponse, error)
	// Authenticate resolves a bearer token to an active user whose session is
	// still the current one.
	Authenticate(tokenString string) (*model.User, error)
	Heartbeat(userID uuid.UUID) error
}

type LoginResponse struct {
	Token      string             `json:"token"`
	ExpiresAt  time.Time          `json:"expires_at"`
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Role       *model.Role        `json:"role"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *jwt.Manager
	audit    AuditService
	events   ws.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(userRepo repository.UserRepository, tokens *jwt.Manager, audit AuditService, events ws.Publisher, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		audit:    audit,
		events:   events,
		log:      log.Named("auth"),
		now:      time.Now,
	}
}

func (s *authService) Login(email, password, ip string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password before revealing account state
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Single session: every login rotates the token version
	version := uuid.New().String()
	now := s.now()
	if err := s.userRepo.RecordLogin(user.ID, version, now); err != nil {
		return nil, err
	}
	user.TokenVersion = version
	user.LastSeenAt = &now
	user.LastLoginAt = &now

	token, err := s.tokens.GenerateToken(user.ID, user.Email, user.FullName, user.RoleCode(), user.GetPrivilegeCodes(), version)
	if err != nil {
		return nil, err
	}

	actor := Actor{ID: user.ID, Name: user.FullName, Email: user.Email, IP: ip}
	recordBestEffort(s.audit, s.log, actor, model.AuditLogin, "user", user.ID.String(), nil)
	s.log.Info("user logged in", zap.String("user_id", user.ID.String()), zap.String("ip", ip))

	return &LoginResponse{
		Token:      token,
		ExpiresAt:  now.Add(s.tokens.Expiration()),
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Logout(actor Actor) error {
	if err := s.userRepo.UpdateTokenVersion(actor.ID, uuid.New().String()); err != nil {
		return err
	}
	recordBestEffort(s.audit, s.log, actor, model.AuditLogout, "user", actor.ID.String(), nil)
	s.events.Publish(ws.Event{
		Type: "user_status_update",
		Data: map[string]interface{}{"user_id": actor.ID.String(), "status": "offline"},
	})
	return nil
}

func (s *authService) ChangePassword(userID uuid.UUID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if len(newPassword) < 6 {
		return validationf("La nueva contraseña debe tener al menos 6 caracteres")
	}
	if err := user.SetPassword(newPassword); err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(user.ID, user.Password)
}

func (s *authService) Authenticate(tokenString string) (*model.User, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	return user, nil
}

func (s *authService) ValidateToken(tokenString string) (*TokenValidationResponse, error) {
	user, err := s.Authenticate(tokenString)
	if err != nil {
		return nil, err
	}
	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Role:       user.Role,
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	now := s.now()
	if err := s.userRepo.UpdateLastSeen(userID, now); err != nil {
		return err
	}
	// Broadcast on every heartbeat so newly connected clients catch up.
	s.events.Publish(ws.Event{
		Type: "user_status_update",
		Data: map[string]interface{}{"user_id": userID.String(), "status": "online", "last_seen_at": now},
	})
	return nil
}
