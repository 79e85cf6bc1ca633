package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	pkghash "github.com/Skotchmaster/bubba_express/pkg/hash"
	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/pkg/mykafka"
	"github.com/Skotchmaster/bubba_express/pkg/objectstore"
	"github.com/Skotchmaster/bubba_express/pkg/tokens"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/models"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/repo"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/transport"
)

var (
	ErrValidation          = errors.New("validation")
	ErrConflict            = errors.New("conflict")
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const (
	MinPasswordLen = 6

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

type Repository interface {
	CreateUserIfNotExists(ctx context.Context, u *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, fields map[string]any) error
	AddRefresh(ctx context.Context, token *models.RefreshToken) error
	RotateRefreshToken(ctx context.Context, oldJTI, oldToken string, next *models.RefreshToken) error
	RevokeRefresh(ctx context.Context, refreshToken string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

type AuthService struct {
	Repo          Repository
	JWTSecret     []byte
	RefreshSecret []byte
	// AdminEmails are promoted to staff at login regardless of the stored role.
	AdminEmails map[string]struct{}
	Producer    mykafka.EventPublisher
	Photos      objectstore.Uploader

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type LoginResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	IsAdmin      bool
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AdminSet builds the AdminEmails lookup from a list.
func AdminSet(emails []string) map[string]struct{} {
	out := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		if e = NormalizeEmail(e); e != "" {
			out[e] = struct{}{}
		}
	}
	return out
}

func (s *AuthService) roleOf(u *models.User) string {
	if u.Role == tokens.RoleAdmin {
		return tokens.RoleAdmin
	}
	if _, ok := s.AdminEmails[u.Email]; ok {
		return tokens.RoleAdmin
	}
	return tokens.RoleUser
}

func (s *AuthService) accessTTL() time.Duration {
	if s.AccessTTL > 0 {
		return s.AccessTTL
	}
	return DefaultAccessTTL
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

func (s *AuthService) CreateAccessToken(u *models.User, role string, exp time.Time) (string, error) {
	return tokens.SignAccess(tokens.AccessClaims{
		Role:  role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}, s.JWTSecret)
}

func (s *AuthService) CreateRefreshToken(userID uuid.UUID, exp time.Time) (string, *models.RefreshToken, error) {
	jti := jwthelp.NewJTI()
	token, err := tokens.SignRefresh(tokens.RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	}, s.RefreshSecret)
	if err != nil {
		return "", nil, err
	}
	return token, &models.RefreshToken{
		UserID:    userID,
		TokenHash: jwthelp.Sha256Hex(token),
		JTI:       jti,
		ExpiresAt: exp.Unix(),
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email := NormalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(in.Password) < MinPasswordLen {
		return nil, fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLen)
	}

	pwHash, err := pkghash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Email:        email,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: pwHash,
		Role:         tokens.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	s.publish(ctx, user)
	user.Role = s.roleOf(user)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	res, refresh, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefresh(ctx, refresh); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *AuthService) issue(user *models.User) (*LoginResult, *models.RefreshToken, error) {
	now := time.Now()
	role := s.roleOf(user)
	user.Role = role

	accessExp := now.Add(s.accessTTL())
	access, err := s.CreateAccessToken(user, role, accessExp)
	if err != nil {
		return nil, nil, err
	}

	refreshExp := now.Add(s.refreshTTL())
	refresh, stored, err := s.CreateRefreshToken(user.ID, refreshExp)
	if err != nil {
		return nil, nil, err
	}

	return &LoginResult{
		User:         user,
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		IsAdmin:      role == tokens.RoleAdmin,
	}, stored, nil
}

// Refresh trades a live refresh token for a new pair. The presented token is revoked
// in the same transaction that stores its successor, so each token works once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user is gone", ErrInvalidRefreshToken)
		}
		return nil, err
	}

	res, next, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, refreshToken, next); err != nil {
		if errors.Is(err, repo.ErrRefreshUnusable) || errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
		}
		return nil, err
	}
	return res, nil
}

func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Repo.RevokeRefresh(ctx, refreshToken)
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	u, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, err
	}
	u.Role = s.roleOf(u)
	return u, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, in transport.UpdateProfileRequest) (*models.User, error) {
	fields := map[string]any{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		fields["name"] = name
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if len(fields) > 0 {
		if err := s.Repo.UpdateUser(ctx, userID, fields); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
			}
			return nil, err
		}
	}
	return s.Profile(ctx, userID)
}

// ChangePassword checks the current password, stores the new hash and ends every session.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	if len(next) < MinPasswordLen {
		return fmt.Errorf("%w: password must have at least %d characters", ErrValidation, MinPasswordLen)
	}
	u, err := s.Profile(ctx, userID)
	if err != nil {
		return err
	}
	if !pkghash.CheckPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}

	h, err := pkghash.HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.Repo.UpdateUser(ctx, userID, map[string]any{"password_hash": h}); err != nil {
		return err
	}
	return s.Repo.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) UploadPhoto(ctx context.Context, userID uuid.UUID, contentType string, r io.Reader, size int64) (*models.User, error) {
	if s.Photos == nil {
		return nil, fmt.Errorf("%w: photo uploads are disabled", ErrValidation)
	}
	if _, err := s.Profile(ctx, userID); err != nil {
		return nil, err
	}

	url, err := s.Photos.Upload(ctx, "users", contentType, r, size)
	if err != nil {
		if errors.Is(err, objectstore.ErrUnsupportedType) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}
	if err := s.Repo.UpdateUser(ctx, userID, map[string]any{"photo_url": url}); err != nil {
		return nil, err
	}
	return s.Profile(ctx, userID)
}

func (s *AuthService) publish(ctx context.Context, u *models.User) {
	if s.Producer == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	ev := mykafka.UserEvent{
		Type:       mykafka.EventUserRegistered,
		UserID:     u.ID,
		Email:      u.Email,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Producer.PublishEvent(pubCtx, mykafka.TopicUserEvents, u.ID.String(), ev); err != nil {
		logging.FromContext(ctx).Error("user_event_publish_error", "user_id", u.ID, "error", err)
	}
}
