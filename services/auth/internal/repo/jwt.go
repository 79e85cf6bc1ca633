package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/models"
)

var ErrRefreshUnusable = errors.New("refresh token expired or revoked")

func (r *GormRepo) AddRefresh(ctx context.Context, token *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func usable(db *gorm.DB, jti, hash string) error {
	var refresh models.RefreshToken
	if err := db.Where("jti = ? AND token_hash = ?", jti, hash).First(&refresh).Error; err != nil {
		return err
	}
	if refresh.Revoked || refresh.ExpiresAt < time.Now().Unix() {
		return ErrRefreshUnusable
	}
	return nil
}

// RotateRefreshToken revokes oldJTI and stores next in one transaction.
// The revoke is conditional, so of two concurrent rotations of the same token only one succeeds.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldToken string, next *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := usable(tx, oldJTI, jwthelp.Sha256Hex(oldToken)); err != nil {
			return err
		}

		res := tx.Model(&models.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshUnusable
		}

		return tx.Create(next).Error
	})
}

func (r *GormRepo) RevokeRefresh(ctx context.Context, refreshToken string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", jwthelp.Sha256Hex(refreshToken)).
		Update("revoked", true).Error
}

// RevokeAllForUser ends every session of a user, used after a password change.
func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true).Error
}
