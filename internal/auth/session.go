package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/bizledger-backend/internal/access"
	pkgAuth "github.com/angelmondragon/bizledger-backend/pkg/auth"
	"github.com/angelmondragon/bizledger-backend/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/bizledger-backend/pkg/errors"
)

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// Refresh rotates the refresh token and re-mints the access token. The active business is
// kept only while the membership is still active.
func (s *service) Refresh(ctx context.Context, accessToken string, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, refreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	payload := pkgAuth.AccessTokenPayload{UserID: claims.UserID, JTI: newAccessID}
	if claims.ActiveBusinessID != nil {
		role, ok, err := s.activeRole(ctx, claims.UserID, *claims.ActiveBusinessID)
		if err != nil {
			return nil, err
		}
		if ok {
			id := *claims.ActiveBusinessID
			payload.ActiveBusinessID = &id
			payload.Role = role
		}
	}
	return s.mintPair(payload, refreshToken)
}

// SwitchBusiness moves the caller's session to businessID. An active membership is required.
func (s *service) SwitchBusiness(ctx context.Context, sess access.Session, businessID uuid.UUID) (*TokenPair, error) {
	if sess.UserID == uuid.Nil || sess.AccessID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	role, ok, err := s.activeRole(ctx, sess.UserID, businessID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "business membership required")
	}

	newAccessID, refreshToken, err := s.session.Reissue(ctx, sess.AccessID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid session")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reissue session")
	}

	return s.mintPair(pkgAuth.AccessTokenPayload{
		UserID:           sess.UserID,
		ActiveBusinessID: &businessID,
		Role:             role,
		JTI:              newAccessID,
	}, refreshToken)
}

func (s *service) mintPair(payload pkgAuth.AccessTokenPayload, refreshToken string) (*TokenPair, error) {
	accessToken, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		ActiveBusinessID: payload.ActiveBusinessID,
	}, nil
}
