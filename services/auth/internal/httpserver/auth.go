package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	jwthelp "github.com/Skotchmaster/bubba_express/pkg/jwt"
	"github.com/Skotchmaster/bubba_express/pkg/logging"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/service"
	"github.com/Skotchmaster/bubba_express/services/auth/internal/transport"
)

const maxPhotoSize = 5 << 20

type AuthHTTP struct {
	Svc *service.AuthService
}

func fail(l *slog.Logger, event string, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"
	switch {
	case errors.Is(err, service.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, service.ErrInvalidCredentials.Error()
	case errors.Is(err, service.ErrInvalidRefreshToken):
		status, msg = http.StatusUnauthorized, "invalid refresh token"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "user not found"
	case errors.Is(err, service.ErrConflict):
		status, msg = http.StatusConflict, err.Error()
	}

	if status >= 500 {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "reason", msg, "error", err)
	}
	return echo.NewHTTPError(status, msg)
}

func currentUser(c echo.Context) (uuid.UUID, error) {
	s, _ := c.Get("user_id").(string)
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}

func setSession(c echo.Context, res *service.LoginResult) {
	c.SetCookie(jwthelp.CreateCookie(jwthelp.AccessCookie, res.AccessToken, "/", res.AccessExp))
	c.SetCookie(jwthelp.CreateCookie(jwthelp.RefreshCookie, res.RefreshToken, "/", res.RefreshExp))
}

func clearSession(c echo.Context) {
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.RefreshCookie, "/"))
	c.SetCookie(jwthelp.DeleteCookie(jwthelp.AccessCookie, "/"))
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	user, err := h.Svc.Register(ctx, req)
	if err != nil {
		return fail(l, "register_error", err)
	}

	l.Info("register_successful", "user_id", user.ID)
	return c.JSON(http.StatusCreated, transport.FromUser(user))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	setSession(c, res)
	l.Info("login_successful", "user_id", res.User.ID, "admin", res.IsAdmin)

	return c.JSON(http.StatusOK, echo.Map{
		"is_admin": res.IsAdmin,
		"user":     transport.FromUser(res.User),
	})
}

// Refresh is called by browsers and by the other services' auto-refresh middleware.
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	cookie, err := c.Cookie(jwthelp.RefreshCookie)
	if err != nil || cookie.Value == "" {
		l.Warn("refresh_error", "status", 401, "reason", "refresh token missing")
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token missing")
	}

	res, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		clearSession(c)
		return fail(l, "refresh_error", err)
	}

	setSession(c, res)
	return c.JSON(http.StatusOK, transport.TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		AccessExp:    res.AccessExp.Unix(),
		RefreshExp:   res.RefreshExp.Unix(),
		IsAdmin:      res.IsAdmin,
	})
}

func (h *AuthHTTP) LogOut(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	if cookie, err := c.Cookie(jwthelp.RefreshCookie); err == nil {
		if err := h.Svc.LogOut(ctx, cookie.Value); err != nil {
			clearSession(c)
			l.Error("logout_error", "status", 500, "reason", "cannot revoke refresh token", "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "logout failed")
		}
	}

	clearSession(c)
	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	id, err := currentUser(c)
	if err != nil {
		return err
	}
	u, err := h.Svc.Profile(ctx, id)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromUser(u))
}

func (h *AuthHTTP) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.update_me")

	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_me_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	u, err := h.Svc.UpdateProfile(ctx, id, req)
	if err != nil {
		return fail(l, "update_me_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromUser(u))
}

func (h *AuthHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.change_password")

	id, err := currentUser(c)
	if err != nil {
		return err
	}
	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("change_password_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Svc.ChangePassword(ctx, id, req.Current, req.New); err != nil {
		return fail(l, "change_password_error", err)
	}

	clearSession(c)
	l.Info("password_changed", "user_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHTTP) UploadPhoto(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.upload_photo")

	id, err := currentUser(c)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("photo")
	if err != nil {
		l.Warn("upload_photo_error", "status", 400, "reason", "photo file required", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "photo file required")
	}
	if fh.Size > maxPhotoSize {
		l.Warn("upload_photo_error", "status", 400, "reason", "photo too large", "size", fh.Size)
		return echo.NewHTTPError(http.StatusBadRequest, "photo too large")
	}

	f, err := fh.Open()
	if err != nil {
		return fail(l, "upload_photo_error", err)
	}
	defer f.Close()

	u, err := h.Svc.UploadPhoto(ctx, id, fh.Header.Get(echo.HeaderContentType), f, fh.Size)
	if err != nil {
		return fail(l, "upload_photo_error", err)
	}
	return c.JSON(http.StatusOK, transport.FromUser(u))
}
