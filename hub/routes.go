package hub

import "net/http"

const (
	RouteLogin = "/login"

	RouteAuthToken        = "/api/v1/auth/token"
	RouteAuthRefresh      = "/api/v1/auth/refresh"
	RouteAuthLogout       = "/api/v1/auth/logout"
	RoutePasswordRecovery = "/api/v1/auth/password-recovery"
	RouteResetPassword    = "/api/v1/auth/reset-password"

	RouteUsersMe = "/api/v1/users/me"

	RouteMFAEnable  = "/api/v1/auth/mfa/enable"
	RouteMFAConfirm = "/api/v1/auth/mfa/confirm"
	RouteMFADisable = "/api/v1/auth/mfa/disable"

	RouteSessions          = "/api/v1/auth/sessions"
	RouteSessionByID       = "/api/v1/auth/sessions/{id}"
	RouteSessionsAllExcept = "/api/v1/auth/sessions/all-except-current"
)

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteLogin, s.LoginPageHandler())

	// Preflight requests never match the method-specific patterns below;
	// the CORS middleware answers them here.
	s.RegisterRouteHandler("OPTIONS /api/v1/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, s.APIMiddleware()...))

	s.RegisterRouteHandler("POST "+RouteAuthToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePasswordRecovery, ChainMiddleware(s.PasswordRecoveryHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteUsersMe, ChainMiddleware(s.CurrentUserHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("PUT "+RouteUsersMe, ChainMiddleware(s.UpdateProfileHandler(), s.ProtectedAPIMiddleware()...))

	s.RegisterRouteHandler("POST "+RouteMFAEnable, ChainMiddleware(s.MFAEnableHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteMFAConfirm, ChainMiddleware(s.MFAConfirmHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteMFADisable, ChainMiddleware(s.MFADisableHandler(), s.ProtectedAPIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteSessions, ChainMiddleware(s.SessionsListHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteSessionByID, ChainMiddleware(s.SessionRevokeHandler(), s.ProtectedAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSessionsAllExcept, ChainMiddleware(s.SessionsRevokeOthersHandler(), s.ProtectedAPIMiddleware()...))
}
