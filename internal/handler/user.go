package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bankauth/internal"
	"bankauth/internal/config"
	"bankauth/internal/constants"
	"bankauth/internal/failure"
	"bankauth/internal/logger"
	"bankauth/internal/middleware"
	"bankauth/internal/store/pg/repository"
	"bankauth/internal/token"
	loginusecase "bankauth/internal/usecase/login_use_case"
	refreshaccesstokenusecase "bankauth/internal/usecase/refresh_access_token_use_case"
	registerusecase "bankauth/internal/usecase/register_use_case"
	"bankauth/internal/utility"
)

// UserService is implemented by *service.UserService.
type UserService interface {
	RegisterUser(ctx context.Context, req registerusecase.Payload) (*registerusecase.Response, error)
	LoginUser(ctx context.Context, req loginusecase.Payload) (*token.Pair, error)
	RefreshAccessToken(ctx context.Context, req refreshaccesstokenusecase.Payload) (*refreshaccesstokenusecase.Response, error)
	GetUserInfo(ctx context.Context, search string) (*repository.User, error)
}

type UserHandler struct {
	userService UserService
	cookies     config.CookieConfig
	now         func() time.Time
}

type UserInfoResponse struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Address     string `json:"address"`
	PhoneNumber string `json:"phoneNumber"`
	BirthDate   string `json:"birthdate"`
}

func NewUserHandler(userService UserService, cookies config.CookieConfig) *UserHandler {
	return &UserHandler{
		userService: userService,
		cookies:     cookies,
		now:         time.Now,
	}
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn().
			Err(err).
			Str("path", r.URL.Path).
			Msg("failed to decode registration request")

		internal.Respond(w).Message("invalid request body").BadRequest(err)
		return
	}
	defer r.Body.Close()

	payload, err := req.payload(h.now())
	if err != nil {
		writeError(w, err)
		return
	}
	payload.IP = utility.GetClientIP(r)
	payload.UserAgent = r.UserAgent()

	result, err := h.userService.RegisterUser(r.Context(), *payload)
	if err != nil {
		writeError(w, err)
		return
	}

	internal.Respond(w).
		Status(http.StatusCreated).
		Header("X-Request-ID", utility.GetRequestID(r)).
		Message(result.Confirmation).
		Send()
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		internal.
			Respond(w).
			Message("invalid request body").
			BadRequest(err)
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		internal.Respond(w).
			Message("username and password are required").
			BadRequest(errors.New("missing credentials"))
		return
	}

	pair, err := h.userService.LoginUser(r.Context(), loginusecase.Payload{
		Username:  req.Username,
		Password:  req.Password,
		IP:        utility.GetClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		var unreachable *failure.ProviderUnreachableError
		if errors.As(err, &unreachable) {
			internal.Respond(w).
				Status(http.StatusServiceUnavailable).
				Message("identity provider unavailable").
				Error(err).
				Send()
			return
		}
		writeError(w, err)
		return
	}

	h.tokenCookies(internal.Respond(w), pair).
		Message("login successful").
		Send()
}

// Refresh reads the token pair from the body and falls back to cookies. A
// still-valid access token is answered without contacting the provider.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest

	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug().
				Err(err).
				Str("path", r.URL.Path).
				Msg("refresh body unreadable, using cookies")
		}
		defer r.Body.Close()
	}

	if req.AccessToken == "" {
		req.AccessToken = cookieValue(r, constants.AccessTokenCookie)
	}
	if req.RefreshToken == "" {
		req.RefreshToken = cookieValue(r, constants.RefreshTokenCookie)
	}

	result, err := h.userService.RefreshAccessToken(r.Context(), refreshaccesstokenusecase.Payload{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
	})
	if err != nil {
		internal.Respond(w).
			Message("token refresh failed").
			Unauthorized(err)
		return
	}

	if !result.Refreshed {
		internal.Respond(w).
			Message("token still valid").
			Send()
		return
	}

	h.tokenCookies(internal.Respond(w), result.Pair).
		Message("token refreshed").
		Send()
}

// Me looks a user up by email or username. Without a search term it returns
// the caller's own profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	if search == "" {
		if principal, ok := middleware.Principal(r.Context()); ok {
			search = principal.Username
		}
	}

	user, err := h.userService.GetUserInfo(r.Context(), search)
	if err != nil {
		writeError(w, err)
		return
	}

	internal.Respond(w).OK(UserInfoResponse{
		ID:          user.ID,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Email:       user.Email,
		Address:     user.Address,
		PhoneNumber: user.PhoneNumber,
		BirthDate:   user.BirthDate.Format(time.DateOnly),
	})
}

func (h *UserHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	internal.Respond(w).
		Status(http.StatusNotFound).
		Code(failure.CodeNotFound).
		Error(errors.New("endpoint not found")).
		Message("The requested resource does not exist").
		Send()
}

func (h *UserHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	internal.Respond(w).
		Status(http.StatusMethodNotAllowed).
		Code(failure.CodeValidation).
		Error(errors.New("method not allowed")).
		Message("method not allowed").
		Send()
}

func (h *UserHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	internal.Respond(w).OK(map[string]any{
		"status":  "healthy",
		"service": "bankauth",
	})
}

func (h *UserHandler) tokenCookies(rw *internal.ResponseWriter, pair *token.Pair) *internal.ResponseWriter {
	return rw.
		Cookie(h.cookie(constants.AccessTokenCookie, pair.AccessToken)).
		Cookie(h.cookie(constants.RefreshTokenCookie, pair.RefreshToken))
}

func (h *UserHandler) cookie(name, value string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   h.cookies.MaxAge,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
