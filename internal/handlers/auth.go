package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/emodiary/apiserver/internal/services"
	"github.com/emodiary/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const tokenTypeBearer = "bearer"

// AuthHandler provides registration, login and identity endpoints.
type AuthHandler struct {
	responder
	users  *services.UserService
	access *services.AccessControl
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(users *services.UserService, access *services.AccessControl, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: newResponder(logger),
		users:     users,
		access:    access,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, users *services.UserService, access *services.AccessControl, logger *slog.Logger) {
	handler := NewAuthHandler(users, access, logger)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/token", handler.Token)
	r.With(RequireAuth(access)).Get("/me", handler.Me)
}

// RequireAuth resolves the bearer token to a user and injects it into the request context.
func RequireAuth(access *services.AccessControl) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := access.Authenticate(r.Context(), token)
			if err != nil {
				status := statusFor(err)
				if status == http.StatusInternalServerError {
					writeError(w, status, "failed to authenticate")
					return
				}
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

// RequireRole rejects authenticated callers whose role differs from role. It must run after
// RequireAuth.
func RequireRole(role types.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if user.Role != role {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register creates a new account with its role profile and returns a token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.users.Register(r.Context(), services.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		h.fail(w, r, err, "register")
		return
	}

	writeJSON(w, http.StatusCreated, newTokenResponse(session))
}

// Login verifies a JSON email/password pair and returns a token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.login(w, r, req.Email, req.Password)
}

// Token is the form-encoded login used by OAuth2 password-flow clients. The username field
// carries the email.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}
	h.login(w, r, r.PostForm.Get("username"), r.PostForm.Get("password"))
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, email, password string) {
	if strings.TrimSpace(email) == "" || password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	session, err := h.users.Login(r.Context(), email, password)
	if err != nil {
		if statusFor(err) == http.StatusUnauthorized {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.fail(w, r, err, "login")
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(session))
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        types.User `json:"user"`
}

func newTokenResponse(session services.Session) TokenResponse {
	return TokenResponse{
		AccessToken: session.AccessToken,
		TokenType:   tokenTypeBearer,
		User:        session.User,
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", false
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
