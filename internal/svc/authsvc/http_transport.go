package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/infra/logging"
	http_ "github.com/mkrupp/nextshop/internal/infra/transport/http"
)

var (
	// ErrNoEmail is returned when the email is missing from the request.
	ErrNoEmail = errors.New("no email")
	// ErrNoPassword is returned when the password is missing from the request.
	ErrNoPassword = errors.New("no password")
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport handles HTTP requests for the authentication service.
// It provides endpoints for registration, login, token validation, and
// profile management.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
	cfg     HTTPTransportConfig
}

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
// It requires an AuthService for handling authentication operations.
func NewHTTPTransport(
	authSvc *AuthService,
	cfg HTTPTransportConfig,
) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		cfg:     cfg,
	}
}

// ServeHTTP implements http.Handler and sets up routes for the auth service endpoints:
// - POST /auth/register: Register a new account
// - POST /auth/login: Login and get an auth token
// - POST /auth/validate: Validate an auth token
// - GET /auth/profile: Fetch the authenticated account
// - PUT /auth/profile: Update the authenticated account.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", ht.HandleRegister)
	mux.HandleFunc("POST /auth/login", ht.HandleLogin)
	mux.HandleFunc("POST /auth/validate", ht.HandleValidate)
	mux.HandleFunc("GET /auth/profile", ht.HandleGetProfile)
	mux.HandleFunc("PUT /auth/profile", ht.HandleUpdateProfile)
	mux.ServeHTTP(w, r)
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type profileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// HandleRegister processes account registration requests.
// Expects a JSON body with email, name, and password.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	if req.Email == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return ErrNoEmail
	}

	log = log.With(logging.Group("user", "email", req.Email))

	if req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return ErrNoPassword
	}

	// Register user
	if err := ht.authSvc.RegisterUser(r.Context(), req.Email, req.Name, req.Password); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("register user: %w", err)
	}

	w.WriteHeader(http.StatusCreated)

	return nil
}

// HandleLogin processes login requests.
// Expects a JSON body with email and password.
// Returns an auth token and the account on successful login.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	if req.Email == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return ErrNoEmail
	}

	log = log.With(logging.Group("user", "email", req.Email))

	if req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return ErrNoPassword
	}

	// Login user
	token, account, err := ht.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("login user: %w", err)
	}

	// Return token and account
	if err := json.NewEncoder(w).Encode(domain.AuthTokenResponse{
		Token: token,
		User:  *account,
	}); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleValidate processes token validation requests.
// Expects the token in the Authorization header with Bearer scheme.
// Returns the email associated with the token if valid.
func (ht *HTTPTransport) HandleValidate(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleValidate(w, r)
}

func (ht *HTTPTransport) handleValidate(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user token validation failed", "error", err)
		} else {
			log.DebugContext(ctx, "user token validated")
		}
	}(r.Context())

	token, err := ht.validateRequest(w, r)
	if err != nil {
		return err
	}

	log = log.With(logging.Group("token",
		"email", token.Email,
		"exp", time.Unix(token.ExpiresAt, 0).UTC().Format(time.RFC3339),
		"iat", time.Unix(token.IssuedAt, 0).UTC().Format(time.RFC3339),
	))

	// Return email
	if _, err := w.Write([]byte(token.Email)); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

// HandleGetProfile returns the account belonging to the presented token.
func (ht *HTTPTransport) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetProfile(w, r)
}

func (ht *HTTPTransport) handleGetProfile(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get profile failed", "error", err)
		} else {
			log.DebugContext(ctx, "profile fetched")
		}
	}(r.Context())

	token, err := ht.validateRequest(w, r)
	if err != nil {
		return err
	}

	account, err := ht.authSvc.GetProfile(r.Context(), token.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("get profile: %w", err)
	}

	if err := json.NewEncoder(w).Encode(account); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// HandleUpdateProfile updates the account belonging to the presented token.
// Expects a JSON body with name and avatar.
func (ht *HTTPTransport) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpdateProfile(w, r)
}

func (ht *HTTPTransport) handleUpdateProfile(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "update profile failed", "error", err)
		} else {
			log.DebugContext(ctx, "profile updated")
		}
	}(r.Context())

	token, err := ht.validateRequest(w, r)
	if err != nil {
		return err
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return fmt.Errorf("decode request: %w", err)
	}

	account, err := ht.authSvc.UpdateProfile(r.Context(), token.Email, req.Name, req.Avatar)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}

		return fmt.Errorf("update profile: %w", err)
	}

	if err := json.NewEncoder(w).Encode(account); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// validateRequest extracts and validates the bearer token of a request.
// Writes the matching error status before returning an error.
func (ht *HTTPTransport) validateRequest(
	w http.ResponseWriter,
	r *http.Request,
) (domain.AuthToken, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)

		return domain.AuthToken{}, domain.ErrNoAuthToken
	}

	tokenString, _ := strings.CutPrefix(authHeader, "Bearer")
	tokenString = strings.TrimSpace(tokenString)

	token, err := ht.authSvc.ValidateToken(r.Context(), tokenString)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)

		return domain.AuthToken{}, fmt.Errorf("validate token: %w", err)
	}

	return token, nil
}
