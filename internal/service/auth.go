package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/repository"
	"github.com/templui/goalkeeper/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

const (
	CodeInvalidCredential    = "auth/invalid-credential"
	CodeInvalidEmail         = "auth/invalid-email"
	CodeUserNotFound         = "auth/user-not-found"
	CodeWrongPassword        = "auth/wrong-password"
	CodeEmailAlreadyInUse    = "auth/email-already-in-use"
	CodeWeakPassword         = "auth/weak-password"
	CodeTooManyRequests      = "auth/too-many-requests"
	CodeNetworkRequestFailed = "auth/network-request-failed"
	CodeRequiresRecentLogin  = "auth/requires-recent-login"
	CodeInternalError        = "auth/internal-error"
	defaultAuthErrorMessage  = "Something went wrong. Please try again."
	msgWrongEmailOrPassword  = "Wrong email or password. Try again."
	msgMissingCredentials    = "Enter email and password (min 6 characters)"
	msgPasswordTooShort      = "Password must be at least 6 characters"
	RecentLoginWindow        = 5 * time.Minute
	authCookieName           = "auth_token"
)

var authErrorMessages = map[string]string{
	CodeInvalidCredential:    "Wrong email or password. Try again or create a new account.",
	CodeInvalidEmail:         "Please enter a valid email address.",
	CodeUserNotFound:         "No account with this email. You can create one by clicking Continue.",
	CodeWrongPassword:        "Wrong password. Try again.",
	CodeEmailAlreadyInUse:    "This email is already in use. Sign in instead.",
	CodeWeakPassword:         "Password should be at least 6 characters.",
	CodeTooManyRequests:      "Too many attempts. Please try again later.",
	CodeNetworkRequestFailed: "Network error. Check your connection and try again.",
	CodeRequiresRecentLogin:  "For security, please sign out, sign in again, then try Delete account.",
}

// AuthErrorMessage maps a backend error code to a message for the user.
// Unknown codes get fallback, or a generic message when fallback is empty.
func AuthErrorMessage(code, fallback string) string {
	if msg, ok := authErrorMessages[code]; ok {
		return msg
	}
	if fallback != "" {
		return fallback
	}
	return defaultAuthErrorMessage
}

// AuthError is an authentication failure with a backend code.
type AuthError struct {
	Code string
	Msg  string // overrides the table message when set
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message is the user-readable text for the error.
func (e *AuthError) Message() string {
	if e.Msg != "" {
		return e.Msg
	}
	return AuthErrorMessage(e.Code, "")
}

// AuthCode extracts the code of an AuthError anywhere in err's chain.
func AuthCode(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Code
	}
	return ""
}

// AuthStateFunc is called with the user after sign-in or sign-up and with
// a nil user after sign-out or account deletion.
type AuthStateFunc func(userID string, user *model.User)

type AuthService struct {
	userRepository repository.UserRepository
	jwtSecret      string
	jwtExpiry      time.Duration
	secureCookies  bool
	now            func() time.Time

	mu           sync.Mutex
	listeners    map[int]AuthStateFunc
	nextListener int
}

func NewAuthService(
	userRepository repository.UserRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
	secureCookies bool,
) *AuthService {
	return &AuthService{
		userRepository: userRepository,
		jwtSecret:      jwtSecret,
		jwtExpiry:      jwtExpiry,
		secureCookies:  secureCookies,
		now:            time.Now,
		listeners:      make(map[int]AuthStateFunc),
	}
}

// OnAuthStateChanged registers fn for sign-in and sign-out events. The
// returned func removes it.
func (s *AuthService) OnAuthStateChanged(fn AuthStateFunc) (remove func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) emit(userID string, user *model.User) {
	s.mu.Lock()
	fns := make([]AuthStateFunc, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(userID, user)
	}
}

func (s *AuthService) SignIn(email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	if validation.ValidateEmail(email) != nil {
		return nil, &AuthError{Code: CodeInvalidEmail}
	}

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, &AuthError{Code: CodeUserNotFound}
		}
		return nil, &AuthError{Code: CodeInternalError, Err: fmt.Errorf("failed to get user: %w", err)}
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, &AuthError{Code: CodeInvalidCredential}
	}

	s.emit(user.ID, user)
	return user, nil
}

func (s *AuthService) SignUp(email, password string) (*model.User, error) {
	email = normalizeEmail(email)

	if validation.ValidateEmail(email) != nil {
		return nil, &AuthError{Code: CodeInvalidEmail}
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, &AuthError{Code: CodeWeakPassword, Err: err}
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, &AuthError{Code: CodeInternalError, Err: fmt.Errorf("failed to hash password: %w", err)}
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, &AuthError{Code: CodeEmailAlreadyInUse}
		}
		return nil, &AuthError{Code: CodeInternalError, Err: fmt.Errorf("failed to create user: %w", err)}
	}

	slog.Info("user signed up", "user_id", user.ID)
	s.emit(user.ID, user)
	return user, nil
}

// Continue signs in, creating the account when no matching one exists.
// When creation finds the email taken, the password was wrong.
func (s *AuthService) Continue(email, password string) (*model.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &AuthError{Code: CodeInvalidEmail, Msg: msgMissingCredentials}
	}
	if len(password) < validation.MinPasswordLength {
		return nil, &AuthError{Code: CodeWeakPassword, Msg: msgPasswordTooShort}
	}

	user, err := s.SignIn(email, password)
	if err == nil {
		return user, nil
	}

	code := AuthCode(err)
	if code != CodeUserNotFound && code != CodeInvalidCredential {
		return nil, err
	}

	user, err = s.SignUp(email, password)
	if AuthCode(err) == CodeEmailAlreadyInUse {
		return nil, &AuthError{Code: CodeInvalidCredential, Msg: msgWrongEmailOrPassword}
	}
	return user, err
}

func (s *AuthService) SignOut(userID string) {
	s.emit(userID, nil)
}

// DeleteUser removes the account. The session must have signed in within
// RecentLoginWindow.
func (s *AuthService) DeleteUser(userID string, signedInAt time.Time) error {
	if s.now().Sub(signedInAt) > RecentLoginWindow {
		return &AuthError{Code: CodeRequiresRecentLogin}
	}

	err := s.userRepository.Delete(userID)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return &AuthError{Code: CodeInternalError, Err: fmt.Errorf("failed to delete user: %w", err)}
	}

	slog.Info("user deleted", "user_id", userID)
	s.emit(userID, nil)
	return nil
}

func (s *AuthService) ByID(userID string) (*model.User, error) {
	return s.userRepository.ByID(userID)
}

// RecentLogin reports whether a session that signed in at signedInAt may
// still perform sensitive actions.
func (s *AuthService) RecentLogin(signedInAt time.Time) bool {
	return s.now().Sub(signedInAt) <= RecentLoginWindow
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := s.now()
	expiry := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiry.Unix(),
		"iat":     now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiry, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

func (s *AuthService) SetJWTCookie(w http.ResponseWriter, token string, expiry time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Expires:  expiry,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearJWTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// CookieName is the name of the session cookie.
func (s *AuthService) CookieName() string {
	return authCookieName
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
