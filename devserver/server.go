// Package devserver is an in-memory stand-in for the institute API used
// by integration tests and the portalctl serve command. It issues real
// HS256 token pairs and enforces the same bearer/role rules the
// production backend does, which is exactly what the SDK's refresh and
// guard paths need to be exercised against.
package devserver

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type Config struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

func (c Config) withDefaults() Config {
	if c.Secret == "" {
		c.Secret = "dev-only-secret"
	}
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = 15 * time.Minute
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = 24 * time.Hour
	}
	return c
}

type account struct {
	Password string
	Roles    []string
	Disabled bool
}

type Server struct {
	app    *fiber.App
	signer *signer
	logger *zap.Logger

	mu       sync.Mutex
	accounts map[string]*account
	courses  map[int64]map[string]any
	nextID   int64
}

type apiEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func New(config Config, logger *zap.Logger) *Server {
	config = config.withDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		app:    fiber.New(),
		signer: newSigner(config.Secret, config.AccessTokenTTL, config.RefreshTokenTTL),
		logger: logger,
		accounts: map[string]*account{
			"admin":   {Password: "admin123", Roles: []string{"ROLE_ADMIN"}},
			"root":    {Password: "root123", Roles: []string{"SUPER_ADMIN"}},
			"teacher": {Password: "teach123", Roles: []string{"ROLE_TEACHER"}},
		},
		courses: make(map[int64]map[string]any),
		nextID:  1,
	}
	s.routes()
	return s
}

// App exposes the fiber app for app.Test in integration tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) Listen(addr string) error {
	s.logger.Info("dev server listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error { return s.app.Shutdown() }

func (s *Server) routes() {
	api := s.app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", s.login)
	auth.Post("/register", s.register)
	auth.Post("/refresh", s.refresh)
	auth.Post("/forgot-password", s.acceptOnly)
	auth.Post("/reset-password", s.acceptOnly)

	courses := api.Group("/courses", s.requireAccess)
	courses.Get("/", s.listCourses)
	courses.Post("/", s.requireRole("ADMIN"), s.createCourse)
	courses.Delete("/:id", s.requireRole("ADMIN"), s.deleteCourse)

	api.Post("/users/change-password", s.requireAccess, s.changePassword)
}

func (s *Server) login(c fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind().Body(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request")
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Username]
	s.mu.Unlock()
	if !ok || acct.Password != req.Password {
		return fail(c, fiber.StatusUnauthorized, "invalid credentials")
	}
	if acct.Disabled {
		return fail(c, fiber.StatusForbidden, "account disabled")
	}
	return s.issue(c, req.Username, acct.Roles)
}

func (s *Server) register(c fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind().Body(&req); err != nil || req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "malformed request")
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Email]; exists {
		s.mu.Unlock()
		return fail(c, fiber.StatusConflict, "account already exists")
	}
	roles := []string{"ROLE_STUDENT"}
	if req.Role != "" {
		roles = []string{"ROLE_" + strings.ToUpper(req.Role)}
	}
	s.accounts[req.Email] = &account{Password: req.Password, Roles: roles}
	s.mu.Unlock()

	return s.issue(c, req.Email, roles)
}

func (s *Server) refresh(c fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.Bind().Body(&req); err != nil || req.RefreshToken == "" {
		return fail(c, fiber.StatusBadRequest, "malformed request")
	}
	claims, err := s.signer.validate(req.RefreshToken, tokenTypeRefresh)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "refresh token invalid")
	}

	s.mu.Lock()
	acct, ok := s.accounts[claims.Subject]
	s.mu.Unlock()
	if !ok || acct.Disabled {
		return fail(c, fiber.StatusUnauthorized, "unknown subject")
	}
	return s.issue(c, claims.Subject, acct.Roles)
}

func (s *Server) acceptOnly(c fiber.Ctx) error {
	return ok(c, nil, "accepted")
}

func (s *Server) issue(c fiber.Ctx, subject string, roles []string) error {
	access, refresh, err := s.signer.pair(subject, roles)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, "token generation failed")
	}
	return ok(c, fiber.Map{
		"token":        access,
		"refreshToken": refresh,
		"user": fiber.Map{
			"id":       1,
			"username": subject,
			"roles":    roles,
		},
	}, "")
}

// requireAccess validates the bearer token on protected routes and parks
// the caller's claims in locals.
func (s *Server) requireAccess(c fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return fail(c, fiber.StatusUnauthorized, "missing bearer token")
	}
	claims, err := s.signer.validate(strings.TrimPrefix(header, "Bearer "), tokenTypeAccess)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "token invalid")
	}
	c.Locals("claims", claims)
	return c.Next()
}

func (s *Server) requireRole(role string) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, _ := c.Locals("claims").(signedClaims)
		for _, r := range claims.Roles {
			r = strings.TrimPrefix(strings.ToUpper(r), "ROLE_")
			if r == role || r == "SUPER_ADMIN" {
				return c.Next()
			}
		}
		return fail(c, fiber.StatusForbidden, "insufficient role")
	}
}

func (s *Server) changePassword(c fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := c.Bind().Body(&req); err != nil || req.NewPassword == "" {
		return fail(c, fiber.StatusBadRequest, "malformed request")
	}
	claims, _ := c.Locals("claims").(signedClaims)

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, exists := s.accounts[claims.Subject]
	if !exists {
		return fail(c, fiber.StatusUnauthorized, "unknown subject")
	}
	if acct.Password != req.CurrentPassword {
		return fail(c, fiber.StatusBadRequest, "current password incorrect")
	}
	acct.Password = req.NewPassword
	return ok(c, nil, "password changed")
}

func (s *Server) listCourses(c fiber.Ctx) error {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.courses))
	for _, course := range s.courses {
		out = append(out, course)
	}
	s.mu.Unlock()
	return ok(c, out, "")
}

func (s *Server) createCourse(c fiber.Ctx) error {
	var body map[string]any
	if err := c.Bind().Body(&body); err != nil {
		return fail(c, fiber.StatusBadRequest, "malformed request")
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	body["id"] = id
	s.courses[id] = body
	s.mu.Unlock()
	return ok(c, body, "")
}

func (s *Server) deleteCourse(c fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "bad id")
	}
	s.mu.Lock()
	delete(s.courses, id)
	s.mu.Unlock()
	return ok(c, nil, "deleted")
}

func ok(c fiber.Ctx, data any, message string) error {
	return c.JSON(apiEnvelope{Status: "SUCCESS", Message: message, Data: data})
}

func fail(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(apiEnvelope{Status: "ERROR", Message: message})
}
