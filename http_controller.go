package auth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ServiceName identifies this service in health responses.
const ServiceName = "auth-service"

// AuthResponse is the success envelope for register and login.
type AuthResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type AuthControllerRoutes struct {
	Register string
	Login    string
	Logout   string
	Health   string
	Me       string
}

type AuthController struct {
	Logger     Logger
	Auther     Authenticator
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if key != "" {
			c.ContextKey = key
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: "identity",
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Logout:   "/logout",
			Health:   "/health",
			Me:       "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the credential endpoints. The caller decides
// which middleware wraps protected and which stays open.
func RegisterAuthRoutes(app fiber.Router, protected fiber.Handler, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.Logout, controller.LogoutPost)
	app.Get(controller.Routes.Health, controller.Health)

	if protected != nil {
		app.Get(controller.Routes.Me, protected, controller.Me)
	}

	return controller
}

// RegistrationPayload is the register request body
type RegistrationPayload struct {
	Username string `form:"username" json:"username"`
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required.Error("El nombre de usuario es obligatorio"),
			validation.Length(3, 50).Error("El nombre de usuario debe tener entre 3 y 50 caracteres"),
		),
		validation.Field(
			&r.Email,
			validation.Required.Error("El email es obligatorio"),
			is.Email.Error("El email debe tener un formato válido"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("La contraseña es obligatoria"),
			validation.Length(6, 0).Error("La contraseña debe tener al menos 6 caracteres"),
		),
	)
}

// LoginPayload is the login request body
type LoginPayload struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Username,
			validation.Required.Error("El nombre de usuario es obligatorio"),
		),
		validation.Field(
			&r.Password,
			validation.Required.Error("La contraseña es obligatoria"),
		),
	)
}

func (a *AuthController) RegisterPost(c *fiber.Ctx) error {
	payload := new(RegistrationPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return validationResponse(c, map[string]string{"body": "Error parsing body"})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Warn("register validate payload", "error", err)
		return validationResponse(c, FormatValidationErrorToMap(err))
	}

	token, err := a.Auther.Register(c.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		a.Logger.Error("register error", "username", payload.Username, "error", err)
		return a.errorResponse(c, err)
	}

	return c.JSON(AuthResponse{
		Token:    token,
		Username: payload.Username,
		Message:  "Registro exitoso",
	})
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return validationResponse(c, map[string]string{"body": "Error parsing body"})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Warn("login validate payload", "error", err)
		return validationResponse(c, FormatValidationErrorToMap(err))
	}

	token, err := a.Auther.Login(c.Context(), payload.Username, payload.Password)
	if err != nil {
		a.Logger.Warn("login error", "username", payload.Username, "error", err)
		return a.errorResponse(c, err)
	}

	return c.JSON(AuthResponse{
		Token:    token,
		Username: payload.Username,
		Message:  "Login exitoso",
	})
}

// LogoutPost acknowledges the logout. The bearer token must be present and
// parseable, but nothing is revoked; the token stays valid until expiry.
func (a *AuthController) LogoutPost(c *fiber.Ctx) error {
	raw, err := bearerToken(c)
	if err != nil {
		a.Logger.Warn("logout without usable token")
		return a.errorResponse(c, err)
	}

	subject, err := a.Auther.TokenService().SubjectOf(raw)
	if err != nil {
		a.Logger.Warn("logout token parse error", "error", err)
		return a.errorResponse(c, ErrTokenInvalid)
	}

	message := a.Auther.Logout(c.Context(), subject)

	return c.JSON(fiber.Map{
		"message": message,
	})
}

func (a *AuthController) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "UP",
		"service": ServiceName,
	})
}

// Me returns the authenticated identity. It sits behind the authorization
// middleware, so reaching it anonymously is already impossible.
func (a *AuthController) Me(c *fiber.Ctx) error {
	identity, ok := c.Locals(a.ContextKey).(Identity)
	if !ok {
		return a.errorResponse(c, ErrTokenInvalid)
	}

	return c.JSON(fiber.Map{
		"id":       identity.ID(),
		"username": identity.Username(),
		"email":    identity.Email(),
		"active":   identity.Active(),
	})
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return "", ErrTokenRequired
	}
	return strings.TrimPrefix(header, "Bearer "), nil
}

// errorResponse translates rich errors at the boundary: the error's HTTP code
// and message become the response; anything unstructured collapses to a 500
// without leaking internal detail.
func (a *AuthController) errorResponse(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		a.Logger.Error("unstructured error at boundary", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error interno del servidor",
		})
	}

	if richErr.Category == errors.CategoryInternal {
		a.Logger.Error(
			"internal error at boundary",
			"error", richErr.Message,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error interno del servidor",
		})
	}

	status := richErr.Code
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	return c.Status(status).JSON(fiber.Map{
		"error": richErr.Message,
	})
}

func validationResponse(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":            "Errores de validación en los datos proporcionados",
		"validationErrors": fields,
	})
}

// FormatValidationErrorToMap flattens ozzo validation errors into a
// field -> message map for the response body.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if verrs, ok := err.(validation.Errors); ok {
		for field, ferr := range verrs {
			if ferr != nil {
				out[strings.ToLower(field)] = ferr.Error()
			}
		}
		return out
	}

	out["error"] = err.Error()
	return out
}
