package auth_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	auth "github.com/sura/auth-service"
)

func newTestApp(t *testing.T, auther auth.Authenticator) *fiber.App {
	t.Helper()

	app := fiber.New()
	auth.RegisterAuthRoutes(app, nil,
		auth.WithAuthenticator(auther),
		auth.WithControllerLogger(NoopLogger{}),
	)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)

	out := map[string]any{}
	assert.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestRegisterEndpoint(t *testing.T) {
	t.Run("valid registration returns token and username", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Register", mock.Anything, "alice", "alice@example.com", "password123").
			Return("signed-token", nil)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "signed-token", body["token"])
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "Registro exitoso", body["message"])

		auther.AssertExpectations(t)
	})

	t.Run("invalid payload returns field errors", func(t *testing.T) {
		app := newTestApp(t, &MockAuthenticator{})
		resp := postJSON(t, app, "/register", map[string]string{
			"username": "ab",
			"email":    "not-an-email",
			"password": "123",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "Errores de validación en los datos proporcionados", body["error"])

		fields := body["validationErrors"].(map[string]any)
		assert.Equal(t, "El nombre de usuario debe tener entre 3 y 50 caracteres", fields["username"])
		assert.Equal(t, "El email debe tener un formato válido", fields["email"])
		assert.Equal(t, "La contraseña debe tener al menos 6 caracteres", fields["password"])
	})

	t.Run("missing fields return required errors", func(t *testing.T) {
		app := newTestApp(t, &MockAuthenticator{})
		resp := postJSON(t, app, "/register", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		body := decodeBody(t, resp)
		fields := body["validationErrors"].(map[string]any)
		assert.Equal(t, "El nombre de usuario es obligatorio", fields["username"])
		assert.Equal(t, "El email es obligatorio", fields["email"])
		assert.Equal(t, "La contraseña es obligatoria", fields["password"])
	})

	t.Run("duplicate username returns 400 with its message", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Register", mock.Anything, "alice", "alice@example.com", "password123").
			Return("", auth.ErrDuplicateUsername)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/register", map[string]string{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Nombre de usuario ya registrado", decodeBody(t, resp)["error"])
	})

	t.Run("duplicate email returns 400 with its message", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Register", mock.Anything, "bob", "alice@example.com", "password123").
			Return("", auth.ErrDuplicateEmail)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/register", map[string]string{
			"username": "bob",
			"email":    "alice@example.com",
			"password": "password123",
		})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "El email ya está registrado", decodeBody(t, resp)["error"])
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Run("valid credentials return a token", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Login", mock.Anything, "alice", "password123").
			Return("signed-token", nil)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/login", map[string]string{
			"username": "alice",
			"password": "password123",
		})

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		assert.Equal(t, "signed-token", body["token"])
		assert.Equal(t, "alice", body["username"])
		assert.Equal(t, "Login exitoso", body["message"])
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Login", mock.Anything, "ghost", "whatever").
			Return("", auth.ErrUserNotFound)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/login", map[string]string{
			"username": "ghost",
			"password": "whatever",
		})

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Usuario no encontrado", decodeBody(t, resp)["error"])
	})

	t.Run("wrong password returns 401", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Login", mock.Anything, "alice", "wrong").
			Return("", auth.ErrInvalidCredentials)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/login", map[string]string{
			"username": "alice",
			"password": "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Credenciales inválidas", decodeBody(t, resp)["error"])
	})

	t.Run("missing fields return required errors", func(t *testing.T) {
		app := newTestApp(t, &MockAuthenticator{})
		resp := postJSON(t, app, "/login", map[string]string{})

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		fields := decodeBody(t, resp)["validationErrors"].(map[string]any)
		assert.Equal(t, "El nombre de usuario es obligatorio", fields["username"])
		assert.Equal(t, "La contraseña es obligatoria", fields["password"])
	})

	t.Run("unstructured failure returns a generic 500", func(t *testing.T) {
		auther := &MockAuthenticator{}
		auther.On("Login", mock.Anything, "alice", "password123").
			Return("", assert.AnError)

		app := newTestApp(t, auther)
		resp := postJSON(t, app, "/login", map[string]string{
			"username": "alice",
			"password": "password123",
		})

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Error interno del servidor", decodeBody(t, resp)["error"])
	})
}

func TestLogoutEndpoint(t *testing.T) {
	t.Run("valid token returns the confirmation message", func(t *testing.T) {
		ts := &MockTokenService{}
		ts.On("SubjectOf", "signed-token").Return("alice", nil)

		auther := &MockAuthenticator{}
		auther.On("TokenService").Return(auth.TokenService(ts))
		auther.On("Logout", mock.Anything, "alice").Return(auth.LogoutMessage)

		app := newTestApp(t, auther)

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer signed-token")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "Logout exitoso", decodeBody(t, resp)["message"])

		auther.AssertExpectations(t)
	})

	t.Run("missing header returns 400", func(t *testing.T) {
		app := newTestApp(t, &MockAuthenticator{})

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Token requerido", decodeBody(t, resp)["error"])
	})

	t.Run("non bearer header returns 400", func(t *testing.T) {
		app := newTestApp(t, &MockAuthenticator{})

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Token requerido", decodeBody(t, resp)["error"])
	})

	t.Run("unparseable token returns 401", func(t *testing.T) {
		ts := &MockTokenService{}
		ts.On("SubjectOf", "garbage").Return("", auth.ErrTokenMalformed)

		auther := &MockAuthenticator{}
		auther.On("TokenService").Return(auth.TokenService(ts))

		app := newTestApp(t, auther)

		req := httptest.NewRequest(http.MethodPost, "/logout", nil)
		req.Header.Set("Authorization", "Bearer garbage")

		resp, err := app.Test(req)
		assert.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Token inválido", decodeBody(t, resp)["error"])
	})
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestApp(t, &MockAuthenticator{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "UP", body["status"])
	assert.Equal(t, "auth-service", body["service"])
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("nil error yields empty map", func(t *testing.T) {
		assert.Empty(t, auth.FormatValidationErrorToMap(nil))
	})

	t.Run("payload errors keyed by lowercase field", func(t *testing.T) {
		err := auth.RegistrationPayload{Username: "ab"}.Validate()
		assert.Error(t, err)

		fields := auth.FormatValidationErrorToMap(err)
		assert.Contains(t, fields, "username")
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
	})
}
