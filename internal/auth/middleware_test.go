package auth

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/stagepay/pos-core/pkg/errorutil"
)

func newTokenApp() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/", BearerToken, func(c *fiber.Ctx) error {
		token, ok := TokenFromContext(c)
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(token)
	})
	return app
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: fiber.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: fiber.StatusUnauthorized},
		{name: "empty token", header: "Bearer   ", status: fiber.StatusUnauthorized},
		{name: "ok", header: "bearer abc.def", status: fiber.StatusOK},
	}

	app := newTokenApp()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error: %v", err)
			}
			if resp.StatusCode != tc.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.status)
			}
		})
	}
}
