package rayid

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(FromCtx(c)) })
	return app
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reused   bool
	}{
		{"Generated", "", false},
		{"ReusesValidID", "6f1c1c1e-8a43-4d0a-9d55-0c1e3c3f6a10", true},
		{"ReplacesGarbage", "not-a-uuid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderName, tt.incoming)
			}
			resp, err := newApp().Test(req)
			require.NoError(t, err)

			id := resp.Header.Get(HeaderName)
			_, perr := uuid.Parse(id)
			assert.NoError(t, perr)
			if tt.reused {
				assert.Equal(t, tt.incoming, id)
			} else {
				assert.NotEqual(t, tt.incoming, id)
			}

			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, id, string(body))
		})
	}
}
