package reconciliation

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestFeature(t *testing.T) {
	feature := NewFeature(newTestService(testDeps{}), time.Minute)

	assert.Equal(t, "reconciliation", feature.Name())
	assert.True(t, feature.IsEnabled())
	assert.NoError(t, feature.Load(fiber.New()))

	assert.False(t, NewFeature(nil, 0).IsEnabled())
}
