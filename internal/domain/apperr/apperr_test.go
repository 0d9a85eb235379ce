package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedFailure(t *testing.T) {
	err := fmt.Errorf("batch item: %w", New(KindNoLegalConfig, "legal configuration not found"))

	assert.Equal(t, KindNoLegalConfig, KindOf(err))
	assert.True(t, Is(err, KindNoLegalConfig))
	assert.True(t, IsFailure(err))
	assert.Equal(t, "batch item: legal configuration not found", err.Error())
}

func TestInfrastructureErrorHasNoKind(t *testing.T) {
	err := errors.New("connection reset by peer")

	assert.Equal(t, Kind(""), KindOf(err))
	assert.False(t, IsFailure(err))
	assert.False(t, Is(nil, KindNotFound))
}
