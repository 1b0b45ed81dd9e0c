package context_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appcontext "github.com/stagepass/stagepass/utils/context"
)

func TestRequestID(t *testing.T) {
	t.Run("should inject and read back a request id", func(t *testing.T) {
		ctx := appcontext.InjectRequestID(t.Context())

		id, err := appcontext.GetRequestID(ctx)

		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("should error without a request id", func(t *testing.T) {
		_, err := appcontext.GetRequestID(t.Context())

		assert.ErrorIs(t, err, appcontext.ErrGetRequestID)
	})
}

func TestTenantID(t *testing.T) {
	t.Run("should inject and read back a tenant id", func(t *testing.T) {
		ctx := appcontext.InjectTenantID(t.Context(), "tenant-1")

		tenant, err := appcontext.ExtractTenantID(ctx)

		require.NoError(t, err)
		assert.Equal(t, "tenant-1", tenant)
	})

	t.Run("should error without a tenant id", func(t *testing.T) {
		_, err := appcontext.ExtractTenantID(t.Context())

		assert.ErrorIs(t, err, appcontext.ErrExtractTenantID)
	})
}
