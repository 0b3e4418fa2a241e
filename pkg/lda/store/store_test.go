package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cognicore/lda/pkg/lda/internalerr"
)

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("news/2024-03"))
	assert.NoError(t, ValidateID("01HV8Z3T9YQ2"))

	for _, id := range []string{"", " x", "x ", "a\nb", "a\x00b"} {
		assert.ErrorIs(t, ValidateID(id), internalerr.ErrInvalidInput, "id %q", id)
	}
}
