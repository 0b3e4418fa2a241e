package memstore

import (
	"testing"

	"github.com/cognicore/lda/pkg/lda/store/storetest"
)

func TestStoreContract(t *testing.T) {
	storetest.Run(t, New())
}
