package memory_test

import (
	"testing"

	"foodcourt_back_end/internal/storage"
	"foodcourt_back_end/internal/storage/memory"
	"foodcourt_back_end/internal/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return memory.New()
	})
}
