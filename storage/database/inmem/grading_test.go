package inmemdb_test

import (
	"testing"

	"github.com/trezcool/gradebook/core/grading"
	inmemdb "github.com/trezcool/gradebook/storage/database/inmem"
	"github.com/trezcool/gradebook/testutil"
)

func TestGradingRepository(t *testing.T) {
	testutil.RunRepositoryTests(t, func(t *testing.T) grading.Repository {
		db, err := inmemdb.Open()
		if err != nil {
			t.Fatalf("inmemdb.Open(): %v", err)
		}
		return inmemdb.NewGradingRepository(db)
	})
}
