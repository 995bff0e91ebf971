//go:build integration

package history

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/QTest-hq/riskgen/internal/testutil"
)

func TestIntegration_SQLStore_Postgres(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := NewSQLStore(ctx, BackendPostgres, testutil.GetTestPostgresDSN())
	if err != nil {
		t.Skipf("skipping test: could not connect to postgres: %v", err)
	}
	defer store.Close()

	// The table outlives the test, so only look at this run's rows
	runID := uuid.NewString()
	want := sampleRows(runID)
	require.NoError(t, store.Append(ctx, want))

	rows, err := store.Load(ctx)
	require.NoError(t, err)

	var got []FeatureRow
	for _, r := range rows {
		if r.RunID == runID {
			got = append(got, r)
		}
	}
	assertRowsEqual(t, want, got)
}
