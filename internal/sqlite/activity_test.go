package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/haulboard/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.ActivityEntry{
		Scope:        activity.ScopeTracker,
		ActivityType: activity.TypeRowAdded,
		Summary:      "added row to the tracking table",
	}
	entry2 := &activity.ActivityEntry{
		Scope:        activity.ScopeTracker,
		ActivityType: activity.TypeTrackerSaved,
		Summary:      "tracking data saved",
	}

	require.NoError(t, repo.Log(ctx, "tenant1", entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, "tenant1", entry2))
	require.NotZero(t, entry1.ID)
	require.Equal(t, "tenant1", entry1.TenantID)

	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{Scope: activity.ScopeTracker})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, entry2.ActivityType, entries[0].ActivityType)
	require.Equal(t, entry1.ActivityType, entries[1].ActivityType)

	entries, err = repo.List(ctx, "tenant1", activity.ListActivityOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entry1.ActivityType, entries[0].ActivityType)
}

func TestActivityRepository_FiltersAndTenantIsolation(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	tripID := "t1"
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		Scope:        "p1",
		RecordID:     &tripID,
		ActivityType: activity.TypeTripUpdated,
		Summary:      "updated trip T-001",
	}))
	require.NoError(t, repo.Log(ctx, "tenant1", &activity.ActivityEntry{
		Scope:        "p1",
		ActivityType: activity.TypeProjectUpdated,
		Summary:      "updated project",
	}))

	activityType := activity.TypeTripUpdated
	entries, err := repo.List(ctx, "tenant1", activity.ListActivityOptions{
		Scope:        "p1",
		RecordID:     &tripID,
		ActivityType: &activityType,
	})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "t1", *entries[0].RecordID)

	entries, err = repo.List(ctx, "tenant2", activity.ListActivityOptions{Scope: "p1"})
	require.NoError(t, err)
	require.Len(t, entries, 0)
}
