package services

import (
	"context"
	"testing"
	"time"

	"activity-hub/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointsFor(t *testing.T) {
	w := DefaultScoringWeights
	assert.Equal(t, int64(150), w.PointsFor(models.Activity{}, 1))
	assert.Equal(t, int64(50), w.PointsFor(models.Activity{}, 2))
	assert.Equal(t, int64(75), w.PointsFor(models.Activity{IsFeatured: true}, 9))
}

func TestAttendanceScoringEndToEnd(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 10, 15, 0, 0, 0, time.UTC))

	badges := NewBadgeService(db)
	scoring := NewScoringService(db, badges)
	scoring.Clock = clock
	ledger := NewRegistrationService(db, NewCatalogService(db, time.UTC, nil), scoring)
	ledger.Clock = clock

	plain := seedClub(t, db, nil)
	featured := seedEducation(t, db, func(e *models.Education) { e.IsFeatured = true })

	joined, err := ledger.Join(ctx, "user-1", models.VariantClub, plain.ID)
	require.NoError(t, err)
	res, err := ledger.SetStatus(ctx, joined.Inscription.ID, models.InscriptionAttended)
	require.NoError(t, err)
	require.NoError(t, res.ScoringErr)

	member, err := NewMemberService(db).Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), member.Score)
	assert.Equal(t, 2, member.Level)
	assert.NotNil(t, member.LastLevelUpAt)

	held, err := badges.ListForMember(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "FIRST_STEP", held[0].Code)

	// replaying the hook for the same inscription pays nothing
	activity, err := ledger.Catalog.GetByRef(ctx, models.VariantClub, plain.ID)
	require.NoError(t, err)
	require.NoError(t, scoring.OnAttended(ctx, res.Inscription, activity))
	member, err = NewMemberService(db).Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), member.Score)

	joined, err = ledger.Join(ctx, "user-1", models.VariantEducation, featured.ID)
	require.NoError(t, err)
	_, err = ledger.SetStatus(ctx, joined.Inscription.ID, models.InscriptionAttended)
	require.NoError(t, err)

	member, err = NewMemberService(db).Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(225), member.Score)
	assert.Equal(t, int64(2), member.AttendedCount)

	var events []models.ScoreEvent
	require.NoError(t, db.Order("points DESC").Find(&events).Error)
	require.Len(t, events, 2)
	assert.Equal(t, "club:"+plain.ID, events[0].ActivityRef)
	assert.Equal(t, true, events[1].Metadata["featured"])
}

func TestScoringCreatesMissingMember(t *testing.T) {
	db := newTestDB(t)
	scoring := NewScoringService(db, nil)

	ins := models.Inscription{ID: "ins-1", UserID: "ghost", Variant: models.VariantDirect, ActivityID: "d1"}
	require.NoError(t, scoring.OnAttended(context.Background(), ins, models.Activity{}))

	member, err := NewMemberService(db).Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Equal(t, int64(150), member.Score)
}

func TestMeetsThreshold(t *testing.T) {
	m := models.Member{AttendedCount: 10, Level: 3, Score: 400}

	assert.True(t, meetsThreshold(m, map[string]any{"attended_count": 10}))
	assert.True(t, meetsThreshold(m, map[string]any{"attended_count": float64(1), "level": 3}))
	assert.False(t, meetsThreshold(m, map[string]any{"level": float64(5)}))
	assert.False(t, meetsThreshold(m, map[string]any{"unknown": 1}))
	assert.False(t, meetsThreshold(m, nil))
}
