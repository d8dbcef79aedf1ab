package services

import (
	"context"
	"testing"

	"activity-hub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryIDs(entries []LeaderboardEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.UserID
	}
	return ids
}

func TestRankMembersTieBreaks(t *testing.T) {
	members := []models.Member{
		{ExternalUserID: "a", Score: 300, AttendedCount: 2},
		{ExternalUserID: "b", Score: 500, AttendedCount: 1},
		{ExternalUserID: "c", Score: 300, AttendedCount: 9},
		{ExternalUserID: "e", Score: 100, AttendedCount: 4},
		{ExternalUserID: "d", Score: 100, AttendedCount: 4},
	}

	entries := RankMembers(members, 0)
	assert.Equal(t, []string{"b", "c", "a", "d", "e"}, entryIDs(entries))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
	// equal score and attendance still get distinct ranks
	assert.Equal(t, 4, entries[3].Rank)
	assert.Equal(t, 5, entries[4].Rank)

	assert.Len(t, RankMembers(members, 2), 2)
	assert.Empty(t, RankMembers(nil, 10))
}

func TestParseScope(t *testing.T) {
	s, err := ParseScope("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, ScopeCountry, s.Kind)

	_, err = ParseScope("region", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = ParseScope("locality", "", "", "Lyon")
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = ParseScope("locality", "", "Auvergne-Rhône-Alpes", "")
	assert.ErrorIs(t, err, ErrInvalidScope)

	_, err = ParseScope("galaxy", "", "", "")
	assert.ErrorIs(t, err, ErrInvalidScope)

	s, err = ParseScope("Locality", "FR", " Auvergne-Rhône-Alpes ", "Lyon")
	require.NoError(t, err)
	assert.Equal(t, Scope{Kind: ScopeLocality, Country: "FR", Region: "Auvergne-Rhône-Alpes", Locality: "Lyon"}, s)
}

func TestRankByScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	board := NewLeaderboardService(db, 0)

	seedMember(t, db, models.Member{ExternalUserID: "paris-1", Username: "amel", Country: "FR", Region: "Île-de-France", Locality: "Paris", Score: 900, AttendedCount: 3})
	seedMember(t, db, models.Member{ExternalUserID: "paris-2", Username: "bilal", Country: "FR", Region: "ile-de-france", Locality: "paris", Score: 900, AttendedCount: 5})
	seedMember(t, db, models.Member{ExternalUserID: "creteil", Username: "chloe", Country: "FR", Region: "Île-de-France", Locality: "Créteil", Score: 400})
	seedMember(t, db, models.Member{ExternalUserID: "lyon", Username: "dani", Country: "FR", Region: "Auvergne-Rhône-Alpes", Locality: "Lyon", Score: 1200})
	seedMember(t, db, models.Member{ExternalUserID: "quebec", Username: "eli", Country: "CA", Region: "Québec", Locality: "Montréal", Score: 2000})

	national, err := board.Rank(ctx, Scope{Kind: ScopeCountry, Country: "fr"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"lyon", "paris-2", "paris-1", "creteil"}, entryIDs(national))

	everyone, err := board.Rank(ctx, Scope{Kind: ScopeCountry}, 0)
	require.NoError(t, err)
	assert.Len(t, everyone, 5)

	region, err := board.Rank(ctx, Scope{Kind: ScopeRegion, Region: "ILE-DE-FRANCE"}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"paris-2", "paris-1", "creteil"}, entryIDs(region))

	locality, err := board.Rank(ctx, Scope{Kind: ScopeLocality, Region: "Île-de-France", Locality: "PARIS"}, 1)
	require.NoError(t, err)
	require.Len(t, locality, 1)
	assert.Equal(t, LeaderboardEntry{
		Rank: 1, UserID: "paris-2", Username: "bilal", Score: 900, AttendedCount: 5, Level: 1,
		Country: "FR", Region: "ile-de-france", Locality: "paris",
	}, locality[0])

	_, err = board.Rank(ctx, Scope{Kind: ScopeLocality, Locality: "Paris"}, 0)
	assert.ErrorIs(t, err, ErrInvalidScope)
}

func TestLeaderboardLimitClamp(t *testing.T) {
	board := NewLeaderboardService(nil, 0)
	assert.Equal(t, DefaultLeaderboardLimit, board.clampLimit(0))
	assert.Equal(t, 20, board.clampLimit(20))
	assert.Equal(t, MaxLeaderboardLimit, board.clampLimit(10_000))
}
