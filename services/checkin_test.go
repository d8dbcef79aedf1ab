package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"activity-hub/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckInFixture(t *testing.T) (*CheckInService, *RegistrationService, *clockwork.FakeClock) {
	t.Helper()
	db := newTestDB(t)
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 10, 13, 0, 0, 0, time.UTC))
	ledger := NewRegistrationService(db, NewCatalogService(db, time.UTC, nil), nil)
	ledger.Clock = clock

	checkIn := NewCheckInService(ledger, "test-secret", time.Hour)
	checkIn.Clock = clock
	return checkIn, ledger, clock
}

func TestCheckInRedeemMarksAttended(t *testing.T) {
	checkIn, ledger, _ := newCheckInFixture(t)
	ctx := context.Background()
	club := seedClub(t, ledger.DB, nil)

	joined, err := ledger.Join(ctx, "user-1", models.VariantClub, club.ID)
	require.NoError(t, err)

	token, err := checkIn.IssueToken(joined.Inscription)
	require.NoError(t, err)

	res, err := checkIn.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionAttended, res.Inscription.Status)

	_, err = checkIn.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCheckInRejectsBadTokens(t *testing.T) {
	checkIn, ledger, clock := newCheckInFixture(t)
	ctx := context.Background()
	club := seedClub(t, ledger.DB, nil)

	joined, err := ledger.Join(ctx, "user-1", models.VariantClub, club.ID)
	require.NoError(t, err)

	forger := NewCheckInService(ledger, "other-secret", time.Hour)
	forger.Clock = clock
	forged, err := forger.IssueToken(joined.Inscription)
	require.NoError(t, err)
	_, err = checkIn.Redeem(ctx, forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = checkIn.Redeem(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	token, err := checkIn.IssueToken(joined.Inscription)
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)
	_, err = checkIn.Redeem(ctx, token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	stored, err := ledger.Get(ctx, joined.Inscription.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InscriptionApproved, stored.Status)
}

func TestCheckInTokenForUnknownInscription(t *testing.T) {
	checkIn, _, _ := newCheckInFixture(t)

	token, err := checkIn.IssueToken(models.Inscription{ID: "gone", Status: models.InscriptionApproved, Variant: models.VariantClub})
	require.NoError(t, err)

	_, err = checkIn.Redeem(context.Background(), token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCheckInOnlyForApproved(t *testing.T) {
	checkIn, _, _ := newCheckInFixture(t)

	_, err := checkIn.IssueToken(models.Inscription{ID: "p", Status: models.InscriptionPending})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestQRCodeIsPNG(t *testing.T) {
	checkIn, _, _ := newCheckInFixture(t)

	png, err := checkIn.QRCode("some.signed.token", 0)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}
