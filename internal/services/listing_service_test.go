package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentspace/internal/cache"
	"rentspace/internal/domain"
	"rentspace/internal/repos"
	"rentspace/internal/services"
)

type failingFees struct{ *repos.FeeRepo }

func (failingFees) InsertBatch(context.Context, []domain.AdditionalFee) error {
	return errors.New("disk I/O error")
}

func newListingService(t *testing.T) (*services.ListingService, *cache.MemoryStore) {
	t.Helper()
	db := memdb(t)
	c := cache.NewMemoryStore()
	svc := services.NewListingService(repos.NewListingRepo(db), repos.NewFeeRepo(db), c, services.FeeKeep)
	svc.Now = stepClock()
	return svc, c
}

func TestSubmit_PublishRulesBlockWrite(t *testing.T) {
	db := memdb(t)
	svc := services.NewListingService(repos.NewListingRepo(db), repos.NewFeeRepo(db), nil, services.FeeKeep)
	before := countRows(t, db, `SELECT COUNT(*) FROM listings`)

	form := completeForm("Kochi")
	form.City = "  "
	_, err := svc.Submit(context.Background(), asha, form, false)

	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "city", ve.Field)
	assert.Equal(t, before, countRows(t, db, `SELECT COUNT(*) FROM listings`))
}

func TestSubmit_DraftSkipsPublishRules(t *testing.T) {
	svc, _ := newListingService(t)
	l, err := svc.Submit(context.Background(), asha, domain.ListingForm{Title: "half done"}, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, l.Status)
	assert.Empty(t, l.PublishedAt)
}

func TestSubmit_DraftStoredUnchecked(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	form := completeForm("Kochi")
	form.Pincode = "1234"
	form.PropertyType = "castle"
	form.MonthlyRent = f64(-1)
	form.AdditionalFees = []domain.FeeInput{{Amount: 100, Frequency: "weekly"}}
	l, err := svc.Submit(ctx, asha, form, true)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDraft, l.Status)
	assert.Equal(t, "1234", l.Pincode)

	_, err = svc.Publish(ctx, asha, l.ID)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "property_type", ve.Field)

	form.PropertyType = "apartment"
	form.MonthlyRent = f64(12000)
	_, err = svc.Update(ctx, asha, l.ID, form)
	require.NoError(t, err)
	_, err = svc.Publish(ctx, asha, l.ID)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "additional_fees", ve.Field, "stored fees are checked on publish")

	form.AdditionalFees = nil
	_, err = svc.Update(ctx, asha, l.ID, form)
	require.NoError(t, err)
	pub, err := svc.Publish(ctx, asha, l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, pub.Status)
}

func TestSubmit_PincodeOnlyNeedsToBePresent(t *testing.T) {
	svc, _ := newListingService(t)
	form := completeForm("Kochi")
	form.Pincode = "20001"
	l, err := svc.Submit(context.Background(), asha, form, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, l.Status)
}

func TestSubmit_RoleChecks(t *testing.T) {
	svc, _ := newListingService(t)
	_, err := svc.Submit(context.Background(), nil, completeForm("Kochi"), false)
	assert.ErrorIs(t, err, services.ErrAuthRequired)
	_, err = svc.Submit(context.Background(), neha, completeForm("Kochi"), false)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestSubmit_StoresFeesAndInvalidatesFeatured(t *testing.T) {
	svc, c := newListingService(t)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "listings:featured", []byte("[]"), 0))

	form := completeForm("Kochi")
	form.AdditionalFees = []domain.FeeInput{{Name: "Parking", Amount: 800}, {Name: "Move-in", Amount: 2000, Frequency: "one_time"}}
	l, err := svc.Submit(ctx, asha, form, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, l.Status)

	_, err = c.Get(ctx, "listings:featured")
	assert.ErrorIs(t, err, cache.ErrMiss)

	got, err := svc.Get(ctx, asha, l.ID)
	require.NoError(t, err)
	require.Len(t, got.Fees, 2)
	assert.Equal(t, "monthly", got.Fees[0].Frequency)
	assert.Equal(t, "one_time", got.Fees[1].Frequency)
}

func TestSubmit_FeeFailurePolicies(t *testing.T) {
	ctx := context.Background()
	form := completeForm("Kochi")
	form.AdditionalFees = []domain.FeeInput{{Name: "Parking", Amount: 800}}

	t.Run("keep", func(t *testing.T) {
		db := memdb(t)
		listings := repos.NewListingRepo(db)
		c := cache.NewMemoryStore()
		require.NoError(t, c.Set(ctx, "listings:featured", []byte("[]"), 0))
		svc := services.NewListingService(listings, failingFees{repos.NewFeeRepo(db)}, c, services.FeeKeep)
		l, err := svc.Submit(ctx, asha, form, false)
		require.ErrorIs(t, err, services.ErrFeesNotSaved)
		require.NotNil(t, l)
		assert.Equal(t, domain.StatusActive, l.Status)
		_, cerr := c.Get(ctx, "listings:featured")
		assert.ErrorIs(t, cerr, cache.ErrMiss, "the kept listing is live, so featured is refreshed")
		_, gerr := listings.Get(ctx, l.ID)
		assert.NoError(t, gerr, "listing row stays")
		assert.Zero(t, countRows(t, db, `SELECT COUNT(*) FROM additional_fees WHERE listing_id = ?`, l.ID))
	})

	t.Run("compensate", func(t *testing.T) {
		db := memdb(t)
		svc := services.NewListingService(repos.NewListingRepo(db), failingFees{repos.NewFeeRepo(db)}, nil, services.FeeCompensate)
		before := countRows(t, db, `SELECT COUNT(*) FROM listings`)
		l, err := svc.Submit(ctx, asha, form, false)
		require.ErrorIs(t, err, services.ErrFeesNotSaved)
		assert.Nil(t, l)
		assert.Equal(t, before, countRows(t, db, `SELECT COUNT(*) FROM listings`))
	})
}

func TestDelete_LeavesFeesBehind(t *testing.T) {
	db := memdb(t)
	svc := services.NewListingService(repos.NewListingRepo(db), repos.NewFeeRepo(db), nil, services.FeeKeep)
	ctx := context.Background()

	require.ErrorIs(t, svc.Delete(ctx, vikram, "lst-pune-2bhk"), services.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, asha, "lst-pune-2bhk"))

	_, err := svc.Get(ctx, asha, "lst-pune-2bhk")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, 1, countRows(t, db, `SELECT COUNT(*) FROM additional_fees WHERE listing_id = 'lst-pune-2bhk'`))
}

func TestGet_ViewsAndVisibility(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	l, err := svc.Get(ctx, neha, "lst-pune-2bhk")
	require.NoError(t, err)
	assert.Equal(t, 42, l.Views)
	l, err = svc.Get(ctx, nil, "lst-pune-2bhk")
	require.NoError(t, err)
	assert.Equal(t, 43, l.Views)
	l, err = svc.Get(ctx, asha, "lst-pune-2bhk")
	require.NoError(t, err)
	assert.Equal(t, 43, l.Views, "owner reads are not counted")

	_, err = svc.Get(ctx, neha, "lst-goa-villa")
	assert.ErrorIs(t, err, services.ErrNotFound, "rented listing hidden from others")
	l, err = svc.Get(ctx, vikram, "lst-goa-villa")
	require.NoError(t, err)
	assert.Equal(t, 93, l.Views)
}

func TestPublish_ChecksStoredRow(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	form := completeForm("Kochi")
	form.Photos = form.Photos[:2]
	draft, err := svc.Submit(ctx, asha, form, true)
	require.NoError(t, err)

	_, err = svc.Publish(ctx, asha, draft.ID)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "photos", ve.Field)

	form.Photos = append(form.Photos, "c.jpg")
	_, err = svc.Update(ctx, asha, draft.ID, form)
	require.NoError(t, err)

	pub, err := svc.Publish(ctx, asha, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, pub.Status)
	assert.NotEmpty(t, pub.PublishedAt)

	_, err = svc.Publish(ctx, asha, draft.ID)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestUpdate_ActiveListingKeepsPublishRules(t *testing.T) {
	svc, _ := newListingService(t)
	form := completeForm("Kochi")
	form.Photos = nil
	_, err := svc.Update(context.Background(), asha, "lst-blr-studio", form)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "photos", ve.Field)
}

func TestSetStatus_Transitions(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, asha, "lst-pune-2bhk", domain.StatusActive)
	var ve *services.ValidationError
	require.ErrorAs(t, err, &ve)

	draft, err := svc.Submit(ctx, asha, domain.ListingForm{}, true)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, asha, draft.ID, domain.StatusRented)
	assert.ErrorIs(t, err, services.ErrConflict)

	l, err := svc.SetStatus(ctx, asha, "lst-pune-2bhk", domain.StatusRented)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRented, l.Status)

	_, err = svc.SetStatus(ctx, asha, "lst-pune-2bhk", domain.StatusRented)
	assert.ErrorIs(t, err, services.ErrConflict)

	_, err = svc.SetStatus(ctx, vikram, "lst-blr-studio", domain.StatusInactive)
	assert.ErrorIs(t, err, services.ErrForbidden)
}

func TestListMine_AllStatusesNewestFirst(t *testing.T) {
	svc, _ := newListingService(t)
	ctx := context.Background()
	d, err := svc.Submit(ctx, asha, domain.ListingForm{Title: "draft"}, true)
	require.NoError(t, err)

	mine, err := svc.ListMine(ctx, asha)
	require.NoError(t, err)
	require.Len(t, mine, 3)
	assert.Equal(t, d.ID, mine[0].ID)
}
