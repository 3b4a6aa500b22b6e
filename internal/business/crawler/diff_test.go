package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahles/directory-crawler/pkg/model"
)

func adFixture() model.AdFields {
	price := 500
	return model.AdFields{
		Source:   "titti",
		SourceID: "123",
		Nickname: "Dana",
		City:     "Tel Aviv",
		PriceMin: &price,
		Photos:   []string{"a.jpg", "b.jpg"},
		Verified: true,
	}
}

func TestDiffNew(t *testing.T) {
	diff := Diff(nil, adFixture())
	assert.Equal(t, model.ChangeNew, diff.Type)
	assert.Nil(t, diff.Before)
	assert.Empty(t, diff.ChangedFields)
}

func TestDiffUnchanged(t *testing.T) {
	existing := &model.AdRecord{ID: "ad-1", AdFields: adFixture()}
	incoming := adFixture()
	// Fields outside the compared set must not trigger an update.
	incoming.RawData = []byte(`{"fetched":"again"}`)

	diff := Diff(existing, incoming)
	assert.Equal(t, model.ChangeUnchanged, diff.Type)
	assert.Empty(t, diff.ChangedFields)
	require.NotNil(t, diff.Before)
	assert.Equal(t, "ad-1", diff.Before.ID)
}

func TestDiffUpdated(t *testing.T) {
	existing := &model.AdRecord{ID: "ad-1", AdFields: adFixture()}
	incoming := adFixture()
	newPrice := 600
	incoming.PriceMin = &newPrice
	incoming.Online = true

	diff := Diff(existing, incoming)
	assert.Equal(t, model.ChangeUpdated, diff.Type)
	assert.ElementsMatch(t, []string{"price_min", "online_status"}, diff.ChangedFields)
	require.NotNil(t, diff.Before)
}

func TestDiffPhotoOrderIsSignificant(t *testing.T) {
	existing := &model.AdRecord{ID: "ad-1", AdFields: adFixture()}
	incoming := adFixture()
	incoming.Photos = []string{"b.jpg", "a.jpg"}

	diff := Diff(existing, incoming)
	assert.Equal(t, model.ChangeUpdated, diff.Type)
	assert.Equal(t, []string{"photos"}, diff.ChangedFields)
}

func TestDiffNilVsZeroPrice(t *testing.T) {
	existing := &model.AdRecord{ID: "ad-1", AdFields: adFixture()}
	incoming := adFixture()
	incoming.PriceMin = nil

	diff := Diff(existing, incoming)
	assert.Equal(t, model.ChangeUpdated, diff.Type)
	assert.Equal(t, []string{"price_min"}, diff.ChangedFields)
}
