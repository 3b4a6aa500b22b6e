package crawler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tahles/directory-crawler/pkg/model"
)

func TestResolveCity(t *testing.T) {
	assert.Equal(t, "Tel Aviv", ResolveCity("תל אביב"))
	assert.Equal(t, "Haifa", ResolveCity(" חיפה "))
	// Unknown text passes through untouched.
	assert.Equal(t, "Kfar Saba", ResolveCity("Kfar Saba"))
	// Empty falls back to the country-wide placeholder.
	assert.Equal(t, "Israel", ResolveCity(""))
	assert.Equal(t, "Israel", ResolveCity("   "))
}

func TestMatchCategories(t *testing.T) {
	slugs := MatchCategories([]string{
		"Massage",          // exact catalog name
		"best domina ever", // label contains slug
		"Sugar Baby",
		"crystal healing", // no catalog match, dropped
		"massage studio",  // duplicate of the first match
	})
	assert.Equal(t, []string{"massage", "domina", "sugar-baby"}, slugs)

	assert.Empty(t, MatchCategories(nil))
	assert.Empty(t, MatchCategories([]string{"", "  "}))
}

func TestNormalizeNilProfile(t *testing.T) {
	_, err := NewNormalizer().Normalize(nil)
	require.Error(t, err)
}

func TestNormalize(t *testing.T) {
	age := 24
	raw := &model.RawProfile{
		RawListing: model.RawListing{
			SourceID: "123",
			URL:      "https://example.test/p/123",
			Name:     "Dana",
			City:     "תל אביב",
			Age:      &age,
			Verified: true,
		},
		Description: "hello",
		Categories:  []string{"Massage"},
		Contacts: model.RawContacts{
			Phone:    "052-123-4567",
			Whatsapp: "+972 52 123 4567",
			Telegram: "@dana24",
		},
		Comments: []model.RawComment{
			{CommentKey: "c1", Author: "Avi", Text: "great", DateRaw: "2024-05-01"},
			{Author: "Dan", Text: "ok"}, // no source key, derives one
		},
	}

	rec, err := NewNormalizer().Normalize(raw)
	require.NoError(t, err)

	assert.Equal(t, "123", rec.Ad.SourceID)
	assert.Equal(t, "Dana", rec.Ad.Nickname)
	assert.Equal(t, "Tel Aviv", rec.Ad.City)
	assert.True(t, rec.Ad.Verified)
	require.NotNil(t, rec.Ad.Age)
	assert.Equal(t, 24, *rec.Ad.Age)
	// Photos must serialize as an empty array, never null, so diffing does not
	// flap between absent and empty galleries.
	require.NotNil(t, rec.Ad.Photos)
	assert.Empty(t, rec.Ad.Photos)
	assert.NotEmpty(t, rec.Ad.RawData)
	assert.False(t, rec.Ad.UpdatedAt.IsZero())

	assert.Equal(t, "0521234567", rec.Contacts.Phone)
	assert.Equal(t, "972521234567", rec.Contacts.Whatsapp)
	assert.Equal(t, "dana24", rec.Contacts.Telegram)

	require.Len(t, rec.Comments, 2)
	assert.Equal(t, "c1", rec.Comments[0].CommentKey)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), rec.Comments[0].CreatedAt)
	assert.NotEmpty(t, rec.Comments[1].CommentKey, "missing source key must be derived, not dropped")

	assert.Equal(t, []string{"massage"}, rec.CategorySlugs)
}
