package titti

import (
	"os"
	"testing"

	"github.com/tahles/directory-crawler/pkg/model"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("read fixture %s: %v", name, err)
	}
	return string(data)
}

func TestParseListing(t *testing.T) {
	listings, err := New().ParseListing(readFixture(t, "listing_page.html"))
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}

	// The third node has no profile link and must be skipped.
	if len(listings) != 2 {
		t.Fatalf("got %d listings, want 2", len(listings))
	}

	first := listings[0]
	if first.SourceID != "123" {
		t.Errorf("SourceID = %q, want 123", first.SourceID)
	}
	if first.URL != "https://www.titti.co.il/escorts/dana-123.html" {
		t.Errorf("URL = %q", first.URL)
	}
	if first.Name != "Dana" {
		t.Errorf("Name = %q", first.Name)
	}
	if first.Age == nil || *first.Age != 24 {
		t.Errorf("Age = %v, want 24", first.Age)
	}
	if first.City != "תל אביב" {
		t.Errorf("City = %q", first.City)
	}
	if !first.Verified || !first.Online || first.VIP {
		t.Errorf("flags = verified:%t online:%t vip:%t", first.Verified, first.Online, first.VIP)
	}

	second := listings[1]
	if second.SourceID != "456" || second.Name != "Mia" {
		t.Errorf("second listing = %+v", second)
	}
	if !second.VIP || second.Verified {
		t.Errorf("second flags = %+v", second)
	}
}

func TestParseListingEmptyPage(t *testing.T) {
	listings, err := New().ParseListing("<html><body><p>nothing here</p></body></html>")
	if err != nil {
		t.Fatalf("ParseListing: %v", err)
	}
	if listings == nil || len(listings) != 0 {
		t.Fatalf("got %v, want empty non-nil slice", listings)
	}
}

func TestParseProfile(t *testing.T) {
	listing := model.RawListing{SourceID: "123", URL: "https://www.titti.co.il/escorts/dana-123.html", Name: "Dana"}
	profile, err := New().ParseProfile(readFixture(t, "profile_page.html"), listing)
	if err != nil {
		t.Fatalf("ParseProfile: %v", err)
	}

	if profile.SourceID != "123" || profile.Name != "Dana" {
		t.Errorf("listing stub not carried over: %+v", profile.RawListing)
	}
	if profile.Description == "" {
		t.Error("description is empty")
	}

	// Script gallery wins over <img> tags, duplicates collapse, logo is skipped.
	wantPhotos := []string{
		"https://www.titti.co.il/files/gallery/123/a.jpg",
		"https://www.titti.co.il/files/gallery/123/b.jpg",
	}
	if len(profile.Photos) != len(wantPhotos) {
		t.Fatalf("photos = %v", profile.Photos)
	}
	for i, want := range wantPhotos {
		if profile.Photos[i] != want {
			t.Errorf("photo[%d] = %q, want %q", i, profile.Photos[i], want)
		}
	}

	// No dedicated price cell in this template; the description carries it.
	if profile.PriceMin == nil || *profile.PriceMin != 850 {
		t.Errorf("PriceMin = %v, want 850", profile.PriceMin)
	}

	if profile.Age == nil || *profile.Age != 24 {
		t.Errorf("Age = %v, want 24", profile.Age)
	}
	if len(profile.Languages) != 2 || profile.Languages[0] != "Hebrew" || profile.Languages[1] != "English" {
		t.Errorf("Languages = %v", profile.Languages)
	}
	if len(profile.Categories) != 2 || profile.Categories[0] != "Massage" {
		t.Errorf("Categories = %v", profile.Categories)
	}
	if profile.ServiceMode != model.ServiceIncall {
		t.Errorf("ServiceMode = %q", profile.ServiceMode)
	}

	// Contact values stay in display form here; normalization happens later.
	if profile.Contacts.Phone != "052-123-4567" {
		t.Errorf("Phone = %q", profile.Contacts.Phone)
	}
	if profile.Contacts.Whatsapp != "972521234567" {
		t.Errorf("Whatsapp = %q", profile.Contacts.Whatsapp)
	}
	if profile.Contacts.Telegram != "dana24" {
		t.Errorf("Telegram = %q", profile.Contacts.Telegram)
	}

	// The empty comment node is dropped.
	if len(profile.Comments) != 1 {
		t.Fatalf("comments = %+v", profile.Comments)
	}
	c := profile.Comments[0]
	if c.CommentKey != "c1" || c.Author != "Avi" || c.Rating == nil || *c.Rating != 5 || c.DateRaw != "2024-05-01" {
		t.Errorf("comment = %+v", c)
	}

	if profile.RatingAvg == nil || *profile.RatingAvg != 4.5 {
		t.Errorf("RatingAvg = %v", profile.RatingAvg)
	}
	if profile.RatingCount == nil || *profile.RatingCount != 12 {
		t.Errorf("RatingCount = %v", profile.RatingCount)
	}
}
