package crawler

import (
	"bytes"
	"encoding/json"

	"github.com/tahles/directory-crawler/pkg/model"
)

// comparedFields is the fixed set of ad fields whose change makes an
// observation count as updated.
var comparedFields = []string{
	"nickname",
	"description",
	"price_min",
	"price_max",
	"city",
	"online_status",
	"vip_status",
	"verified",
	"photos",
}

// Diff classifies an incoming normalized ad against the stored record.
// Fields are compared by JSON serialization equality, which makes the photo
// list order-sensitive: a reordered but otherwise identical gallery registers
// as a change and gets audited. ChangeRemoved is never produced here; it is
// reserved for a full-catalog disappearance sweep.
func Diff(existing *model.AdRecord, incoming model.AdFields) model.DiffResult {
	if existing == nil {
		return model.DiffResult{
			Type:  model.ChangeNew,
			After: incoming,
		}
	}

	var changed []string
	for _, field := range comparedFields {
		if !jsonEqual(fieldValue(existing.AdFields, field), fieldValue(incoming, field)) {
			changed = append(changed, field)
		}
	}

	if len(changed) > 0 {
		return model.DiffResult{
			Type:          model.ChangeUpdated,
			ChangedFields: changed,
			Before:        existing,
			After:         incoming,
		}
	}
	return model.DiffResult{
		Type:   model.ChangeUnchanged,
		Before: existing,
		After:  incoming,
	}
}

func fieldValue(ad model.AdFields, field string) any {
	switch field {
	case "nickname":
		return ad.Nickname
	case "description":
		return ad.Description
	case "price_min":
		return ad.PriceMin
	case "price_max":
		return ad.PriceMax
	case "city":
		return ad.City
	case "online_status":
		return ad.Online
	case "vip_status":
		return ad.VIP
	case "verified":
		return ad.Verified
	case "photos":
		return ad.Photos
	default:
		return nil
	}
}

func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
