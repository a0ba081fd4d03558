package aws

import (
	json "github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"
)

// DecodeItem parses one PriceList entry. A payload that does not decode
// yields the zero Item, so it carries no attributes and no terms.
func DecodeItem(raw string) Item {
	var item Item
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		log.WithError(err).Debugf("failed to unmarshal pricing item, treating it as empty [bytes=%d]", len(raw))
		return Item{}
	}
	return item
}

// DecodeItems parses every entry of a fetched price list, preserving order.
func DecodeItems(raws []string) []Item {
	items := make([]Item, len(raws))
	for i, raw := range raws {
		items[i] = DecodeItem(raw)
	}
	return items
}
