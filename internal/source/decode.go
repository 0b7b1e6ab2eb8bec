package source

import (
	"bytes"
	"encoding/json"
	"fmt"

	"tablo/internal/model"

	"github.com/tidwall/gjson"
)

var (
	envelopeItemKeys  = []string{"items", "data"}
	envelopeTotalKeys = []string{"total", "count"}
)

// decodePage accepts either a bare JSON array of objects or an object
// wrapping the array under items/data with an optional total/count.
func decodePage(body []byte) (model.Page, error) {
	body = bytes.TrimSpace(body)
	if !gjson.ValidBytes(body) {
		return model.Page{}, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	var page model.Page
	root := gjson.ParseBytes(body)
	list := root
	switch {
	case root.IsArray():
	case root.IsObject():
		list = gjson.Result{}
		for _, key := range envelopeItemKeys {
			if r := root.Get(key); r.IsArray() {
				list = r
				break
			}
		}
		if !list.IsArray() {
			return model.Page{}, fmt.Errorf("%w: object without items array", ErrMalformedResponse)
		}
		for _, key := range envelopeTotalKeys {
			if r := root.Get(key); r.Type == gjson.Number && r.Int() >= 0 {
				page.Total = int(r.Int())
				page.TotalKnown = true
				break
			}
		}
	default:
		return model.Page{}, fmt.Errorf("%w: expected array or object", ErrMalformedResponse)
	}

	items := make([]model.Item, 0)
	var bad error
	list.ForEach(func(_, value gjson.Result) bool {
		if !value.IsObject() {
			bad = fmt.Errorf("%w: item is %s, not an object", ErrMalformedResponse, value.Type)
			return false
		}
		items = append(items, model.NewItem(json.RawMessage(value.Raw)))
		return true
	})
	if bad != nil {
		return model.Page{}, bad
	}
	page.Items = items
	return page, nil
}
