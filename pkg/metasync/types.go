package metasync

import "encoding/json"

// RawRecord is one undecoded feed record. Field names vary across API
// versions (nombreMarca vs marca vs Marca), so normalization happens later
// in the catalog layer; the client only locates the arrays.
type RawRecord map[string]any

// Page is one decoded feed response.
type Page struct {
	Vehicles []RawRecord
	Parts    []RawRecord

	// Pagination hints; zero values when the response omits them.
	// HasMore is nil when the response carried no masRegistros flag,
	// so callers can tell "no more data" from "no hint".
	LastID  int64
	Total   int64
	HasMore *bool
}

// vehicleKeys and partKeys list the array keys observed across the API
// versions, checked in order at the top level and under "data" and "canal".
var vehicleKeys = []string{"vehiculos", "Vehiculos", "vehicles"}
var partKeys = []string{"piezas", "Piezas", "Partes", "partes", "elements", "items"}

// ParsePage decodes a raw response body into a Page, tolerating every
// known shape variant of the feed.
func ParsePage(body []byte) (*Page, error) {
	var root map[string]any
	if err := json.Unmarshal(body, &root); err != nil {
		return nil, err
	}

	page := &Page{
		Vehicles: findArray(root, vehicleKeys),
		Parts:    findArray(root, partKeys),
	}

	if ps, ok := nestedMap(root, "result_set"); ok {
		page.LastID = asInt64(ps["lastId"])
		page.Total = asInt64(ps["total"])
		page.HasMore = asBoolPtr(ps["masRegistros"])
	} else if ps, ok := nestedMap(root, "paginacion"); ok {
		page.LastID = asInt64(ps["lastId"])
		page.Total = asInt64(ps["total"])
		page.HasMore = asBoolPtr(ps["masRegistros"])
	}

	return page, nil
}

// findArray searches the top level, then data.*, then canal.* for the
// first non-empty array under any of the candidate keys.
func findArray(root map[string]any, keys []string) []RawRecord {
	for _, scope := range []map[string]any{root, nested(root, "data"), nested(root, "canal")} {
		if scope == nil {
			continue
		}
		for _, key := range keys {
			if arr, ok := scope[key].([]any); ok {
				return toRecords(arr)
			}
		}
	}
	return nil
}

func nested(root map[string]any, key string) map[string]any {
	m, _ := root[key].(map[string]any)
	return m
}

func nestedMap(root map[string]any, key string) (map[string]any, bool) {
	m, ok := root[key].(map[string]any)
	return m, ok
}

func toRecords(arr []any) []RawRecord {
	records := make([]RawRecord, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			records = append(records, RawRecord(m))
		}
	}
	return records
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	}
	return 0
}

func asBoolPtr(v any) *bool {
	if b, ok := v.(bool); ok {
		return &b
	}
	return nil
}
