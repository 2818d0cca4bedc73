package versions

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/openlawlibrary/stelae-sub000/go/sklog"
)

var errHistoryNotConfigured = errors.New("no history store wired into this route")

// Response is the versions endpoint's JSON payload (spec §4.8 "Response").
type Response struct {
	ActivePublication string               `json:"active_publication"`
	ActiveVersion     string               `json:"active_version"`
	ActiveCompareTo   *string              `json:"active_compare_to"`
	Features          Features             `json:"features"`
	Path              string               `json:"path"`
	Publications      *OrderedPublications `json:"publications"`
	Messages          Messages             `json:"messages"`
}

// Features reports which optional capabilities the response supports.
// Both are always true; the field exists because the original response
// shape carries it (spec §4.8).
type Features struct {
	Compare            bool `json:"compare"`
	HistoricalVersions bool `json:"historical_versions"`
}

// PublicationView is one entry of the response's publications map.
type PublicationView struct {
	Active   bool      `json:"active"`
	Date     string    `json:"date"`
	Display  string    `json:"display"`
	Name     string    `json:"name"`
	Versions []Version `json:"versions"`
}

// Version is one codified date a document or collection changed on,
// with its display string and 1-based rank (oldest = 1).
type Version struct {
	Date    string `json:"date"`
	Display string `json:"display"`
	Index   int    `json:"version"`
}

// Messages carries the optional staleness messages (spec §4.8
// "Messages"); each is nil when the corresponding condition doesn't
// apply to the active request.
type Messages struct {
	Publication *string `json:"publication"`
	Version     *string `json:"version"`
	Comparison  *string `json:"comparison"`
}

// OrderedPublications marshals as a JSON object whose keys are publication
// names sorted descending (spec §4.8: "Publication entries sort
// DESCENDING by name"). encoding/json always sorts map[string]V keys
// ascending, so achieving descending order requires writing the object
// by hand in the order callers provide.
type OrderedPublications struct {
	views []PublicationView
}

func newOrderedPublications(views []PublicationView) *OrderedPublications {
	sorted := make([]PublicationView, len(views))
	copy(sorted, views)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name > sorted[j].Name })
	return &OrderedPublications{views: sorted}
}

// MarshalJSON implements json.Marshaler, preserving the descending order
// newOrderedPublications established.
func (o *OrderedPublications) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range o.views {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(w http.ResponseWriter, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		sklog.Errorf("encoding versions response: %v", err)
	}
}
