package aggregate

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sichef/sichef/internal/model"
)

// ErrInvalidImport is returned when an import file is not an array of
// records that all carry id and videoUrl.
var ErrInvalidImport = eris.New("aggregate: import file does not have the expected structure")

// DecodeImport validates and decodes an exported dataset. The file is
// rejected as a whole if any element lacks id or videoUrl. Analyses without
// a priority are classified.
func DecodeImport(r io.Reader) ([]model.ScrapedData, error) {
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrap(ErrInvalidImport, err.Error())
	}
	if raw == nil {
		return nil, eris.Wrap(ErrInvalidImport, "not an array")
	}
	for i, item := range raw {
		_, hasID := item["id"]
		_, hasURL := item["videoUrl"]
		if !hasID || !hasURL {
			return nil, eris.Wrapf(ErrInvalidImport, "element %d lacks id or videoUrl", i)
		}
	}

	records := make([]model.ScrapedData, 0, len(raw))
	for i, item := range raw {
		buf, err := json.Marshal(item)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: re-encode element %d", i)
		}
		var rec model.ScrapedData
		if err := json.Unmarshal(buf, &rec); err != nil {
			return nil, eris.Wrapf(ErrInvalidImport, "element %d: %v", i, err)
		}
		records = append(records, classified(rec))
	}
	return records, nil
}

// Import replaces the stored dataset with the decoded file.
func (a *Aggregator) Import(ctx context.Context, r io.Reader) (int, error) {
	records, err := DecodeImport(r)
	if err != nil {
		return 0, err
	}
	if err := a.repo.Save(ctx, records); err != nil {
		return 0, eris.Wrap(err, "aggregate: save dataset")
	}
	return len(records), nil
}

// Export writes the stored dataset as indented JSON.
func (a *Aggregator) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := a.repo.Load(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "aggregate: load dataset")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return 0, eris.Wrap(err, "aggregate: encode dataset")
	}
	return len(records), nil
}
