package cargo

import (
	"encoding/json"
	"fmt"
)

// VersionsManifest writes the repository version record: a JSON object
// mapping package path to released version. Prior content is discarded; the
// record is regenerated from scratch each run so stale entries cannot linger.
type VersionsManifest struct {
	Versions map[string]string
}

func (u *VersionsManifest) Update(content *string) (*string, error) {
	record := u.Versions
	if record == nil {
		record = map[string]string{}
	}
	// Map keys marshal in sorted order, so output is deterministic.
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding versions record: %w", err)
	}
	out := string(data) + "\n"
	return &out, nil
}
