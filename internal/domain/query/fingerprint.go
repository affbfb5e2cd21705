package query

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// canonical fixes the field order of the digest input. Struct field order is
// the serialization order, so object key order in the inbound JSON is irrelevant.
type canonical struct {
	Query   string            `json:"query"`
	Mode    string            `json:"mode"`
	Context *canonicalContext `json:"context,omitempty"`
}

type canonicalContext struct {
	Location  *string   `json:"location,omitempty"`
	Sectors   *[]string `json:"sectors,omitempty"`
	Timeframe *string   `json:"timeframe,omitempty"`
}

// Fingerprint returns the hex SHA-256 digest identifying a semantically equal query.
func Fingerprint(q Query) string {
	c := canonical{Query: q.text, Mode: string(q.mode)}
	if q.context != nil {
		cc := &canonicalContext{
			Location:  q.context.Location,
			Timeframe: q.context.Timeframe,
		}
		if q.context.Sectors != nil {
			sectors := q.context.Sectors
			cc.Sectors = &sectors
		}
		c.Context = cc
	}

	// Marshal of plain strings and slices cannot fail.
	data, _ := json.Marshal(c)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
