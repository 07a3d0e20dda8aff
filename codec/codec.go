// Package codec defines the wire adapter contract shared by codec/json and
// codec/yaml.
package codec

import "github.com/reoring/typedstruct"

// Codec provides content-type aware marshaling of records.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Marshal encodes a *Record, a []*Record or a plain tree value.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data against d. Struct references in d must be
	// resolved; see typedstruct.RefTo and Registry.Resolve.
	Unmarshal(data []byte, d typedstruct.Descriptor) (any, error)
}
