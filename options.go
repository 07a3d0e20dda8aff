package typedstruct

// UnknownPolicy controls how wire keys that match no field are handled.
type UnknownPolicy int

const (
	UnknownIgnore UnknownPolicy = iota // Drop unknown keys (default).
	UnknownReject                      // Fail with *UnknownKeyError.
)

// DuplicatePolicy controls duplicate keys inside one wire mapping. Only the
// text codecs see duplicates; generic trees cannot hold them.
type DuplicatePolicy int

const (
	DuplicateError  DuplicatePolicy = iota // Fail with a duplicate_key *ParseError (default).
	DuplicateIgnore                        // Last occurrence wins.
)

// UnmarshalOpt bundles decoding options. The zero value ignores unknown keys,
// rejects duplicate keys and does not cap nesting depth.
type UnmarshalOpt struct {
	Unknown   UnknownPolicy
	Duplicate DuplicatePolicy
	MaxDepth  int
}

func lastOpt(opts []UnmarshalOpt) UnmarshalOpt {
	var opt UnmarshalOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	return opt
}
