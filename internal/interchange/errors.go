package interchange

const (
	// Document validation.
	ErrBadDocument = "E_BAD_DOCUMENT"
	ErrBadVersion  = "E_BAD_VERSION"

	// Reference resolution during evaluation.
	ErrUnresolved  = "E_UNRESOLVED"
	ErrNoActor     = "E_NO_ACTOR"
	ErrNoCharacter = "E_NO_CHARACTER"
	ErrNoStage     = "E_NO_STAGE"
	ErrNoGlobal    = "E_NO_GLOBAL"

	// Evaluation and application outcomes.
	ErrNotNumeric    = "E_NOT_NUMERIC"
	ErrBadComparator = "E_BAD_COMPARATOR"
	ErrBadAppearance = "E_BAD_APPEARANCE"
	ErrBadTransform  = "E_BAD_TRANSFORM"
	ErrBadBehavior   = "E_BAD_BEHAVIOR"
	ErrBadOp         = "E_BAD_OP"
	ErrOutOfExtent   = "E_OUT_OF_EXTENT"

	// Recorder.
	ErrCannotSynthesize = "E_CANNOT_SYNTHESIZE"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrBadDocument:      {},
	ErrBadVersion:       {},
	ErrUnresolved:       {},
	ErrNoActor:          {},
	ErrNoCharacter:      {},
	ErrNoStage:          {},
	ErrNoGlobal:         {},
	ErrNotNumeric:       {},
	ErrBadComparator:    {},
	ErrBadAppearance:    {},
	ErrBadTransform:     {},
	ErrBadBehavior:      {},
	ErrBadOp:            {},
	ErrOutOfExtent:      {},
	ErrCannotSynthesize: {},
	ErrInternal:         {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
