package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Static engine tables: the sprite transform group, the comparator and
// group-behavior sets, and the built-in identifiers the evaluator resolves
// without a user definition. Tables are fixed at init and digested so runs
// can record which table version they executed under.

const (
	TransformNone     = "NONE"
	TransformRot90    = "ROT90"
	TransformRot180   = "ROT180"
	TransformRot270   = "ROT270"
	TransformFlipX    = "FLIP_X"
	TransformFlipY    = "FLIP_Y"
	TransformFlipMain = "FLIP_MAIN"
	TransformFlipAnti = "FLIP_ANTI"
)

// Transforms is the palette of the eight square symmetries, identity first.
var Transforms = []string{
	TransformNone,
	TransformRot90,
	TransformRot180,
	TransformRot270,
	TransformFlipX,
	TransformFlipY,
	TransformFlipMain,
	TransformFlipAnti,
}

// transformMat holds each element as a row-major 2x2 integer matrix
// {a, b, c, d}: (x, y) maps to (a*x + b*y, c*x + d*y). Screen coordinates,
// y grows downward, ROT90 is clockwise.
var transformMat = map[string][4]int{
	TransformNone:     {1, 0, 0, 1},
	TransformRot90:    {0, -1, 1, 0},
	TransformRot180:   {-1, 0, 0, -1},
	TransformRot270:   {0, 1, -1, 0},
	TransformFlipX:    {-1, 0, 0, 1},
	TransformFlipY:    {1, 0, 0, -1},
	TransformFlipMain: {0, 1, 1, 0},
	TransformFlipAnti: {0, -1, -1, 0},
}

var (
	transformIndex map[string]int
	composeTable   map[[2]string]string
)

const (
	BehaviorFirst  = "FIRST"
	BehaviorAll    = "ALL"
	BehaviorRandom = "RANDOM"
	BehaviorLoop   = "LOOP"
)

var Behaviors = []string{BehaviorFirst, BehaviorAll, BehaviorRandom, BehaviorLoop}

// Comparators in table order. The first six pairs apply numeric comparison
// when both operands parse as numbers; the last three are always textual.
var Comparators = []string{"=", "!=", "<", "<=", ">", ">=", "contains", "starts-with", "ends-with"}

// OrderedComparators are the comparators that only make sense numerically.
var OrderedComparators = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}

const (
	OpSet      = "set"
	OpAdd      = "add"
	OpSubtract = "subtract"
)

var VariableOps = []string{OpSet, OpAdd, OpSubtract}

var TransformOps = []string{OpSet, OpAdd}

// Built-in actor fields shadow user variables of the same id.
var ActorBuiltins = []string{"appearance", "transform"}

// Built-in globals fed by the host each tick.
var GlobalBuiltins = []string{"click", "keypress", "selectedStageId"}

var (
	behaviorSet      map[string]bool
	comparatorSet    map[string]bool
	variableOpSet    map[string]bool
	transformOpSet   map[string]bool
	actorBuiltinSet  map[string]bool
	globalBuiltinSet map[string]bool

	tablesDigest string
)

func init() {
	transformIndex = make(map[string]int, len(Transforms))
	for i, t := range Transforms {
		transformIndex[t] = i
	}
	if len(transformMat) != len(Transforms) {
		panic("catalogs: transform matrix table incomplete")
	}

	// Build the composition table by matrix product and require closure:
	// every product must land back on a named element.
	matName := make(map[[4]int]string, len(Transforms))
	for name, m := range transformMat {
		matName[m] = name
	}
	composeTable = make(map[[2]string]string, len(Transforms)*len(Transforms))
	for _, a := range Transforms {
		for _, b := range Transforms {
			prod := matMul(transformMat[b], transformMat[a])
			name, ok := matName[prod]
			if !ok {
				panic(fmt.Sprintf("catalogs: %s.%s leaves the transform group", a, b))
			}
			composeTable[[2]string{a, b}] = name
		}
	}

	behaviorSet = toSet(Behaviors)
	comparatorSet = toSet(Comparators)
	variableOpSet = toSet(VariableOps)
	transformOpSet = toSet(TransformOps)
	actorBuiltinSet = toSet(ActorBuiltins)
	globalBuiltinSet = toSet(GlobalBuiltins)

	tablesDigest = digestTables()
}

// matMul returns a*b for row-major 2x2 matrices.
func matMul(a, b [4]int) [4]int {
	return [4]int{
		a[0]*b[0] + a[1]*b[2],
		a[0]*b[1] + a[1]*b[3],
		a[2]*b[0] + a[3]*b[2],
		a[2]*b[1] + a[3]*b[3],
	}
}

func toSet(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, s := range in {
		out[s] = true
	}
	return out
}

// ComposeTransform applies a then b and returns the equivalent element.
func ComposeTransform(a, b string) (string, bool) {
	out, ok := composeTable[[2]string{a, b}]
	return out, ok
}

// ApplyTransform maps an offset through a transform element.
func ApplyTransform(t string, x, y int) (int, int, bool) {
	m, ok := transformMat[t]
	if !ok {
		return 0, 0, false
	}
	return m[0]*x + m[1]*y, m[2]*x + m[3]*y, true
}

func IsTransform(s string) bool {
	_, ok := transformIndex[s]
	return ok
}

func IsBehavior(s string) bool      { return behaviorSet[s] }
func IsComparator(s string) bool    { return comparatorSet[s] }
func IsVariableOp(s string) bool    { return variableOpSet[s] }
func IsTransformOp(s string) bool   { return transformOpSet[s] }
func IsActorBuiltin(s string) bool  { return actorBuiltinSet[s] }
func IsGlobalBuiltin(s string) bool { return globalBuiltinSet[s] }

// TablesDigest identifies the table contents this build runs with.
func TablesDigest() string { return tablesDigest }

func digestTables() string {
	doc := map[string]any{
		"transforms":      Transforms,
		"behaviors":       Behaviors,
		"comparators":     Comparators,
		"variable_ops":    VariableOps,
		"transform_ops":   TransformOps,
		"actor_builtins":  ActorBuiltins,
		"global_builtins": GlobalBuiltins,
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	h := sha256.New()
	for _, k := range keys {
		b, _ := json.Marshal(doc[k])
		h.Write([]byte(k))
		h.Write([]byte{':'})
		h.Write(b)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
