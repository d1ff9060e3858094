package interchange

import "encoding/json"

const FormatVersion = "1"

// Document kinds.
const (
	DocWorld     = "WORLD"
	DocRecording = "RECORDING"
)

// BaseDoc lets us route a document file by kind before full decode.
type BaseDoc struct {
	Doc           string `json:"doc"`
	FormatVersion string `json:"format_version,omitempty"`
}

func DecodeBase(b []byte) (BaseDoc, error) {
	var d BaseDoc
	err := json.Unmarshal(b, &d)
	return d, err
}

// WorldDoc is the on-disk form of a project: id-keyed maps plus explicit
// order slices, since JSON objects and Go maps carry no order of their own.
type WorldDoc struct {
	Doc           string `json:"doc"`
	FormatVersion string `json:"format_version"`
	ID            string `json:"id"`
	Name          string `json:"name,omitempty"`

	Stages     map[string]*StageDoc `json:"stages"`
	StageOrder []string             `json:"stage_order"`

	Characters     map[string]*CharacterDoc `json:"characters"`
	CharacterOrder []string                 `json:"character_order"`

	Globals     map[string]*GlobalDoc `json:"globals,omitempty"`
	GlobalOrder []string              `json:"global_order,omitempty"`

	SelectedStageID string    `json:"selected_stage_id,omitempty"`
	Input           *InputDoc `json:"input,omitempty"`
	NextActorNum    int       `json:"next_actor_num,omitempty"`
	Tick            uint64    `json:"tick,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type StageDoc struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Background string `json:"background,omitempty"`

	Actors     map[string]*ActorDoc `json:"actors"`
	ActorOrder []string             `json:"actor_order"`

	Starting *StartingDoc `json:"starting,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// StartingDoc is the designer's saved reset point for a stage.
type StartingDoc struct {
	Actors     map[string]*ActorDoc `json:"actors"`
	ActorOrder []string             `json:"actor_order"`
	Thumbnail  string               `json:"thumbnail,omitempty"`
}

type ActorDoc struct {
	ID          string            `json:"id"`
	CharacterID string            `json:"character_id"`
	X           int               `json:"x"`
	Y           int               `json:"y"`
	Appearance  string            `json:"appearance,omitempty"`
	Transform   string            `json:"transform,omitempty"`
	Variables   map[string]string `json:"variables,omitempty"`
	Frame       int               `json:"frame,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type CharacterDoc struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`

	Variables     map[string]*VariableDefDoc `json:"variables,omitempty"`
	VariableOrder []string                   `json:"variable_order,omitempty"`

	Spritesheet SpritesheetDoc `json:"spritesheet"`
	Rules       []*RuleNodeDoc `json:"rules,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type VariableDefDoc struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Default string `json:"default,omitempty"`
}

type SpritesheetDoc struct {
	DefaultAppearance string                    `json:"default_appearance"`
	Appearances       map[string]*AppearanceDoc `json:"appearances"`
	AppearanceOrder   []string                  `json:"appearance_order,omitempty"`
}

// AppearanceDoc describes one sprite cell grid. Filled is the row-major
// occupancy mask in run-length form (see internal/sim/encoding).
type AppearanceDoc struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Filled string `json:"filled,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type GlobalDoc struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Rule tree node kinds.
const (
	NodeRule       = "RULE"
	NodeEventGroup = "EVENT_GROUP"
	NodeFlowGroup  = "FLOW_GROUP"
)

// RuleNodeDoc is the single wire shape for all tree nodes, discriminated by
// NodeType. Enabled defaults to true when absent.
type RuleNodeDoc struct {
	NodeType string `json:"node_type"`
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Enabled  *bool  `json:"enabled,omitempty"`

	// RULE
	Conditions []*ConditionDoc `json:"conditions,omitempty"`
	Actions    []*ActionDoc    `json:"actions,omitempty"`

	// FLOW_GROUP
	Behavior  string    `json:"behavior,omitempty"`
	LoopCount *ValueDoc `json:"loop_count,omitempty"`
	Check     *CheckDoc `json:"check,omitempty"`

	// EVENT_GROUP and FLOW_GROUP
	Children []*RuleNodeDoc `json:"children,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type CheckDoc struct {
	Conditions []*ConditionDoc `json:"conditions,omitempty"`
	Extent     *ExtentDoc      `json:"extent,omitempty"`
}

type ConditionDoc struct {
	ID         string   `json:"id,omitempty"`
	Enabled    *bool    `json:"enabled,omitempty"`
	Left       ValueDoc `json:"left"`
	Comparator string   `json:"comparator"`
	Right      ValueDoc `json:"right"`

	Extra map[string]json.RawMessage `json:"-"`
}

// Value kinds.
const (
	ValueActor    = "ACTOR"
	ValueGlobal   = "GLOBAL"
	ValueConstant = "CONSTANT"
)

// ValueDoc is one operand. For ACTOR values an empty ActorID means the actor
// evaluating the rule.
type ValueDoc struct {
	ValueType  string `json:"value_type"`
	ActorID    string `json:"actor_id,omitempty"`
	VariableID string `json:"variable_id,omitempty"`
	GlobalID   string `json:"global_id,omitempty"`
	Value      string `json:"value,omitempty"`
}

// Action kinds.
const (
	ActionCreate     = "CREATE"
	ActionMove       = "MOVE"
	ActionDelete     = "DELETE"
	ActionVariable   = "VARIABLE"
	ActionAppearance = "APPEARANCE"
	ActionTransform  = "TRANSFORM"
	ActionGlobal     = "GLOBAL"
)

// Variable scope for VARIABLE actions.
const ScopeGlobal = "GLOBAL"

// ActionDoc is the single wire shape for all actions, discriminated by
// ActionType. Offset fields are pointers because zero offsets are meaningful.
type ActionDoc struct {
	ActionType string `json:"action_type"`
	ID         string `json:"id,omitempty"`

	// CREATE
	CharacterID   string            `json:"character_id,omitempty"`
	OffsetX       *int              `json:"offset_x,omitempty"`
	OffsetY       *int              `json:"offset_y,omitempty"`
	InitialValues map[string]string `json:"initial_values,omitempty"`

	// MOVE, DELETE, VARIABLE, APPEARANCE, TRANSFORM target
	ActorID string `json:"actor_id,omitempty"`

	// MOVE absolute step
	DeltaX *int `json:"delta_x,omitempty"`
	DeltaY *int `json:"delta_y,omitempty"`

	// VARIABLE and GLOBAL
	Scope      string    `json:"scope,omitempty"`
	VariableID string    `json:"variable_id,omitempty"`
	GlobalID   string    `json:"global_id,omitempty"`
	Op         string    `json:"op,omitempty"`
	Value      *ValueDoc `json:"value,omitempty"`

	// APPEARANCE and CREATE
	Appearance string `json:"appearance,omitempty"`

	// TRANSFORM
	Transform string `json:"transform,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// ExtentDoc is an inclusive cell rectangle. Ignored is the row-major mask of
// cells inside the rectangle excluded from matching, in run-length form.
type ExtentDoc struct {
	XMin    int    `json:"x_min"`
	YMin    int    `json:"y_min"`
	XMax    int    `json:"x_max"`
	YMax    int    `json:"y_max"`
	Ignored string `json:"ignored,omitempty"`
}

// RecordingDoc is a synthesized demonstration: the rule draft produced by
// diffing a before and after world over an extent.
type RecordingDoc struct {
	Doc           string `json:"doc"`
	FormatVersion string `json:"format_version"`
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`

	StageID       string    `json:"stage_id"`
	Extent        ExtentDoc `json:"extent"`
	AnchorActorID string    `json:"anchor_actor_id"`

	Conditions []*ConditionDoc `json:"conditions,omitempty"`
	Actions    []*ActionDoc    `json:"actions,omitempty"`

	// VariableOps remembers the author's add/subtract choice per variable id;
	// absent variables diff as plain sets.
	VariableOps map[string]string `json:"variable_ops,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// InputDoc is the host-fed input for one tick.
type InputDoc struct {
	ClickedActorID string `json:"clicked_actor_id,omitempty"`
	Key            string `json:"key,omitempty"`
}
