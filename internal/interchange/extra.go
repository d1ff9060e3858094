package interchange

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// Unknown top-level members of a document survive a load/save cycle: they are
// captured into the struct's Extra map on decode and spliced back, sorted by
// key, on encode. Tools built against a newer format keep their data intact
// through an older engine.

// extraFields returns the members of raw whose keys are not json-tagged
// fields of v (a pointer to struct). Nil when every member is known.
func extraFields(raw []byte, v any) map[string]json.RawMessage {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil
	}
	for _, name := range knownFields(reflect.TypeOf(v).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		return nil
	}
	return all
}

func knownFields(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		name := strings.Split(tag, ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

// mergeExtra marshals v and appends the preserved members in key order.
func mergeExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if len(extra) == 0 {
		return base, nil
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.Write(bytes.TrimSuffix(base, []byte("}")))
	for i, k := range keys {
		if i > 0 || !bytes.Equal(base, []byte("{}")) {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (d *WorldDoc) UnmarshalJSON(b []byte) error {
	type alias WorldDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = WorldDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *WorldDoc) MarshalJSON() ([]byte, error) {
	type alias WorldDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *StageDoc) UnmarshalJSON(b []byte) error {
	type alias StageDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = StageDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *StageDoc) MarshalJSON() ([]byte, error) {
	type alias StageDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *ActorDoc) UnmarshalJSON(b []byte) error {
	type alias ActorDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = ActorDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *ActorDoc) MarshalJSON() ([]byte, error) {
	type alias ActorDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *CharacterDoc) UnmarshalJSON(b []byte) error {
	type alias CharacterDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = CharacterDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *CharacterDoc) MarshalJSON() ([]byte, error) {
	type alias CharacterDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *AppearanceDoc) UnmarshalJSON(b []byte) error {
	type alias AppearanceDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = AppearanceDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *AppearanceDoc) MarshalJSON() ([]byte, error) {
	type alias AppearanceDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *GlobalDoc) UnmarshalJSON(b []byte) error {
	type alias GlobalDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = GlobalDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *GlobalDoc) MarshalJSON() ([]byte, error) {
	type alias GlobalDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *RuleNodeDoc) UnmarshalJSON(b []byte) error {
	type alias RuleNodeDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = RuleNodeDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *RuleNodeDoc) MarshalJSON() ([]byte, error) {
	type alias RuleNodeDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *ConditionDoc) UnmarshalJSON(b []byte) error {
	type alias ConditionDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = ConditionDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *ConditionDoc) MarshalJSON() ([]byte, error) {
	type alias ConditionDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *ActionDoc) UnmarshalJSON(b []byte) error {
	type alias ActionDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = ActionDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *ActionDoc) MarshalJSON() ([]byte, error) {
	type alias ActionDoc
	return mergeExtra((*alias)(d), d.Extra)
}

func (d *RecordingDoc) UnmarshalJSON(b []byte) error {
	type alias RecordingDoc
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*d = RecordingDoc(a)
	d.Extra = extraFields(b, (*alias)(d))
	return nil
}

func (d *RecordingDoc) MarshalJSON() ([]byte, error) {
	type alias RecordingDoc
	return mergeExtra((*alias)(d), d.Extra)
}
