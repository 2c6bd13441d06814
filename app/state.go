package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mailru/easyjson"
	"github.com/mailru/easyjson/jlexer"
	"github.com/mailru/easyjson/jwriter"
)

const stateFile = "state.json"

// State is the persisted form of the generator. Both fields are written as
// decimal strings so that JSON readers without 64-bit integers keep every
// bit.
type State struct {
	Counter uint64
	Key     uint64
}

var _ easyjson.MarshalerUnmarshaler = (*State)(nil)

// MarshalEasyJSON supports easyjson.Marshaler interface
func (st State) MarshalEasyJSON(w *jwriter.Writer) {
	w.RawByte('{')
	w.RawString(`"counter":`)
	w.Uint64Str(st.Counter)
	w.RawString(`,"key":`)
	w.Uint64Str(st.Key)
	w.RawByte('}')
}

// UnmarshalEasyJSON supports easyjson.Unmarshaler interface
func (st *State) UnmarshalEasyJSON(in *jlexer.Lexer) {
	isTopLevel := in.IsStart()
	if in.IsNull() {
		if isTopLevel {
			in.Consumed()
		}
		in.Skip()
		return
	}
	var hasCounter, hasKey bool
	in.Delim('{')
	for !in.IsDelim('}') {
		key := in.UnsafeFieldName(false)
		in.WantColon()
		if in.IsNull() {
			in.Skip()
			in.WantComma()
			continue
		}
		switch key {
		case "counter":
			st.Counter = in.Uint64Str()
			hasCounter = true
		case "key":
			st.Key = in.Uint64Str()
			hasKey = true
		default:
			in.SkipRecursive()
		}
		in.WantComma()
	}
	in.Delim('}')
	if isTopLevel {
		in.Consumed()
	}
	if in.Ok() && (!hasCounter || !hasKey) {
		in.AddError(fmt.Errorf("state: %w, missing counter or key", ErrCorrupt))
	}
}

// MarshalJSON supports json.Marshaler interface
func (st State) MarshalJSON() ([]byte, error) {
	return easyjson.Marshal(st)
}

// UnmarshalJSON supports json.Unmarshaler interface
func (st *State) UnmarshalJSON(data []byte) error {
	return easyjson.Unmarshal(data, st)
}

// readState reads the state file in dir. A missing file is not an error and
// returns nil.
func readState(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	st := new(State)
	if err := easyjson.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", stateFile, ErrCorrupt, err)
	}
	return st, nil
}

// writeState replaces the state file in dir. The new contents are written
// to a temporary file first so a crash never leaves a partial file behind.
func writeState(dir string, st State) error {
	data, err := easyjson.Marshal(st)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, stateFile+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Rename(tmp, filepath.Join(dir, stateFile))
	}
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
