package form

import (
	"errors"
	"fmt"
	"sync"

	"survey-forms/internal/survey/query"
	"survey-forms/internal/survey/schema"
)

// State of a form session.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

const requiredMessage = "This field is required"

var (
	ErrNotReady     = errors.New("FORM_NOT_READY")
	ErrUnknownField = errors.New("UNKNOWN_FIELD")
	ErrSubmitting   = errors.New("SUBMISSION_IN_PROGRESS")
	ErrBadState     = errors.New("INVALID_STATE_TRANSITION")
	ErrInvalidValue = errors.New("INVALID_VALUE")
)

// Session is one mounted form: loading until a schema arrives, then ready
// (holding values and field errors) or error. Error is terminal; a new
// session has to be opened to retry.
type Session struct {
	ID       string
	FileName string

	mu         sync.Mutex
	state      State
	err        error
	schema     *schema.Schema
	params     query.Params
	prefilled  Values
	values     Values
	errors     FieldErrors
	submitting bool
}

func NewSession(id, fileName string) *Session {
	return &Session{
		ID:       id,
		FileName: fileName,
		state:    StateLoading,
		errors:   FieldErrors{},
	}
}

// Ready moves a loading session to ready with the prefilled values.
func (s *Session) Ready(sc *schema.Schema, params query.Params, prefilled Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return fmt.Errorf("%w: %s -> %s", ErrBadState, s.state, StateReady)
	}
	if sc == nil {
		return fmt.Errorf("%w: nil schema", ErrBadState)
	}
	if params == nil {
		params = query.Params{}
	}

	base := make(Values, len(sc.Fields))
	for _, f := range sc.Fields {
		if !f.Type.Interactive() {
			continue
		}
		if v, ok := prefilled[f.Key]; ok {
			base[f.Key] = v
		} else {
			base[f.Key] = Empty(f)
		}
	}

	s.schema = sc
	s.params = params
	s.prefilled = base
	s.values = base.Clone()
	s.errors = FieldErrors{}
	s.state = StateReady
	return nil
}

// Fail moves a loading session to the terminal error state.
func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return
	}
	s.err = err
	s.state = StateError
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Schema() *schema.Schema {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schema
}

func (s *Session) Params() query.Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Values returns a copy of the current values.
func (s *Session) Values() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values.Clone()
}

// Prefilled returns a copy of the values the session started with.
func (s *Session) Prefilled() Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefilled.Clone()
}

func (s *Session) Errors() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

func (s *Session) Submitting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitting
}

// SetValue stores v for key and clears the error recorded for that field.
func (s *Session) SetValue(key string, v Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setValueLocked(key, v)
}

// SetValues applies every entry of values. Keys that do not belong to an
// interactive field, and values whose shape does not fit the field, are
// rejected before anything is stored.
func (s *Session) SetValues(values Values) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return ErrNotReady
	}
	conformed := make(Values, len(values))
	for key, v := range values {
		cv, err := s.conformLocked(key, v)
		if err != nil {
			return err
		}
		conformed[key] = cv
	}
	for key, v := range conformed {
		s.values[key] = v
		delete(s.errors, key)
	}
	return nil
}

func (s *Session) setValueLocked(key string, v Value) error {
	if s.state != StateReady {
		return ErrNotReady
	}
	cv, err := s.conformLocked(key, v)
	if err != nil {
		return err
	}
	s.values[key] = cv
	delete(s.errors, key)
	return nil
}

// conformLocked checks v against the field it is meant for. Checkbox groups
// take a single string as a one item list; every other field rejects lists.
func (s *Session) conformLocked(key string, v Value) (Value, error) {
	if _, ok := s.values[key]; !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	f, _ := s.schema.FieldByKey(key)
	switch {
	case f.Type == schema.TypeCheckbox && !v.IsList():
		return List(v.Items()...), nil
	case f.Type != schema.TypeCheckbox && v.IsList():
		return Value{}, fmt.Errorf("%w: %s (%s) does not take a list", ErrInvalidValue, key, f.Type)
	}
	return v, nil
}

// Validate checks every required, enabled, interactive field and replaces the
// recorded field errors with the result.
func (s *Session) Validate() FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()

	errs := FieldErrors{}
	if s.state != StateReady {
		return errs
	}
	for _, f := range s.schema.Fields {
		if !f.Type.Interactive() || !f.Required || f.Disabled {
			continue
		}
		if !HasRequiredValue(f, s.values.Get(f)) {
			errs[f.Key] = requiredMessage
		}
	}
	s.errors = errs
	return errs.Clone()
}

// BeginSubmit marks the session as submitting. Only one submission may run
// at a time.
func (s *Session) BeginSubmit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return ErrNotReady
	}
	if s.submitting {
		return ErrSubmitting
	}
	s.submitting = true
	return nil
}

func (s *Session) EndSubmit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
}

// Reset restores the prefilled values and clears field errors.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReady {
		return
	}
	s.values = s.prefilled.Clone()
	s.errors = FieldErrors{}
}
