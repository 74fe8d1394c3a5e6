package validation

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounce is the quiet period after the last edit before a field is
// re-validated.
const DefaultDebounce = 300 * time.Millisecond

// FieldState is the externally visible state of one field.
type FieldState struct {
	Errors   []Message `json:"errors"`
	Warnings []Message `json:"warnings"`
	Touched  bool      `json:"touched"`
}

// State is a read-only snapshot of the whole form.
type State struct {
	Fields map[string]FieldState `json:"fields"`
	// IsValid is true iff no field carries an error. Fields listed in
	// PendingFields have an outstanding debounced validation and must not be
	// trusted; use Settled alongside IsValid to gate submission.
	IsValid       bool     `json:"isValid"`
	PendingFields []string `json:"pendingValidationFields"`
}

// Settled reports whether no debounced validation is outstanding.
func (s State) Settled() bool {
	return len(s.PendingFields) == 0
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithDebounce overrides the debounce interval.
func WithDebounce(d time.Duration) FormOption {
	return func(f *Form) { f.debounce = d }
}

// WithValidityChanged registers a notification invoked whenever the form
// validity flips. It is called outside the form lock.
func WithValidityChanged(fn func(valid bool)) FormOption {
	return func(f *Form) { f.onValidity = fn }
}

// Form tracks values and per-field validation state for one form instance.
// Edits are validated lazily: each change resets a per-field timer and only
// a quiet period triggers validation, while blur and submission flush
// immediately. Errors are cleared optimistically the instant a value changes.
type Form struct {
	mu         sync.Mutex
	schema     FormSchema
	debounce   time.Duration
	values     map[string]any
	fields     map[string]*FieldState
	timers     map[string]*time.Timer
	onValidity func(bool)
	lastValid  bool
}

// NewForm creates a form for the given schema.
func NewForm(schema FormSchema, opts ...FormOption) *Form {
	f := &Form{
		schema:   schema,
		debounce: DefaultDebounce,
		values:   map[string]any{},
		fields:   map[string]*FieldState{},
		timers:   map[string]*time.Timer{},
	}
	for _, field := range schema.Fields {
		f.fields[field.Name] = &FieldState{}
	}
	for _, opt := range opts {
		opt(f)
	}
	f.lastValid = true
	return f
}

// SetValue records a new value for the field. The field's errors are cleared
// immediately so a stale error is never shown against new input, and the
// authoritative re-validation is scheduled after the debounce interval.
func (f *Form) SetValue(name string, value any) {
	f.mu.Lock()
	f.values[name] = value

	state, ok := f.fields[name]
	if !ok {
		state = &FieldState{}
		f.fields[name] = state
	}
	state.Errors = nil

	if timer, ok := f.timers[name]; ok {
		timer.Stop()
	}
	f.timers[name] = time.AfterFunc(f.debounce, func() {
		f.flushField(name)
	})

	notify, valid := f.validityChangedLocked()
	f.mu.Unlock()

	if notify {
		f.onValidity(valid)
	}
}

// Blur marks the field touched and validates it immediately, bypassing any
// pending debounce timer.
func (f *Form) Blur(name string) {
	f.mu.Lock()
	if state, ok := f.fields[name]; ok {
		state.Touched = true
	}
	f.validateFieldLocked(name)

	notify, valid := f.validityChangedLocked()
	f.mu.Unlock()

	if notify {
		f.onValidity(valid)
	}
}

// ValidateAll flushes every pending timer and validates every field
// regardless of touched state, then returns the settled state. This is the
// submission gate: the returned state has no pending fields.
func (f *Form) ValidateAll() State {
	f.mu.Lock()
	for name, timer := range f.timers {
		timer.Stop()
		delete(f.timers, name)
	}
	for _, field := range f.schema.Fields {
		f.validateFieldLocked(field.Name)
	}
	state := f.snapshotLocked()

	notify, valid := f.validityChangedLocked()
	f.mu.Unlock()

	if notify {
		f.onValidity(valid)
	}
	return state
}

// Reset drops all values, findings and pending timers.
func (f *Form) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for name, timer := range f.timers {
		timer.Stop()
		delete(f.timers, name)
	}
	f.values = map[string]any{}
	f.fields = map[string]*FieldState{}
	for _, field := range f.schema.Fields {
		f.fields[field.Name] = &FieldState{}
	}
	f.lastValid = true
}

// Snapshot returns a deep copy of the current state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Value returns the currently stored value of a field.
func (f *Form) Value(name string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// flushField is the debounce timer callback.
func (f *Form) flushField(name string) {
	f.mu.Lock()
	if _, pending := f.timers[name]; !pending {
		// Superseded by a blur or a full validation in the meantime.
		f.mu.Unlock()
		return
	}
	f.validateFieldLocked(name)

	notify, valid := f.validityChangedLocked()
	f.mu.Unlock()

	if notify {
		f.onValidity(valid)
	}
}

func (f *Form) validateFieldLocked(name string) {
	if timer, ok := f.timers[name]; ok {
		timer.Stop()
		delete(f.timers, name)
	}
	result := ValidateField(name, f.values[name], f.schema)
	state, ok := f.fields[name]
	if !ok {
		state = &FieldState{}
		f.fields[name] = state
	}
	state.Errors = result.Errors
	state.Warnings = result.Warnings
}

func (f *Form) snapshotLocked() State {
	state := State{
		Fields:  make(map[string]FieldState, len(f.fields)),
		IsValid: true,
	}
	for name, fs := range f.fields {
		state.Fields[name] = FieldState{
			Errors:   append([]Message(nil), fs.Errors...),
			Warnings: append([]Message(nil), fs.Warnings...),
			Touched:  fs.Touched,
		}
		if len(fs.Errors) > 0 {
			state.IsValid = false
		}
	}
	for name := range f.timers {
		state.PendingFields = append(state.PendingFields, name)
	}
	sort.Strings(state.PendingFields)
	return state
}

func (f *Form) validityChangedLocked() (bool, bool) {
	valid := true
	for _, fs := range f.fields {
		if len(fs.Errors) > 0 {
			valid = false
			break
		}
	}
	if valid == f.lastValid || f.onValidity == nil {
		f.lastValid = valid
		return false, valid
	}
	f.lastValid = valid
	return true, valid
}
