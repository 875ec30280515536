package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/types"
)

// SessionStore is the contract the wizard persists through. Load never fails
// and Save/Clear never report errors: persistence problems degrade to "not
// resumable" and are only logged.
type SessionStore interface {
	Load(ctx context.Context, formKey string) types.FormSession
	Save(ctx context.Context, formKey string, session types.FormSession)
	Clear(ctx context.Context, formKey string)
}

// FormSchema is what a FormStore needs to know about the form it persists.
type FormSchema struct {
	Defaults   types.Fields
	TotalSteps int
}

// Default returns the session equivalent to "no record".
func (s FormSchema) Default() types.FormSession {
	return types.FormSession{
		Fields:      s.Defaults.Clone(),
		CurrentStep: 1,
	}
}

type record struct {
	ID          string          `json:"id"`
	Fields      json.RawMessage `json:"fields"`
	CurrentStep int             `json:"current_step"`
	LastUpdated time.Time       `json:"last_updated"`
}

type FormStoreOption func(*FormStore)

func WithLogger(logger *slog.Logger) FormStoreOption {
	return func(s *FormStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) FormStoreOption {
	return func(s *FormStore) {
		if now != nil {
			s.now = now
		}
	}
}

// FormStore persists whole FormSession records as JSON in a namespaced Cache.
type FormStore struct {
	store  Store[[]byte]
	schema FormSchema
	logger *slog.Logger
	now    func() time.Time
}

var _ SessionStore = (*FormStore)(nil)

func NewFormStore(core Cache[[]byte], namespace string, schema FormSchema, opts ...FormStoreOption) *FormStore {
	if schema.TotalSteps < 1 {
		schema.TotalSteps = 1
	}
	s := &FormStore{
		store:  NewStore(core, namespace),
		schema: schema,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *FormStore) Schema() FormSchema { return s.schema }

func (s *FormStore) Load(ctx context.Context, formKey string) types.FormSession {
	raw, ok, err := s.store.Get(ctx, formKey)
	if err != nil {
		s.warn("load", formKey, err)
		return s.schema.Default()
	}
	if !ok || len(raw) == 0 {
		return s.schema.Default()
	}

	var rec record
	if err := sonic.Unmarshal(raw, &rec); err != nil {
		s.warn("decode", formKey, err)
		return s.schema.Default()
	}

	fields, err := patch.MergeDefaults(s.schema.Defaults, rec.Fields)
	if err != nil {
		s.warn("merge", formKey, err)
	}

	return types.FormSession{
		ID:          rec.ID,
		Fields:      fields,
		CurrentStep: s.clampStep(rec.CurrentStep),
		LastUpdated: rec.LastUpdated,
	}
}

func (s *FormStore) Save(ctx context.Context, formKey string, session types.FormSession) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.LastUpdated.IsZero() {
		session.LastUpdated = s.now()
	}
	fields, err := sonic.Marshal(session.Fields)
	if err != nil {
		s.warn("encode", formKey, err)
		return
	}
	raw, err := sonic.Marshal(record{
		ID:          session.ID,
		Fields:      fields,
		CurrentStep: s.clampStep(session.CurrentStep),
		LastUpdated: session.LastUpdated.UTC(),
	})
	if err != nil {
		s.warn("encode", formKey, err)
		return
	}
	if err := s.store.Set(ctx, formKey, raw); err != nil {
		s.warn("save", formKey, err)
		return
	}
	s.logger.Debug("Saved form session", "form_key", formKey, "session_id", session.ID, "step", session.CurrentStep)
}

func (s *FormStore) Clear(ctx context.Context, formKey string) {
	if err := s.store.Del(ctx, formKey); err != nil {
		s.warn("clear", formKey, err)
		return
	}
	s.logger.Debug("Cleared form session", "form_key", formKey)
}

func (s *FormStore) clampStep(step int) int {
	if step < 1 {
		return 1
	}
	if step > s.schema.TotalSteps {
		return s.schema.TotalSteps
	}
	return step
}

func (s *FormStore) warn(op, formKey string, err error) {
	key, _ := s.store.Key(formKey)
	perr := &types.PersistenceError{Op: op, Key: key, Err: err}
	s.logger.Warn("Form persistence failed", "form_key", formKey, "error", perr)
}
