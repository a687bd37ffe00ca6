package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrSubmitInFlight is returned when Submit is called while a save is pending.
var ErrSubmitInFlight = errors.New("storefront: submit already in flight")

// RecordFormOptions configures a create/edit form bound to one resource.
type RecordFormOptions struct {
	Client     ResourceClient
	Definition ResourceDefinition
	Validator  PayloadValidator
	// List receives saved records so the list page reflects them without a refetch.
	List     *List
	Notifier Notifier
	Logger   *slog.Logger
	// FailedMessage is shown when the backend offers no message of its own.
	FailedMessage string
}

// RecordForm loads a record for editing and submits create or update payloads.
type RecordForm struct {
	mu        sync.Mutex
	opts      RecordFormOptions
	validator PayloadValidator
	notifier  Notifier
	logger    *slog.Logger

	id         string
	record     Record
	submitting bool
	err        error
	errMsg     string
}

// NewRecordForm builds a form in create mode.
func NewRecordForm(opts RecordFormOptions) *RecordForm {
	if opts.Validator == nil {
		opts.Validator = noopPayloadValidator{}
	}
	if opts.FailedMessage == "" {
		opts.FailedMessage = "Could not save record"
	}
	if opts.Definition.IDField == "" {
		opts.Definition.IDField = "id"
	}
	return &RecordForm{
		opts:      opts,
		validator: opts.Validator,
		notifier:  normalizeNotifier(opts.Notifier),
		logger:    normalizeLogger(opts.Logger),
	}
}

// Load retrieves the record identified by id and switches to edit mode.
func (f *RecordForm) Load(ctx context.Context, id string) (Record, error) {
	if f.opts.Client == nil {
		return nil, ErrNoClient
	}
	record, err := f.opts.Client.Retrieve(ctx, id)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.err = err
		f.errMsg = MessageFor(err, "Could not load record")
		return nil, err
	}
	f.id = id
	f.record = record.Clone()
	f.err = nil
	f.errMsg = ""
	return record, nil
}

// Record returns the loaded record, or nil in create mode.
func (f *RecordForm) Record() Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.record.Clone()
}

// Editing reports whether the form targets an existing record.
func (f *RecordForm) Editing() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id != ""
}

// Submit validates payload and creates or updates the record.
func (f *RecordForm) Submit(ctx context.Context, payload map[string]any) (Record, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if f.opts.Client == nil {
		f.mu.Unlock()
		return nil, ErrNoClient
	}
	id := f.id
	f.err = nil
	f.errMsg = ""
	f.submitting = true
	f.mu.Unlock()

	if err := f.validator.Validate(f.opts.Definition, payload); err != nil {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
		f.fail(err)
		return nil, err
	}

	var (
		saved Record
		err   error
	)
	if id == "" {
		saved, err = f.opts.Client.Create(ctx, payload)
	} else {
		saved, err = f.opts.Client.Update(ctx, id, payload)
	}

	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()

	if err != nil {
		f.fail(err)
		f.logger.WarnContext(ctx, "record save failed",
			slog.String("resource", f.opts.Definition.Key()),
			slog.String("id", id),
			slog.Any("error", err),
		)
		f.notifier.Notify(ctx, Toast{Level: ToastError, Message: f.Message(), Resource: f.opts.Definition.Name, RecordID: id})
		return nil, err
	}

	f.mu.Lock()
	f.record = saved.Clone()
	if newID, ok := saved.ID(f.opts.Definition.IDField); ok {
		f.id = newID
	}
	f.mu.Unlock()

	if f.opts.List != nil {
		if err := f.opts.List.Upsert(saved); err != nil && !errors.Is(err, ErrClosed) {
			return saved, fmt.Errorf("storefront: apply saved record: %w", err)
		}
	}
	return saved, nil
}

func (f *RecordForm) fail(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	f.errMsg = MessageFor(err, f.opts.FailedMessage)
}

// Submitting reports whether a save is awaiting the backend.
func (f *RecordForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Err returns the last load or submit error.
func (f *RecordForm) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Message returns the display string for the last error.
func (f *RecordForm) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}
