package crud

// Kind tags the result of an orchestrated operation.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindCreated
	KindNoContent
	KindNotFound
	KindBadRequest
	KindInvalidInput
	KindConfirm
	KindStoreFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindCreated:
		return "created"
	case KindNoContent:
		return "no_content"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindInvalidInput:
		return "invalid_input"
	case KindConfirm:
		return "confirm"
	case KindStoreFailure:
		return "store_failure"
	default:
		return "unknown"
	}
}

// Outcome is what an Orchestrator hands to a presentation adapter.
// Which fields are set depends on Kind:
//
//	Success       Entity, or Entities for List
//	Created       Entity and ID (target of the read-one location)
//	InvalidInput  Entity exactly as supplied, Err is a *ValidationError
//	Confirm       Entity awaiting delete confirmation
//	NotFound      Err wraps ErrNotFound
//	BadRequest    Err wraps ErrConsistency
//	StoreFailure  Err wraps a *repository.StoreError
type Outcome[T any] struct {
	Kind     Kind
	Entity   T
	Entities []T
	ID       int64
	Err      error
}

// FieldErrors returns the per-field messages of an InvalidInput outcome, or nil.
func (o Outcome[T]) FieldErrors() FieldErrors {
	if verr, ok := o.Err.(*ValidationError); ok {
		return verr.Fields
	}
	return nil
}
