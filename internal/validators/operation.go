package validators

import (
	"context"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/innerhue/moodsync/models"
)

const (
	FieldOpID            = "op_id"
	FieldEntryID         = "entry_id"
	FieldKind            = "kind"
	FieldOriginDeviceID  = "origin_device_id"
	FieldLogicalClock    = "logical_clock"
	FieldWallClock       = "wall_clock"
	FieldPayload         = "payload"
	FieldVersion         = "version"
	FieldAssignedVersion = "assigned_version"
	FieldEmotion         = "emotion"
	FieldCategory        = "category"
	FieldNote            = "note"
	FieldDeviceID        = "device_id"
	FieldOperations      = "operations"
)

const (
	MaxEmotionLength  = 64
	MaxCategoryLength = 64
	MaxNoteLength     = 4096
)

var defaultOperationFields = []string{
	FieldOpID,
	FieldEntryID,
	FieldKind,
	FieldOriginDeviceID,
	FieldLogicalClock,
	FieldWallClock,
	FieldPayload,
	FieldVersion,
}

type OperationValidator struct {
}

func NewOperationValidator() Validator {
	return &OperationValidator{}
}

func (v *OperationValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Operation:
		return v.validateOperation(ctx, value, fields...)
	case *models.Operation:
		return v.validateOperation(ctx, *value, fields...)

	case models.MoodPayload:
		return v.validatePayload(ctx, value, fields...)
	case *models.MoodPayload:
		return v.validatePayload(ctx, *value, fields...)

	case models.PushRequest:
		return v.validatePushRequest(ctx, value, fields...)
	case *models.PushRequest:
		return v.validatePushRequest(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *OperationValidator) validateOperation(ctx context.Context, op models.Operation, fields ...string) error {
	if len(fields) == 0 {
		fields = defaultOperationFields
	}

	for _, f := range fields {
		switch f {
		case FieldOpID:
			if !isUUID(op.OpID) {
				return NewValidationError(f, ErrInvalidOpID)
			}
		case FieldEntryID:
			if !isUUID(op.EntryID) {
				return NewValidationError(f, ErrInvalidEntryID)
			}
		case FieldKind:
			if !op.Kind.Valid() {
				return NewValidationError(f, ErrInvalidKind)
			}
		case FieldOriginDeviceID:
			if op.OriginDeviceID == "" {
				return NewValidationError(f, ErrEmptyDeviceID)
			}
		case FieldLogicalClock:
			if op.LogicalClock <= 0 {
				return NewValidationError(f, ErrInvalidLogicalClock)
			}
		case FieldWallClock:
			if op.WallClock.IsZero() {
				return NewValidationError(f, ErrEmptyWallClock)
			}
		case FieldPayload:
			if op.Kind == models.OperationDelete {
				continue
			}
			if op.Payload == nil {
				return NewValidationError(f, ErrMissingPayload)
			}
			if err := v.validatePayload(ctx, *op.Payload); err != nil {
				return err
			}
		case FieldVersion:
			// zero means "assign on append"
			if op.Version == 0 && op.BaseVersion == 0 {
				continue
			}
			if op.BaseVersion < 0 || op.Version <= op.BaseVersion {
				return NewValidationError(f, ErrInvalidVersion)
			}
		case FieldAssignedVersion:
			if op.Version <= 0 {
				return NewValidationError(FieldVersion, ErrVersionNotAssigned)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *OperationValidator) validatePayload(_ context.Context, payload models.MoodPayload, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmotion, FieldCategory, FieldNote}
	}

	for _, f := range fields {
		switch f {
		case FieldEmotion:
			if payload.Emotion == "" {
				return NewValidationError(f, ErrEmptyEmotion)
			}
			if utf8.RuneCountInString(payload.Emotion) > MaxEmotionLength {
				return NewValidationError(f, ErrEmotionTooLong)
			}
		case FieldCategory:
			if utf8.RuneCountInString(payload.Category) > MaxCategoryLength {
				return NewValidationError(f, ErrCategoryTooLong)
			}
		case FieldNote:
			if payload.Note != nil && utf8.RuneCountInString(*payload.Note) > MaxNoteLength {
				return NewValidationError(f, ErrNoteTooLong)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

// validatePushRequest checks a batch received by the remote: every operation
// must be complete, carry an assigned version and come from the pushing device.
func (v *OperationValidator) validatePushRequest(ctx context.Context, req models.PushRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldDeviceID, FieldOperations}
	}

	for _, f := range fields {
		switch f {
		case FieldDeviceID:
			if req.DeviceID == "" {
				return NewValidationError(f, ErrEmptyDeviceID)
			}
		case FieldOperations:
			if len(req.Operations) == 0 {
				return NewValidationError(f, ErrEmptyOperations)
			}
			opFields := append([]string{FieldAssignedVersion}, defaultOperationFields...)
			for _, op := range req.Operations {
				if err := v.validateOperation(ctx, op, opFields...); err != nil {
					return err
				}
				if op.OriginDeviceID != req.DeviceID {
					return NewValidationError(FieldOriginDeviceID, ErrForeignOperation)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func isUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
