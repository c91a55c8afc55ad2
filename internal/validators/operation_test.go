package validators

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innerhue/moodsync/models"
)

func validOperation() models.Operation {
	return models.Operation{
		OpID:           uuid.NewString(),
		EntryID:        uuid.NewString(),
		Kind:           models.OperationCreate,
		Payload:        &models.MoodPayload{Emotion: "calm", Category: "work"},
		OriginDeviceID: "device-a",
		LogicalClock:   1,
		WallClock:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Version:        1,
		BaseVersion:    0,
	}
}

func TestOperationValidator_Operation(t *testing.T) {
	longNote := strings.Repeat("n", MaxNoteLength+1)

	tests := []struct {
		name    string
		mutate  func(op *models.Operation)
		wantErr error
		field   string
	}{
		{name: "valid create", mutate: func(*models.Operation) {}},
		{
			name:   "valid delete without payload",
			mutate: func(op *models.Operation) { op.Kind = models.OperationDelete; op.Payload = nil },
		},
		{
			name:   "unassigned version is accepted",
			mutate: func(op *models.Operation) { op.Version = 0; op.BaseVersion = 0 },
		},
		{
			name:    "malformed op id",
			mutate:  func(op *models.Operation) { op.OpID = "not-a-uuid" },
			wantErr: ErrInvalidOpID,
			field:   FieldOpID,
		},
		{
			name:    "empty entry id",
			mutate:  func(op *models.Operation) { op.EntryID = "" },
			wantErr: ErrInvalidEntryID,
			field:   FieldEntryID,
		},
		{
			name:    "unknown kind",
			mutate:  func(op *models.Operation) { op.Kind = "merge" },
			wantErr: ErrInvalidKind,
			field:   FieldKind,
		},
		{
			name:    "missing device",
			mutate:  func(op *models.Operation) { op.OriginDeviceID = "" },
			wantErr: ErrEmptyDeviceID,
			field:   FieldOriginDeviceID,
		},
		{
			name:    "zero logical clock",
			mutate:  func(op *models.Operation) { op.LogicalClock = 0 },
			wantErr: ErrInvalidLogicalClock,
			field:   FieldLogicalClock,
		},
		{
			name:    "zero wall clock",
			mutate:  func(op *models.Operation) { op.WallClock = time.Time{} },
			wantErr: ErrEmptyWallClock,
			field:   FieldWallClock,
		},
		{
			name:    "update without payload",
			mutate:  func(op *models.Operation) { op.Kind = models.OperationUpdate; op.Payload = nil },
			wantErr: ErrMissingPayload,
			field:   FieldPayload,
		},
		{
			name:    "empty emotion",
			mutate:  func(op *models.Operation) { op.Payload.Emotion = "" },
			wantErr: ErrEmptyEmotion,
			field:   FieldEmotion,
		},
		{
			name:    "note too long",
			mutate:  func(op *models.Operation) { op.Payload.Note = &longNote },
			wantErr: ErrNoteTooLong,
			field:   FieldNote,
		},
		{
			name:    "version not above base",
			mutate:  func(op *models.Operation) { op.Version = 3; op.BaseVersion = 3 },
			wantErr: ErrInvalidVersion,
			field:   FieldVersion,
		},
	}

	v := NewOperationValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := validOperation()
			tt.mutate(&op)

			err := v.Validate(context.Background(), op)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestOperationValidator_PointerAndFields(t *testing.T) {
	v := NewOperationValidator()
	op := validOperation()
	op.OpID = "bad"

	// only the requested field is checked
	assert.NoError(t, v.Validate(context.Background(), &op, FieldEntryID))
	assert.ErrorIs(t, v.Validate(context.Background(), &op, FieldOpID), ErrInvalidOpID)
	assert.ErrorIs(t, v.Validate(context.Background(), &op, "bogus"), ErrUnknownField)
}

func TestOperationValidator_MultibyteLength(t *testing.T) {
	v := NewOperationValidator()

	emotion := strings.Repeat("ё", MaxEmotionLength)
	assert.NoError(t, v.Validate(context.Background(), models.MoodPayload{Emotion: emotion}))

	emotion += "ё"
	assert.ErrorIs(t, v.Validate(context.Background(), models.MoodPayload{Emotion: emotion}), ErrEmotionTooLong)

	category := strings.Repeat("c", MaxCategoryLength+1)
	assert.ErrorIs(t, v.Validate(context.Background(), &models.MoodPayload{Emotion: "ok", Category: category}), ErrCategoryTooLong)
}

func TestOperationValidator_PushRequest(t *testing.T) {
	v := NewOperationValidator()

	t.Run("valid", func(t *testing.T) {
		req := models.PushRequest{DeviceID: "device-a", Operations: []models.Operation{validOperation()}}
		assert.NoError(t, v.Validate(context.Background(), req))
	})

	t.Run("empty device", func(t *testing.T) {
		req := models.PushRequest{Operations: []models.Operation{validOperation()}}
		assert.ErrorIs(t, v.Validate(context.Background(), &req), ErrEmptyDeviceID)
	})

	t.Run("empty batch", func(t *testing.T) {
		req := models.PushRequest{DeviceID: "device-a"}
		assert.ErrorIs(t, v.Validate(context.Background(), req), ErrEmptyOperations)
	})

	t.Run("foreign operation", func(t *testing.T) {
		op := validOperation()
		op.OriginDeviceID = "device-b"
		req := models.PushRequest{DeviceID: "device-a", Operations: []models.Operation{op}}
		assert.ErrorIs(t, v.Validate(context.Background(), req), ErrForeignOperation)
	})

	t.Run("version must be assigned", func(t *testing.T) {
		op := validOperation()
		op.Version = 0
		req := models.PushRequest{DeviceID: "device-a", Operations: []models.Operation{op}}
		assert.ErrorIs(t, v.Validate(context.Background(), req), ErrVersionNotAssigned)
	})
}

func TestOperationValidator_UnsupportedType(t *testing.T) {
	v := NewOperationValidator()
	assert.ErrorIs(t, v.Validate(context.Background(), 42), ErrUnsupportedType)
}

func TestValidationError(t *testing.T) {
	err := NewValidationError(FieldOpID, ErrInvalidOpID)
	assert.Equal(t, "validation failed on op_id: operation id must be a UUID", err.Error())
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(ErrInvalidOpID))

	bare := &ValidationError{Err: ErrStaleLogicalClock}
	assert.Contains(t, bare.Error(), "validation failed:")
}
