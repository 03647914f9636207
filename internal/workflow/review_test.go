package workflow

import (
	"testing"

	"github.com/blues/catalyst/internal/apperror"
	"github.com/blues/catalyst/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecision(t *testing.T) {
	for _, status := range []model.ReviewStatus{
		model.ReviewStatusApproved,
		model.ReviewStatusRejected,
		model.ReviewStatusNeedsChanges,
	} {
		d, err := NewDecision(status)
		require.NoError(t, err)
		assert.Equal(t, status, d.ReviewStatus())
	}

	for _, status := range []model.ReviewStatus{model.ReviewStatusPending, "MAYBE", ""} {
		_, err := NewDecision(status)
		assert.True(t, apperror.IsKind(err, apperror.KindValidation), "status %q", status)
	}
}

func TestReviewSideEffects(t *testing.T) {
	tests := []struct {
		decision model.ReviewStatus
		want     model.TaskStatus
	}{
		{model.ReviewStatusApproved, model.TaskStatusCompleted},
		{model.ReviewStatusRejected, model.TaskStatusInProgress},
		{model.ReviewStatusNeedsChanges, model.TaskStatusInProgress},
	}
	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			d, err := NewDecision(tt.decision)
			require.NoError(t, err)

			tr, err := Review(model.TaskStatusInReview, model.ReviewStatusPending, d)
			require.NoError(t, err)
			assert.Equal(t, model.ReviewStatusPending, tr.FromReview)
			assert.Equal(t, tt.decision, tr.ToReview)
			assert.Equal(t, model.TaskStatusInReview, tr.FromStatus)
			assert.Equal(t, tt.want, tr.ToStatus)
		})
	}
}

func TestReviewRejectsIllegalTransitions(t *testing.T) {
	approve, err := NewDecision(model.ReviewStatusApproved)
	require.NoError(t, err)

	_, err = Review(model.TaskStatusInProgress, model.ReviewStatusPending, approve)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	for _, closed := range []model.ReviewStatus{model.ReviewStatusApproved, model.ReviewStatusRejected, model.ReviewStatusNeedsChanges} {
		_, err = Review(model.TaskStatusInReview, closed, approve)
		assert.True(t, apperror.IsKind(err, apperror.KindConflict), "from %s", closed)
	}

	_, err = Review(model.TaskStatusInReview, model.ReviewStatusPending, Decision{})
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))
}

func TestResubmission(t *testing.T) {
	assert.True(t, IsResubmission(model.TaskStatusInProgress, model.TaskStatusInReview))
	assert.False(t, IsResubmission(model.TaskStatusInReview, model.TaskStatusInReview))
	assert.False(t, IsResubmission(model.TaskStatusTodo, model.TaskStatusInProgress))
	assert.Equal(t, model.ReviewStatusPending, Resubmit())
}

func TestCheckManualStatus(t *testing.T) {
	err := CheckManualStatus(model.TaskStatusInReview, model.ReviewStatusPending, model.TaskStatusCompleted)
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	err = CheckManualStatus(model.TaskStatusInProgress, model.ReviewStatusRejected, model.TaskStatusCompleted)
	assert.True(t, apperror.IsKind(err, apperror.KindAuthorization))

	err = CheckManualStatus(model.TaskStatusInReview, model.ReviewStatusPending, model.TaskStatusInProgress)
	assert.True(t, apperror.IsKind(err, apperror.KindConflict))

	assert.NoError(t, CheckManualStatus(model.TaskStatusTodo, model.ReviewStatusPending, model.TaskStatusInProgress))
	assert.NoError(t, CheckManualStatus(model.TaskStatusInProgress, model.ReviewStatusRejected, model.TaskStatusInReview))
	assert.NoError(t, CheckManualStatus(model.TaskStatusCompleted, model.ReviewStatusApproved, model.TaskStatusInProgress))
}
