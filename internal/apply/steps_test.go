package apply

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mark3labs/applywiz/internal/form"
)

func TestResolveDefaultSteps(t *testing.T) {
	steps, err := ResolveSteps(form.DefaultSteps())
	require.NoError(t, err)
	require.Len(t, steps, 5)

	assert.Equal(t, 1, steps[0].Number)
	assert.Equal(t, form.Fields(form.SectionPersonal), steps[0].Fields)
	assert.True(t, steps[0].IsRequired(form.LastName))
	assert.False(t, steps[0].IsRequired(form.Address))
	assert.Empty(t, steps[3].Required)
}

func TestResolveStepsInfersFields(t *testing.T) {
	cfg := form.StepsConfig{
		TotalSteps: 7,
		Steps: []form.StepConfig{
			{Title: "About you", RequiredFields: []string{"first_name", "academic_info.gpa"}},
			{Title: "Money"},
			{StepNumber: 3, Fields: []string{"skills"}, RequiredFields: []string{"personal_statement"}},
		},
	}
	steps, err := ResolveSteps(cfg)
	require.NoError(t, err)
	require.Len(t, steps, 3, "the listed steps win over total_steps")

	want := append(form.Fields(form.SectionPersonal), form.Fields(form.SectionAcademic)...)
	assert.Equal(t, want, steps[0].Fields)
	assert.Equal(t, form.Fields(form.SectionAcademic), steps[1].Fields, "position two shows the second section")
	assert.Equal(t, []form.Ref{form.Skills, form.PersonalStatement}, steps[2].Fields, "required fields are always shown")
	assert.Equal(t, "Step 3", steps[2].Title)
}

func TestResolveStepsRejectsUnknownFields(t *testing.T) {
	_, err := ResolveSteps(form.StepsConfig{Steps: []form.StepConfig{{Fields: []string{"personal_info.pet"}}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Step: 2, Fields: map[string]string{
		"gpa":     "GPA is required",
		"faculty": "Faculty is required",
	}}
	assert.Equal(t, "step 2: Faculty is required; GPA is required", err.Error())
}

func TestAutosaverRunsUntilStopped(t *testing.T) {
	var calls atomic.Int32
	a := NewAutosaver(10*time.Millisecond, func(ctx context.Context) bool {
		calls.Add(1)
		return true
	})
	assert.False(t, a.Running())

	a.Start(context.Background())
	a.Start(context.Background())
	assert.True(t, a.Running())
	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)

	a.Stop()
	a.Stop()
	assert.False(t, a.Running())
	// A tick that fired just before Stop may still finish its save.
	time.Sleep(10 * time.Millisecond)
	stopped := calls.Load()
	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())
}

func TestAutosaverStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	a := NewAutosaver(5*time.Millisecond, func(ctx context.Context) bool {
		calls.Add(1)
		return false
	})
	a.Start(ctx)
	cancel()
	a.Stop()
	time.Sleep(10 * time.Millisecond)
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load())
}

func TestAutosaverStopDoesNotCancelRunningSave(t *testing.T) {
	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	saveErr := make(chan error, 1)
	a := NewAutosaver(5*time.Millisecond, func(ctx context.Context) bool {
		select {
		case entered <- struct{}{}:
		default:
			return false
		}
		<-release
		saveErr <- ctx.Err()
		return true
	})
	a.Start(context.Background())
	<-entered

	a.Stop()
	assert.False(t, a.Running())
	close(release)
	assert.NoError(t, <-saveErr)
}
