package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/viant/guaranty/fault"
)

func TestStatus(t *testing.T) {
	type testCase struct {
		name   string
		err    error
		expect string
	}
	tests := []testCase{
		{name: "nil", expect: StatusSuccess},
		{name: "fault", err: fault.ErrActorsNotApproved.With("policy p1"), expect: "ACTORS_NOT_APPROVED"},
		{name: "foreign", err: errors.New("disk full"), expect: StatusError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, Status(tc.err))
		})
	}
}

func TestRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	recorder := New(registry)

	recorder.Observe("ApprovePolicy", time.Now(), nil)
	recorder.Observe("ApprovePolicy", time.Now(), fault.ErrLockTimeout)
	recorder.Observe("ApprovePolicy", time.Now(), nil)
	recorder.Transition("PENDING_APPROVAL", "APPROVED")

	assert.Equal(t, 2.0, testutil.ToFloat64(recorder.operations.WithLabelValues("ApprovePolicy", StatusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.operations.WithLabelValues("ApprovePolicy", "LOCK_TIMEOUT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(recorder.transitions.WithLabelValues("PENDING_APPROVAL", "APPROVED")))
	assert.Equal(t, 1, testutil.CollectAndCount(recorder.duration))

	var nilRecorder *Recorder
	assert.NotPanics(t, func() {
		nilRecorder.Observe("Get", time.Now(), nil)
		nilRecorder.Transition("A", "B")
	})
}
