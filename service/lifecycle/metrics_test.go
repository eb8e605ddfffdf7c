package lifecycle

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/guaranty/fault"
	"github.com/viant/guaranty/internal/clock"
	"github.com/viant/guaranty/model/policy"
	"github.com/viant/guaranty/service/metrics"
)

func metricValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched != len(labels) {
				continue
			}
			if counter := metric.GetCounter(); counter != nil {
				return counter.GetValue()
			}
			return float64(metric.GetHistogram().GetSampleCount())
		}
	}
	return 0
}

func TestService_Metrics(t *testing.T) {
	defer clock.Freeze(t0)()
	ctx := context.Background()
	registry := prometheus.NewRegistry()
	f := newFixture(t, WithMetrics(metrics.New(registry)))
	p, _ := f.pendingApproval(t, policy.GuarantorJointObligor)

	_, err := f.srv.ApprovePolicy(ctx, staff, p.ID)
	require.NoError(t, err)
	_, err = f.srv.ApprovePolicy(ctx, staff, p.ID)
	require.ErrorIs(t, err, fault.ErrIllegalTransition)

	assert.Equal(t, 1.0, metricValue(t, registry, "guaranty_lifecycle_operations_total",
		map[string]string{"operation": "ApprovePolicy", "status": metrics.StatusSuccess}))
	assert.Equal(t, 1.0, metricValue(t, registry, "guaranty_lifecycle_operations_total",
		map[string]string{"operation": "ApprovePolicy", "status": "ILLEGAL_TRANSITION"}))
	assert.Equal(t, 2.0, metricValue(t, registry, "guaranty_lifecycle_operation_duration_seconds",
		map[string]string{"operation": "ApprovePolicy"}))
	assert.Equal(t, 1.0, metricValue(t, registry, "guaranty_policy_transitions_total",
		map[string]string{"from": string(policy.StatusPendingApproval), "to": string(policy.StatusApproved)}))
}
