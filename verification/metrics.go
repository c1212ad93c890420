/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package verification

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webster_webhook_deliveries_total",
			Help: "Inbound push deliveries by outcome per entry.",
		},
		[]string{"outcome"},
	)
	notifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webster_notifications_total",
			Help: "Outbound diagnostic notifications by payload format and outcome.",
		},
		[]string{"format", "outcome"},
	)
	verificationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webster_verification_runs_total",
			Help: "Verification runs by outcome.",
		},
		[]string{"outcome"},
	)
)
