// Package metrics 集中声明业务指标，/metrics 由 promhttp 暴露。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "commerce",
		Name:      "checkout_total",
		Help:      "Checkout attempts by result code.",
	}, []string{"result"})

	VoucherRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "commerce",
		Name:      "voucher_rejections_total",
		Help:      "Voucher validation rejections by reason.",
	}, []string{"reason"})

	MixedLines = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "commerce",
		Name:      "mixed_rate_lines_total",
		Help:      "Cart lines whose flash-sale stock ran out mid-order.",
	})

	ExpGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "progression",
		Name:      "exp_granted_total",
		Help:      "EXP granted after decay, by source.",
	}, []string{"source"})

	LevelUps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "progression",
		Name:      "level_ups_total",
		Help:      "Levels gained across all users.",
	})

	DailyClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "progression",
		Name:      "daily_claims_total",
		Help:      "Daily reward claims by result (claimed, already_claimed, streak_reset).",
	}, []string{"result"})

	ChapterUnlocks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "progression",
		Name:      "chapter_unlocks_total",
		Help:      "Chapter unlock attempts by result code.",
	}, []string{"result"})

	PushDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "push",
		Name:      "messages_total",
		Help:      "Progression events pushed to websocket clients, by outcome.",
	}, []string{"outcome"})

	GatewayProxied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "inkverse",
		Subsystem: "gateway",
		Name:      "proxied_requests_total",
		Help:      "Requests forwarded by the edge gateway, by upstream service and status code.",
	}, []string{"service", "code"})
)
