package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	expensesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billbuddy_expenses_created_total",
		Help: "Number of expenses created.",
	})

	paymentsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billbuddy_payments_recorded_total",
		Help: "Number of settlement payments recorded.",
	})

	offsetCentsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billbuddy_netting_offset_cents_total",
		Help: "Total cents settled by netting reciprocal debts instead of cash.",
	})

	balanceCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billbuddy_balance_cache_hits_total",
		Help: "Balance summary reads served from cache.",
	})

	balanceCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "billbuddy_balance_cache_misses_total",
		Help: "Balance summary reads recomputed from storage.",
	})
)
