package sentry

import (
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
)

type SentryInfoData map[string]interface{}

var inited atomic.Bool

// Init configures the global hub. An empty dsn leaves reporting disabled.
func Init(dsn string) error {
	if dsn == "" {
		return nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		TracesSampleRate: 1.0,
	})
	if err != nil {
		return err
	}
	inited.Store(true)
	return nil
}

func Enabled() bool {
	return inited.Load()
}

// Flush waits for buffered events to be delivered.
func Flush() {
	if !inited.Load() {
		return
	}
	sentry.Flush(2 * time.Second)
}

func Send(title string, data SentryInfoData, logLevel sentry.Level) {
	if !inited.Load() {
		return
	}

	go func(localHub *sentry.Hub) {
		localHub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetLevel(logLevel)
			scope.SetExtras(data)
		})
		localHub.CaptureMessage(title)
	}(sentry.CurrentHub().Clone())
}

// Reporter adapts Send to the gateway failure hook.
func Reporter(logLevel sentry.Level) func(title string, data map[string]interface{}) {
	return func(title string, data map[string]interface{}) {
		Send(title, data, logLevel)
	}
}
