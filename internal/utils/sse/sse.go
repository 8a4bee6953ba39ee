package sse

import (
	"sync"
)

var channels sync.Map // key: user ID, value: chan map[string]interface{}

func RegisterChannel(userID string, ch chan map[string]interface{}) {
	channels.Store(userID, ch)
}

// UnregisterChannel removes the user's stream only if ch is still the
// registered one. A reconnect replaces the channel, and the stale
// handler's teardown must not tear down the fresh registration.
func UnregisterChannel(userID string, ch chan map[string]interface{}) {
	channels.CompareAndDelete(userID, ch)
}

// SendToUser delivers one event to the user's stream if connected. A full
// channel drops the event rather than blocking the interview loop.
func SendToUser(userID string, notification map[string]interface{}) bool {
	if chVal, ok := channels.Load(userID); ok {
		if ch, ok := chVal.(chan map[string]interface{}); ok {
			select {
			case ch <- notification:
				return true
			default:
				return false
			}
		}
	}
	return false
}

// Broker adapts the package to the controller's Notifier interface.
type Broker struct{}

func (Broker) Send(userID string, event map[string]interface{}) bool {
	return SendToUser(userID, event)
}
