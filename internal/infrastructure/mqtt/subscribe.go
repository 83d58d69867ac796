package mqtt

import (
	"fmt"
	"sort"
)

// Subscribe registers handler for topic and subscribes on the broker.
//
// The subscription is tracked and restored on every reconnect. Subscribing
// again to a tracked topic replaces its handler; the broker keeps one
// subscription per topic, so nothing is delivered twice.
//
// The handler runs on the paho router goroutine and should hand work off
// rather than block.
//
// Returns ErrNotConnected while disconnected. A failed subscribe is not
// tracked, so the caller retries it after the next connect.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if err := checkTopicQoS(topic, qos); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{topic: topic, qos: qos, handler: handler}
	c.subMu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	err := waitToken(token, ErrSubscribeFailed)
	if err != nil {
		c.subMu.Lock()
		delete(c.subscriptions, topic)
		c.subMu.Unlock()
	}
	return err
}

// Subscriptions returns the tracked topics in sorted order.
func (c *Client) Subscriptions() []string {
	c.subMu.RLock()
	topics := make([]string, 0, len(c.subscriptions))
	for topic := range c.subscriptions {
		topics = append(topics, topic)
	}
	c.subMu.RUnlock()

	sort.Strings(topics)
	return topics
}
