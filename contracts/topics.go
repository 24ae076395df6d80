package contracts

import "strings"

// Topic namespaces shared by senders and receivers. Topics are dot-separated,
// e.g. "notification.email" or "scheduler.task.due". The core does not enforce
// these; they exist so independent processes agree on routing.
const (
	NamespaceSystem       = "system"
	NamespaceStorage      = "storage"
	NamespaceScheduler    = "scheduler"
	NamespacePlugin       = "plugin"
	NamespaceNotification = "notification"
	NamespaceAlert        = "alert"
	NamespaceAPI          = "api"
	NamespaceWebhook      = "webhook"
)

// TopicNamespace returns the segment before the first dot, or the whole topic
// when it has no dot.
func TopicNamespace(topic string) string {
	if i := strings.IndexByte(topic, '.'); i >= 0 {
		return topic[:i]
	}
	return topic
}

// JoinTopic builds a namespaced topic name.
func JoinTopic(namespace, name string) string {
	return namespace + "." + name
}
