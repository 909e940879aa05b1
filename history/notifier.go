package history

import "github.com/janelia-flyem/dvidseg/datastore"

// Notifier is told when the labels of a stack changed, e.g., so it can be re-rendered.
type Notifier interface {
	NotifyChanged(key datastore.StackKey)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(key datastore.StackKey)

func (f NotifierFunc) NotifyChanged(key datastore.StackKey) {
	f(key)
}

type nopNotifier struct{}

func (nopNotifier) NotifyChanged(datastore.StackKey) {}
