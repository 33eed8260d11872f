package flow

// SubscriberFuncs adapts plain functions to Subscriber. Nil fields are
// skipped. When OnSubscribeFn is nil the subscription requests
// InitialDemand items (Unbounded if zero).
type SubscriberFuncs[T any] struct {
	InitialDemand int
	OnSubscribeFn func(Subscription)
	OnNextFn      func(T)
	OnErrorFn     func(error)
	OnCompleteFn  func()
}

// OnSubscribe implements Subscriber.
func (f *SubscriberFuncs[T]) OnSubscribe(s Subscription) {
	if f.OnSubscribeFn != nil {
		f.OnSubscribeFn(s)
		return
	}
	n := f.InitialDemand
	if n == 0 {
		n = Unbounded
	}
	s.Request(n)
}

// OnNext implements Subscriber.
func (f *SubscriberFuncs[T]) OnNext(v T) {
	if f.OnNextFn != nil {
		f.OnNextFn(v)
	}
}

// OnError implements Subscriber.
func (f *SubscriberFuncs[T]) OnError(err error) {
	if f.OnErrorFn != nil {
		f.OnErrorFn(err)
	}
}

// OnComplete implements Subscriber.
func (f *SubscriberFuncs[T]) OnComplete() {
	if f.OnCompleteFn != nil {
		f.OnCompleteFn()
	}
}

// noopSubscription is handed to subscribers of an already terminated stream.
type noopSubscription struct{}

func (noopSubscription) Request(int) {}
func (noopSubscription) Cancel()     {}
