package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
	_ Event          = OrderEvent{}
	_ Event          = CustomerEvent{}
	_ Event          = SubscriptionEvent{}
	_ Event          = PingEvent{}
	_ Event          = UnknownEvent{}
	_ Synchronizer   = SynchronizerFunc(nil)
)
