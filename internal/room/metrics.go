package room

import "expvar"

var (
	metricBroadcastTotal = expvar.NewInt("room_broadcast_total")
	metricSendDropsTotal = expvar.NewInt("room_send_drops_total")
)
