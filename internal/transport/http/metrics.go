package httptransport

import "expvar"

var (
	metricRoomCreateTotal  = expvar.NewInt("room_create_total")
	metricRoomCreateErrors = expvar.NewInt("room_create_errors_total")

	metricMoveSubmitTotal  = expvar.NewInt("move_submit_total")
	metricMoveSubmitErrors = expvar.NewInt("move_submit_errors_total")

	metricWSConnectionsTotal  = expvar.NewInt("ws_connections_total")
	metricWSConnectionsActive = expvar.NewInt("ws_connections_active")
)
