package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	PositionsReceived atomic.Int64
	PositionsRejected atomic.Int64
	DBWriteSuccess    atomic.Int64
	DBWriteFailures   atomic.Int64
	DBDuplicateSkips  atomic.Int64
	DBChannelDrops    atomic.Int64
	FeedChannelDrops  atomic.Int64
	FeedPublishErrors atomic.Int64
	LiveAlertsSent    atomic.Int64
	LiveClients       atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "telemetry_positions_received_total %d\n", PositionsReceived.Load())
	fmt.Fprintf(w, "telemetry_positions_rejected_total %d\n", PositionsRejected.Load())
	fmt.Fprintf(w, "telemetry_db_write_success_total %d\n", DBWriteSuccess.Load())
	fmt.Fprintf(w, "telemetry_db_write_failures_total %d\n", DBWriteFailures.Load())
	fmt.Fprintf(w, "telemetry_db_duplicate_skips_total %d\n", DBDuplicateSkips.Load())
	fmt.Fprintf(w, "telemetry_db_channel_drops_total %d\n", DBChannelDrops.Load())
	fmt.Fprintf(w, "telemetry_feed_channel_drops_total %d\n", FeedChannelDrops.Load())
	fmt.Fprintf(w, "telemetry_feed_publish_errors_total %d\n", FeedPublishErrors.Load())
	fmt.Fprintf(w, "telemetry_live_alerts_sent_total %d\n", LiveAlertsSent.Load())
	fmt.Fprintf(w, "telemetry_live_clients %d\n", LiveClients.Load())
}
