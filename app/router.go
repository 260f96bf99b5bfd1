package app

import (
	"net/http"
	"time"

	"starset-backend/handlers"
	"starset-backend/metrics"
	"starset-backend/middleware"
	"starset-backend/storage"
)

// NewRouter wires the HTTP surface and middleware chain around the given
// store and uploader.
func NewRouter(store storage.Store, uploader handlers.Uploader, requestTimeout time.Duration) http.Handler {
	taskHandler := handlers.NewTaskHandler(store)
	submissionHandler := handlers.NewSubmissionHandler(store, uploader)
	userHandler := handlers.NewUserHandler(store)
	payoutHandler := handlers.NewPayoutHandler()
	healthHandler := handlers.NewHealthHandler(store)

	mux := http.NewServeMux()
	mux.HandleFunc("/admin/tasks", taskHandler.AdminTasks)
	mux.HandleFunc("/contributor/tasks", taskHandler.ContributorTasks)
	mux.HandleFunc("/submissions/audio", submissionHandler.Audio)
	mux.HandleFunc("/submissions/image", submissionHandler.Image)
	mux.HandleFunc("/submissions/text", submissionHandler.Text)
	mux.HandleFunc("/user/submissions/", userHandler.Submissions)
	mux.HandleFunc("/payouts/qr", payoutHandler.QR)
	mux.HandleFunc("/healthz", healthHandler.Health)
	mux.Handle("/metrics", metrics.Handler())

	return middleware.Recovery(
		middleware.Logging(
			metrics.Instrument(
				middleware.CORS(
					middleware.Timeout(requestTimeout)(mux),
				),
			),
		),
	)
}
