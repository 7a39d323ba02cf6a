package server

// Route paths
const (
	RouteWebhook = "/webhook"
	RouteHealth  = "/healthz"
)
