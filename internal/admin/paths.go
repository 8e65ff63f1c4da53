package admin

// Route paths of the admin API.
const (
	PathHealth        = "/health"
	PathReady         = "/ready"
	PathProducts      = "/v1/products"
	PathProductID     = "/v1/products/:id"
	PathTickets       = "/v1/tickets"
	PathTicketChannel = "/v1/tickets/:channel"
	PathCart          = "/v1/carts/:user"
	PathDomainMetrics = "/metrics/domain"
)
