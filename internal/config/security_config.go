package config

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
	SecurityAdmin                       // Access token with the ADMIN role
)

// EndpointSecurityConfig maps "METHOD /route-template" to its required
// security level. Routes missing from the map require an access token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"GET /healthz": SecurityPublic,

	// Return inspection
	"POST /api/v1/returns/settle": SecurityAdmin,
	"POST /api/v1/returns/assess": SecurityAdmin,

	// Penalties
	"GET /api/v1/penalties/unresolved": SecurityAdmin,
	"GET /api/v1/penalties/mine":       SecurityAccess,
	"GET /api/v1/penalties/{id}":       SecurityAccess,
	"POST /api/v1/penalties/{id}/pay":  SecurityAccess,

	// Penalty policies
	"GET /api/v1/penalty-policies":      SecurityAccess,
	"POST /api/v1/penalty-policies":     SecurityAdmin,
	"GET /api/v1/penalty-policies/{id}": SecurityAccess,
	"PUT /api/v1/penalty-policies/{id}": SecurityAdmin,

	// Refund queue
	"GET /api/v1/refunds":               SecurityAdmin,
	"POST /api/v1/refunds/{id}/preview": SecurityAdmin,
	"POST /api/v1/refunds/{id}/approve": SecurityAdmin,
	"POST /api/v1/refunds/{id}/reject":  SecurityAdmin,

	// Notifications and wallet
	"GET /api/v1/notifications":            SecurityAccess,
	"POST /api/v1/notifications/{id}/read": SecurityAccess,
	"GET /api/v1/wallet":                   SecurityAccess,
}

// RequiredLevel looks up the level for a route, defaulting to SecurityAccess.
func RequiredLevel(method, pathTemplate string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[method+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAccess
}
