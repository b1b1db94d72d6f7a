package tenants

// Record is one installed tenant of the add-on.
type Record struct {
	Key          string         // client key issued by the host product; primary lookup key
	SharedSecret string         // per-tenant secret for verifying signed tokens
	BaseURL      string         // host product base URL for this tenant
	Raw          map[string]any // install payload as received, stored verbatim
}

// Field names accepted by Store.GetField.
const (
	FieldSharedSecret = "sharedSecret"
	FieldBaseURL      = "baseUrl"
)
