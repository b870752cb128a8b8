package envfile

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// AdminPortKey holds the port of the admin portal served by nginx.
const AdminPortKey = "NGINX_PORT"

// ComposeProjectKey names the compose project of the stack.
const ComposeProjectKey = "COMPOSE_PROJECT_NAME"

// Option describes a built-in Mythic setting.
type Option struct {
	Key     string
	Default string
	Usage   string

	// Secret options have no fixed default; a random value is generated
	// when defaults are materialised.
	Secret bool
}

// Flag returns the command-line flag name of the option.
func (o Option) Flag() string {
	return strings.ToLower(strings.ReplaceAll(o.Key, "_", "-"))
}

// Options is the built-in option set, in file order.
var Options = []Option{
	{Key: "ALLOWED_IP_BLOCKS", Default: "0.0.0.0/0,::/0", Usage: "Allowed IP blocks"},
	{Key: "COMPOSE_PROJECT_NAME", Default: "mythic", Usage: "Compose project name"},
	{Key: "DEBUG_LEVEL", Default: "warning", Usage: "Debug level"},
	{Key: "DEFAULT_OPERATION_NAME", Default: "Operation Chimera", Usage: "Default operation name"},
	{Key: "DEFAULT_OPERATION_WEBHOOK_CHANNEL", Usage: "Default operation webhook channel"},
	{Key: "DEFAULT_OPERATION_WEBHOOK_URL", Usage: "Default operation webhook URL"},
	{Key: "DOCUMENTATION_BIND_LOCALHOST_ONLY", Default: "true", Usage: "Documentation bind localhost only"},
	{Key: "DOCUMENTATION_HOST", Default: "mythic_documentation", Usage: "Documentation host"},
	{Key: "DOCUMENTATION_PORT", Default: "8090", Usage: "Documentation port"},
	{Key: "DOCUMENTATION_USE_BUILD_CONTEXT", Default: "false", Usage: "Documentation use build context"},
	{Key: "DOCUMENTATION_USE_VOLUME", Default: "false", Usage: "Documentation use volume"},
	{Key: "GLOBAL_DOCKER_LATEST", Default: "latest", Usage: "Global docker latest version"},
	{Key: "GLOBAL_MANAGER", Default: "docker", Usage: "Global manager"},
	{Key: "GLOBAL_SERVER_NAME", Default: "mythic", Usage: "Global server name"},
	{Key: "HASURA_BIND_LOCALHOST_ONLY", Default: "true", Usage: "Hasura bind localhost only"},
	{Key: "HASURA_CPUS", Default: "2", Usage: "Hasura CPUs"},
	{Key: "HASURA_EXPERIMENTAL_FEATURES", Default: "streaming_subscriptions", Usage: "Hasura experimental features"},
	{Key: "HASURA_HOST", Default: "mythic_graphql", Usage: "Hasura host"},
	{Key: "HASURA_MEM_LIMIT", Default: "2gb", Usage: "Hasura memory limit"},
	{Key: "HASURA_PORT", Default: "8080", Usage: "Hasura port"},
	{Key: "HASURA_SECRET", Usage: "Hasura secret", Secret: true},
	{Key: "HASURA_USE_BUILD_CONTEXT", Default: "false", Usage: "Hasura use build context"},
	{Key: "HASURA_USE_VOLUME", Default: "false", Usage: "Hasura use volume"},
	{Key: "JWT_SECRET", Usage: "JWT signing secret", Secret: true},
	{Key: "MYTHIC_ADMIN_USER", Default: "mythic_admin", Usage: "Initial admin user"},
	{Key: "MYTHIC_ADMIN_PASSWORD", Usage: "Initial admin password", Secret: true},
	{Key: "NGINX_BIND_LOCALHOST_ONLY", Default: "false", Usage: "Admin portal bind localhost only"},
	{Key: AdminPortKey, Default: "7443", Usage: "Admin portal port"},
}

// secretBytes is the entropy of a generated secret before hex encoding.
const secretBytes = 24

// Defaults returns the built-in option set with freshly generated secrets.
func Defaults() *Configuration {
	cfg := New()
	for _, o := range Options {
		value := o.Default
		if o.Secret {
			value = generateSecret()
		}
		cfg.Set(o.Key, value)
	}
	return cfg
}

func generateSecret() string {
	b := make([]byte, secretBytes)
	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
