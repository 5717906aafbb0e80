package guard

// Rate-limit key builders. Pure functions: the same request or socket shape
// always yields the same key, since keys for one logical bucket must be
// computed identically on every call.

// APIKey scopes a bucket to an API credential's declared operation: the
// GraphQL operation name, or method+path for REST.
func APIKey(operation string) string {
	return "api:" + operation
}

// IPKey scopes a bucket to a resolved client address.
func IPKey(ip string) string {
	return "ip:" + ip
}

// UserKey scopes a bucket to an authenticated user.
func UserKey(userID string) string {
	return "user:" + userID
}

// SocketIPKey scopes a bucket to the client address of a realtime socket.
func SocketIPKey(ip string) string {
	return "socket-ip:" + ip
}

// SocketUserKey scopes a bucket to a user on one socket connection. The
// connection id keeps two concurrent sockets from the same user on
// independent buckets.
func SocketUserKey(socketID, userID string) string {
	return "socket-user:" + socketID + ":" + userID
}
