package route

import "github.com/tnhu/wpm/pkg/routepath"

// InstanceKey identifies a route instance within its definition: the
// serialized path parameters followed by the serialized query parameters.
// The fragment never participates.
func InstanceKey(args map[string]string, query map[string]any) string {
	return routepath.SerializeParams(args) + routepath.Serialize(query)
}
