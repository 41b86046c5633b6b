package inventory

import "strings"

// Filter returns the nodes whose name matches any of the provided patterns,
// preserving list order. An empty pattern list selects every node.
// Supports wildcard patterns:
//   - "prefix*" matches names starting with "prefix"
//   - "*suffix" matches names ending with "suffix"
//   - "*contains*" matches names containing "contains"
//   - "exact" matches names exactly
func Filter(nodes []Node, patterns []string) []Node {
	if len(patterns) == 0 {
		return nodes
	}

	result := make([]Node, 0, len(nodes))
	for _, node := range nodes {
		for _, pattern := range patterns {
			if matchesPattern(node.Name, pattern) {
				result = append(result, node)
				break
			}
		}
	}

	return result
}

// matchesPattern checks if a name matches a wildcard pattern.
func matchesPattern(name, pattern string) bool {
	// No wildcard - exact match
	if !strings.Contains(pattern, "*") {
		return name == pattern
	}

	// *contains* - contains match
	if strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*") {
		substr := strings.Trim(pattern, "*")
		return strings.Contains(name, substr)
	}

	// *suffix - ends with match
	if strings.HasPrefix(pattern, "*") {
		suffix := strings.TrimPrefix(pattern, "*")
		return strings.HasSuffix(name, suffix)
	}

	// prefix* - starts with match
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		return strings.HasPrefix(name, prefix)
	}

	return false
}
