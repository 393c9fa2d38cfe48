package snapshot

import (
	"errors"
	"fmt"
	"strings"
)

// Azure resource IDs are slash-delimited:
//
//	/subscriptions/<sub>/resourceGroups/<rg>/providers/Microsoft.Compute/snapshots/<name>
//
// Splitting on "/" yields a leading empty segment, so a well-formed snapshot
// ID has at least 9 segments. Shorter IDs are malformed and must never reach
// the lock coordinator or the bulk executor.
const minIDSegments = 9

const (
	subscriptionSegment  = 2
	resourceGroupSegment = 4
)

// ErrMalformedID reports a resource ID that does not parse.
var ErrMalformedID = errors.New("invalid snapshot ID format")

// ResourceID is a parsed snapshot resource ID.
type ResourceID struct {
	Raw           string
	Subscription  string
	ResourceGroup string
	Name          string
}

// ParseResourceID validates and decomposes a raw snapshot resource ID.
func ParseResourceID(raw string) (ResourceID, error) {
	parts := strings.Split(raw, "/")
	if len(parts) < minIDSegments {
		return ResourceID{}, fmt.Errorf("%w: %q", ErrMalformedID, raw)
	}
	return ResourceID{
		Raw:           raw,
		Subscription:  parts[subscriptionSegment],
		ResourceGroup: parts[resourceGroupSegment],
		Name:          parts[len(parts)-1],
	}, nil
}
