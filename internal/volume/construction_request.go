package volume

import (
	"encoding/json"
	"fmt"
)

// ConstructionRequestKind discriminates the tagged union a ConstructionRequest
// decodes into. The wire encoding matches the four variants named in the
// construction-request walker design: Volume, Url, Region, File.
type ConstructionRequestKind string

const (
	KindVolume ConstructionRequestKind = "volume"
	KindURL    ConstructionRequestKind = "url"
	KindRegion ConstructionRequestKind = "region"
	KindFile   ConstructionRequestKind = "file"
)

// RegionOpts carries the leaf fields of a Region construction request: the
// storage-server endpoints backing it, and whether it is a read-only target.
type RegionOpts struct {
	Target   []string `json:"target"`
	ReadOnly bool     `json:"read_only"`
}

// ConstructionRequest is a recursive description of how to assemble a volume
// from sub-volumes, regions, snapshots (read-only parents), URLs, and files.
// Construction requests are trees, never graphs, so walking one cannot cycle.
type ConstructionRequest struct {
	Kind ConstructionRequestKind `json:"kind"`

	// Volume fields.
	SubVolumes     []ConstructionRequest `json:"sub_volumes,omitempty"`
	ReadOnlyParent *ConstructionRequest  `json:"read_only_parent,omitempty"`

	// Region fields.
	Opts RegionOpts `json:"opts,omitempty"`
}

// ErrMalformedRequest is returned by ParseConstructionRequest on invalid JSON
// and by Walk if recursion exceeds maxWalkDepth.
var ErrMalformedRequest = fmt.Errorf("malformed construction request")

// ParseConstructionRequest decodes the textual form stored in Volume.Data.
func ParseConstructionRequest(data string) (ConstructionRequest, error) {
	var req ConstructionRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return ConstructionRequest{}, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
	}
	return req, nil
}

// Encode serializes a ConstructionRequest back to its textual form.
func (r ConstructionRequest) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode construction request: %w", err)
	}
	return string(b), nil
}

// maxWalkDepth defensively bounds recursion. Construction requests are trees
// by construction, so this is never hit in practice; it exists only to turn a
// corrupted or maliciously deep document into a clean error instead of a
// stack overflow.
const maxWalkDepth = 64

// Walk recursively visits the construction-request tree and returns every
// target string of every Region leaf with ReadOnly=true. Order is unspecified.
// Duplicates are preserved: a target appearing twice in one request contributes
// two references.
func Walk(req ConstructionRequest) ([]string, error) {
	var targets []string
	if err := walk(req, 0, &targets); err != nil {
		return nil, err
	}
	return targets, nil
}

func walk(req ConstructionRequest, depth int, out *[]string) error {
	if depth > maxWalkDepth {
		return fmt.Errorf("%w: recursion depth exceeded %d", ErrMalformedRequest, maxWalkDepth)
	}

	switch req.Kind {
	case KindVolume:
		for _, sub := range req.SubVolumes {
			if err := walk(sub, depth+1, out); err != nil {
				return err
			}
		}
		if req.ReadOnlyParent != nil {
			if err := walk(*req.ReadOnlyParent, depth+1, out); err != nil {
				return err
			}
		}
	case KindRegion:
		if req.Opts.ReadOnly {
			*out = append(*out, req.Opts.Target...)
		}
	case KindURL, KindFile:
		// No resources referenced.
	default:
		return fmt.Errorf("%w: unknown construction request kind %q", ErrMalformedRequest, req.Kind)
	}
	return nil
}
