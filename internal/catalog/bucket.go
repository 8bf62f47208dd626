// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"cmp"
	"slices"
	"strings"

	"github.com/slicebuild/sb/pkg/version"
)

// Bucket is one version-stamped directory directly under the slices root.
type Bucket struct {
	// Name is the directory name, for example slices-1.0.1 or 1.0.0-alpha.
	Name    string
	Version version.Version
	Path    string
}

// ParseBucketVersion reads the version from a bucket directory name. A name
// that is a bare version (1.0.1) is used as is; otherwise the name is split
// as a name-version compound, and a name without a version is 0.0.0.
func ParseBucketVersion(name string) (version.Version, error) {
	name = strings.ToLower(name)
	if v, err := version.Parse(name); err == nil {
		return v, nil
	}
	_, v, err := version.ExtractNameAndVersion(name)
	return v, err
}

// SelectBuckets keeps the buckets whose major version is the highest present
// and returns them in ascending version order. The second result holds the
// buckets that were dropped.
func SelectBuckets(buckets []Bucket) (kept, dropped []Bucket) {
	if len(buckets) == 0 {
		return nil, nil
	}

	top := slices.MaxFunc(buckets, func(a, b Bucket) int {
		return cmp.Compare(a.Version.Major, b.Version.Major)
	}).Version.Major

	for _, b := range buckets {
		if b.Version.Major == top {
			kept = append(kept, b)
		} else {
			dropped = append(dropped, b)
		}
	}
	slices.SortStableFunc(kept, func(a, b Bucket) int {
		return a.Version.Compare(b.Version)
	})
	return kept, dropped
}
