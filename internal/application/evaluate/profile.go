package evaluate

import (
	"fmt"
	"sort"

	"github.com/d0t0ne/dignezzz/internal/domain/evaluation"
	sharedErrors "github.com/d0t0ne/dignezzz/internal/shared/errors"
)

// Profile names.
const (
	ProfileDest = "dest"
	ProfileSNI  = "sni"
)

// Profile selects which checks an evaluation runs.
type Profile struct {
	Name        string
	EnableHTTP3 bool
	CDNTiers    []evaluation.EvidenceTier
}

var profiles = map[string]Profile{
	// Reality destination: only the headers tier, no HTTP/3 check.
	ProfileDest: {
		Name:     ProfileDest,
		CDNTiers: []evaluation.EvidenceTier{evaluation.TierHeaders},
	},
	ProfileSNI: {
		Name:        ProfileSNI,
		EnableHTTP3: true,
		CDNTiers: []evaluation.EvidenceTier{
			evaluation.TierHeaders,
			evaluation.TierASN,
			evaluation.TierIPOrg,
			evaluation.TierCertificate,
		},
	},
}

// DefaultProfile is used when none is configured.
const DefaultProfile = ProfileSNI

// LookupProfile returns a copy of the named profile.
func LookupProfile(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q (available: %v)", sharedErrors.ErrUnknownProfile, name, ProfileNames())
	}
	p.CDNTiers = append([]evaluation.EvidenceTier(nil), p.CDNTiers...)
	return p, nil
}

// ProfileNames lists the known profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
