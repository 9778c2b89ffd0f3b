package evaluation

// Policy parameterizes the decision engine.
type Policy struct {
	// MinRating is the lowest latency rating that can be accepted.
	MinRating int
	// Advisory kinds are reported but never gate acceptance.
	Advisory []Kind
}

// DefaultPolicy requires rating 4 and treats HTTP/3 as informational.
func DefaultPolicy() Policy {
	return Policy{
		MinRating: 4,
		Advisory:  []Kind{KindHTTP3},
	}
}

func (p Policy) isAdvisory(kind Kind) bool {
	for _, k := range p.Advisory {
		if k == kind {
			return true
		}
	}
	return false
}

// Verdict is the decision derived from a Report.
type Verdict struct {
	Accepted        bool     `json:"accepted" yaml:"accepted"`
	Rating          int      `json:"rating" yaml:"rating"`
	PositiveReasons []string `json:"positive_reasons" yaml:"positive_reasons"`
	NegativeReasons []string `json:"negative_reasons" yaml:"negative_reasons"`
	Advisories      []string `json:"advisories,omitempty" yaml:"advisories,omitempty"`
}

// Decide applies the acceptance policy. A host is accepted iff its latency
// rating reaches p.MinRating and the gating negatives are either empty or
// exactly one CDN detection.
func Decide(report *Report, p Policy) Verdict {
	v := Verdict{
		Rating:          report.LatencyRating(),
		PositiveReasons: []string{},
		NegativeReasons: []string{},
	}

	var gating []Finding
	for _, f := range report.Findings() {
		switch {
		case f.IsPositive():
			v.PositiveReasons = append(v.PositiveReasons, f.Detail)
		case p.isAdvisory(f.Kind):
			v.Advisories = append(v.Advisories, f.Detail)
		default:
			gating = append(gating, f)
			v.NegativeReasons = append(v.NegativeReasons, f.Detail)
		}
	}

	cdnOnly := len(gating) == 0 || (len(gating) == 1 && gating[0].IsCDNDetection())
	v.Accepted = v.Rating >= p.MinRating && cdnOnly
	return v
}
